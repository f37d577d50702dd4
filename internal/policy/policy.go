// Package policy combines the command rules, the tool-name classifier and the
// branch-protection checks into a single verdict per request.
package policy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgerlanc/gitguard/internal/command"
	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/dgerlanc/gitguard/internal/refspec"
	"github.com/dgerlanc/gitguard/internal/repostate"
	"github.com/dgerlanc/gitguard/internal/rules"
	"github.com/dgerlanc/gitguard/internal/toolname"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// ShellTool is the tool name whose input carries a shell command.
const ShellTool = "Bash"

// Shape is the kind of request being judged.
type Shape int

const (
	// ShapeEmpty is a request with neither a command nor a tool name.
	ShapeEmpty Shape = iota
	// ShapeCommand is a shell command.
	ShapeCommand
	// ShapeTool is a bare tool invocation.
	ShapeTool
)

func (s Shape) String() string {
	switch s {
	case ShapeCommand:
		return "command"
	case ShapeTool:
		return "tool"
	default:
		return "empty"
	}
}

// Request is one proposed action.
type Request struct {
	ToolName string
	Command  string
	// Cwd is the directory repository state is resolved in.
	Cwd string
}

// Shape classifies the request.
func (r Request) Shape() Shape {
	switch {
	case r.ToolName == "" || r.ToolName == ShellTool:
		if strings.TrimSpace(r.Command) == "" {
			return ShapeEmpty
		}
		return ShapeCommand
	default:
		return ShapeTool
	}
}

// Decision is a verdict together with what the engine looked at.
type Decision struct {
	verdict.Verdict
	Shape      Shape
	Normalized string
	Segments   []string
	// Branch and Base are the repository facts consulted, empty when unknown
	// or not needed.
	Branch string
	Base   string
}

// ResolverFunc returns the resolver for a working directory.
type ResolverFunc func(dir string) repostate.Resolver

// Options configures an Engine.
type Options struct {
	// Hooks are the hook sets to run; nil means all of them.
	Hooks             []string
	StrictSplit       bool
	BlockSubstitution bool
	Surfaces          []toolname.Surface
	Resolver          ResolverFunc
}

// Engine evaluates requests. It holds no per-request state and may be reused.
type Engine struct {
	hooks             []string
	strict            bool
	blockSubstitution bool
	tools             *toolname.Classifier
	resolver          ResolverFunc
}

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	hooks := opts.Hooks
	if hooks == nil {
		hooks = config.KnownHooks
	}
	for _, h := range hooks {
		if !slices.Contains(config.KnownHooks, h) {
			return nil, fmt.Errorf("unknown hook %q", h)
		}
	}

	tools := toolname.Default
	if len(opts.Surfaces) > 0 {
		var err error
		if tools, err = toolname.New(opts.Surfaces); err != nil {
			return nil, fmt.Errorf("failed to build tool classifier: %w", err)
		}
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = func(dir string) repostate.Resolver { return repostate.NewGit(dir) }
	}

	return &Engine{
		hooks:             slices.Clone(hooks),
		strict:            opts.StrictSplit,
		blockSubstitution: opts.BlockSubstitution,
		tools:             tools,
		resolver:          resolver,
	}, nil
}

// FromConfig builds an Engine from loaded configuration. When hooks is
// non-empty it replaces the hook sets enabled in cfg.
func FromConfig(cfg *config.Config, hooks ...string) (*Engine, error) {
	if len(hooks) == 0 {
		hooks = []string{}
		for _, h := range config.KnownHooks {
			if cfg.HookEnabled(h) {
				hooks = append(hooks, h)
			}
		}
	}
	return New(Options{
		Hooks:             hooks,
		StrictSplit:       cfg.StrictSplit,
		BlockSubstitution: cfg.BlockSubstitution,
		Surfaces:          cfg.Surfaces,
		Resolver: func(dir string) repostate.Resolver {
			return &repostate.Git{
				Dir:           dir,
				GitPath:       cfg.GitPath,
				GhPath:        cfg.GhPath,
				BranchTimeout: cfg.BranchTimeout,
				PRTimeout:     cfg.PRTimeout,
			}
		},
	})
}

// Hooks returns the enabled hook sets.
func (e *Engine) Hooks() []string {
	return slices.Clone(e.hooks)
}

// Tools returns the tool-name classifier.
func (e *Engine) Tools() *toolname.Classifier {
	return e.tools
}

func (e *Engine) enabled(hook string) bool {
	return slices.Contains(e.hooks, hook)
}

// Evaluate returns the verdict for req.
func (e *Engine) Evaluate(ctx context.Context, req Request) verdict.Verdict {
	return e.Explain(ctx, req).Verdict
}

// Explain evaluates req and reports the facts behind the verdict.
func (e *Engine) Explain(ctx context.Context, req Request) Decision {
	d := Decision{Verdict: verdict.Abstain(), Shape: req.Shape()}

	switch d.Shape {
	case ShapeTool:
		d.Normalized = req.ToolName
		if e.enabled(constants.HookToolSurface) {
			d.Verdict = e.tools.Classify(req.ToolName)
		}
	case ShapeCommand:
		d.Normalized = command.Normalize(req.Command)
		segments := command.Split(d.Normalized)
		d.Segments = command.Raws(segments)

		if e.enabled(constants.HookProtectBranches) {
			e.protect(ctx, req.Cwd, segments, &d)
			if !d.IsAbstain() {
				break
			}
		}
		if e.enabled(constants.HookGitSafe) {
			d.Verdict = e.gitSafe(req.Command, d.Normalized, segments)
		}
	}

	logger.Debug("policy evaluated",
		"shape", d.Shape.String(),
		"decision", d.Kind.String(),
		"rule", d.Rule)
	return d
}

// gitSafe runs the allow rules of the git-safe hook.
func (e *Engine) gitSafe(raw, normalized string, segments []command.SubCommand) verdict.Verdict {
	if e.blockSubstitution && command.ContainsSubstitution(raw) {
		logger.Debug("command substitution present, not auto-approving")
		return verdict.Abstain()
	}

	// The parser needs the raw text: newlines separate commands and do not
	// survive normalization.
	if e.strict {
		strict, err := command.SplitStrict(raw)
		if err != nil {
			logger.Debug("strict split failed", "error", err)
			return verdict.Abstain()
		}
		segments = strict
	}
	return rules.GitSafe.Evaluate(normalized, segments)
}

// protect runs the branch-protection checks on every segment. Repository
// facts are resolved at most once per evaluation and only when a segment
// needs them.
func (e *Engine) protect(ctx context.Context, dir string, segments []command.SubCommand, d *Decision) {
	var (
		resolver    repostate.Resolver
		branchKnown bool
	)
	resolve := func() repostate.Resolver {
		if resolver == nil {
			resolver = e.resolver(dir)
		}
		return resolver
	}

	for _, seg := range segments {
		switch {
		case rules.MergeVerb.MatchString(seg.Raw):
			pr := MergeTarget(seg.Tokens)
			base, err := resolve().PullRequestBaseBranch(ctx, pr)
			if err != nil {
				logger.Debug("pull request base unknown", "pull_request", pr.String(), "error", err)
				continue
			}
			d.Base = base
			if refspec.IsProtected(base) {
				d.Verdict = verdict.Deny(rules.NameMergeIntoProtected,
					"Blocked: merging into protected branch "+base)
				return
			}

		case rules.PushVerb.MatchString(seg.Raw):
			if !branchKnown {
				branchKnown = true
				branch, err := resolve().CurrentBranch(ctx)
				if err != nil {
					logger.Debug("current branch unknown", "error", err)
				}
				d.Branch = branch
			}
			if refspec.IsProtected(d.Branch) {
				d.Verdict = verdict.Deny(rules.NamePushFromProtected,
					"Blocked: pushing from protected branch "+d.Branch)
				return
			}

			push := refspec.Extract(seg.Tokens)
			logger.Debug("push", "remote", push.Remote, "destinations", push.Destinations())
			if dst, ok := push.ProtectedDestination(); ok {
				d.Verdict = verdict.Deny(rules.NamePushToProtected,
					"Blocked: pushing to protected branch "+dst)
				return
			}
		}
	}
}

// mergeValueFlags are gh pr merge options that consume the following token.
var mergeValueFlags = []string{
	"-t", "--subject",
	"-b", "--body",
	"-F", "--body-file",
	"-A", "--author-email",
	"--match-head-commit",
}

// MergeTarget returns the pull request a gh pr merge command acts on: its
// selector (number, URL or branch) and the -R/--repo repository, either of
// which may be empty.
func MergeTarget(tokens []string) repostate.PullRequest {
	var pr repostate.PullRequest

	start := -1
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i] == "gh" && tokens[i+1] == "pr" && tokens[i+2] == "merge" {
			start = i + 3
			break
		}
	}
	if start < 0 {
		return pr
	}

	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-R" || tok == "--repo":
			if i+1 < len(tokens) {
				i++
				pr.Repo = tokens[i]
			}
		case strings.HasPrefix(tok, "--repo="):
			pr.Repo = strings.TrimPrefix(tok, "--repo=")
		case strings.HasPrefix(tok, "-R"):
			pr.Repo = strings.TrimPrefix(strings.TrimPrefix(tok, "-R"), "=")
		case strings.HasPrefix(tok, "-"):
			if !strings.Contains(tok, "=") && slices.Contains(mergeValueFlags, tok) {
				i++
			}
		case pr.Selector == "":
			pr.Selector = tok
		}
	}
	return pr
}
