// Package repostate answers questions about live repository state that the
// branch-protection rules need: the checked-out branch and the base branch
// of a pull request.
package repostate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Default query budgets.
const (
	DefaultBranchTimeout = 5 * time.Second
	DefaultPRTimeout     = 10 * time.Second
)

var (
	// ErrDetachedHEAD is returned when HEAD does not point at a branch.
	ErrDetachedHEAD = errors.New("detached HEAD")

	// ErrNoPullRequest is returned when gh reports no base branch.
	ErrNoPullRequest = errors.New("no pull request for the current context")
)

// Resolver is the source of repository facts. Implementations must respect
// ctx and must not retry.
type Resolver interface {
	// CurrentBranch returns the short name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
	// PullRequestBaseBranch returns the target branch of the pull request pr.
	PullRequestBaseBranch(ctx context.Context, pr PullRequest) (string, error)
}

// PullRequest names a pull request the way gh does. The zero value is the
// pull request of the current branch in the working directory's repository.
type PullRequest struct {
	// Selector is a number, URL or head branch.
	Selector string
	// Repo is OWNER/REPO (optionally HOST/OWNER/REPO) when the pull request
	// lives in another repository.
	Repo string
}

func (pr PullRequest) String() string {
	s := pr.Selector
	if s == "" {
		s = "current branch"
	}
	if pr.Repo != "" {
		s += " in " + pr.Repo
	}
	return s
}

// runFunc executes name with args in dir and returns stdout.
type runFunc func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Git resolves state by running the git and gh command-line tools.
type Git struct {
	// Dir is the working directory for both tools; empty means the process cwd.
	Dir string
	// GitPath and GhPath name the executables. Empty means "git" / "gh".
	GitPath string
	GhPath  string
	// Query budgets. Zero selects the defaults.
	BranchTimeout time.Duration
	PRTimeout     time.Duration

	run runFunc
}

// NewGit returns a Git resolver for dir with default tools and budgets.
func NewGit(dir string) *Git {
	return &Git{Dir: dir}
}

func (g *Git) runner() runFunc {
	if g.run != nil {
		return g.run
	}
	return runCommand
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func orName(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

// query runs one bounded command and returns its trimmed stdout.
func (g *Git) query(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := g.runner()(ctx, g.Dir, name, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s %s timed out after %s: %w", name, args[0], timeout, ctx.Err())
		}
		return "", fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CurrentBranch runs git rev-parse --abbrev-ref HEAD.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := g.query(ctx, orDefault(g.BranchTimeout, DefaultBranchTimeout),
		orName(g.GitPath, "git"), "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	if branch == "HEAD" {
		return "", ErrDetachedHEAD
	}
	return branch, nil
}

// PullRequestBaseBranch runs gh pr view [selector] [--repo repo] --json baseRefName.
func (g *Git) PullRequestBaseBranch(ctx context.Context, pr PullRequest) (string, error) {
	args := []string{"pr", "view"}
	if pr.Selector != "" {
		args = append(args, pr.Selector)
	}
	if pr.Repo != "" {
		args = append(args, "--repo", pr.Repo)
	}
	args = append(args, "--json", "baseRefName", "-q", ".baseRefName")

	base, err := g.query(ctx, orDefault(g.PRTimeout, DefaultPRTimeout), orName(g.GhPath, "gh"), args...)
	if err != nil {
		return "", fmt.Errorf("get pull request base: %w", err)
	}
	if base == "" {
		return "", ErrNoPullRequest
	}
	return base, nil
}
