package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/hook"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/dgerlanc/gitguard/internal/policy"
	"github.com/spf13/cobra"
)

// hookCommands run a single hook set, one per original hook script.
var hookCommands = []struct {
	name  string
	short string
}{
	{constants.HookProtectBranches, "Deny pushes and merges that touch a protected branch"},
	{constants.HookGitSafe, "Allow safe git add/status/commit sequences"},
	{constants.HookToolSurface, "Allow read-only gh MCP tools"},
}

func init() {
	for _, h := range hookCommands {
		name := h.name
		rootCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: h.short,
			Long: fmt.Sprintf(`Run only the %s hook set.

Reads a PreToolUse JSON object from stdin and writes the decision to stdout.`, name),
			Args: cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				runHooks(cmd, name)
			},
		})
	}
}

// runHook is the default command: every hook set enabled in the config.
func runHook(cmd *cobra.Command, args []string) {
	runHooks(cmd)
}

// runHooks processes stdin with the given hook sets, or the configured ones
// when none are given. Failures print nothing, which leaves the decision to
// the user.
func runHooks(cmd *cobra.Command, hooks ...string) {
	engine, err := policy.FromConfig(config.Get(), hooks...)
	if err != nil {
		logger.Error("failed to build policy engine", "error", err)
		return
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result := hook.Process(ctx, cmd.InOrStdin(), engine)

	if dryRun {
		fmt.Fprintln(cmd.ErrOrStderr(), describe(result))
		return
	}

	if result.Output != "" {
		fmt.Fprint(cmd.OutOrStdout(), result.Output)
	}
}

// describe renders a result for --dry-run.
func describe(r hook.Result) string {
	subject := r.Input.Command()
	if r.Decision.Shape == policy.ShapeTool {
		subject = r.Input.ToolName
	}
	if subject == "" {
		subject = "(nothing to judge)"
	}

	if r.Decision.IsAbstain() {
		return fmt.Sprintf("ABSTAIN: %s", subject)
	}
	return fmt.Sprintf("%s: %s (rule: %s, reason: %s)",
		strings.ToUpper(r.Decision.Kind.String()), subject, r.Decision.Rule, r.Decision.Reason)
}
