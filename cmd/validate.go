package cmd

import (
	"fmt"
	"strings"

	"github.com/dgerlanc/gitguard/internal/audit"
	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/policy"
	"github.com/dgerlanc/gitguard/internal/refspec"
	"github.com/dgerlanc/gitguard/internal/rules"
	"github.com/dgerlanc/gitguard/internal/toolname"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the active rules",
	Long: `Validate loads the gitguard configuration and displays the rules, tool
surfaces and protected branches that will be used.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which hook sets and surfaces are active
- Debugging why a command was or was not approved`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := config.InitError(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}
	engine, err := policy.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Configuration valid!")
	if path := config.GetConfigPath(); path != "" {
		fmt.Fprintf(w, "Config file: %s\n", path)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Enabled hooks: %s\n", strings.Join(engine.Hooks(), ", "))
	fmt.Fprintf(w, "Strict splitting: %v\n", cfg.StrictSplit)
	fmt.Fprintf(w, "Block command substitution: %v\n", cfg.BlockSubstitution)
	fmt.Fprintf(w, "Resolver timeouts: branch %s, pull request %s\n", cfg.BranchTimeout, cfg.PRTimeout)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Git rules: %d (%s)\n", len(rules.GitSafe), strings.Join(rules.GitSafe.Names(), ", "))
	for _, r := range rules.GitSafe {
		fmt.Fprintf(w, "  - %s (%s, %s): %s\n", r.Name, r.Decision, r.Scope, r.Pattern.Pattern)
	}
	fmt.Fprintf(w, "Push and merge checks: %s, %s\n", rules.PushVerb.Pattern, rules.MergeVerb.Pattern)
	fmt.Fprintf(w, "Protected branches: %s\n", strings.Join(refspec.ProtectedBranches, ", "))
	fmt.Fprintln(w)

	surfaces := engine.Tools().Surfaces()
	fmt.Fprintf(w, "Tool surfaces: %d\n", len(surfaces))
	for _, s := range surfaces {
		fmt.Fprintf(w, "  - %s: %s\n", s.Name, s.Pattern)
	}
	fmt.Fprintf(w, "Dangerous keywords: %s\n", strings.Join(toolname.DangerousKeywords, ", "))
	fmt.Fprintln(w)

	auditPath := cfg.AuditPath
	if auditPath == "" {
		auditPath, _ = audit.DefaultLogPath()
	}
	if auditPath != "" {
		rotated, _ := audit.RotatedFiles(auditPath)
		fmt.Fprintf(w, "Audit log: %s (%d rotated)\n", auditPath, len(rotated))
	}
	return nil
}
