// Package cmd implements the CLI commands for gitguard.
package cmd

import (
	"os"

	"github.com/dgerlanc/gitguard/internal/audit"
	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	dryRun     bool
	profile    string
	noAuditLog bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitguard",
	Short: "PreToolUse hook guarding git operations and read-only tool calls",
	Long: `gitguard is a PreToolUse hook for coding agents. It reads one tool call as
JSON from stdin and answers with an allow or deny decision on stdout, or with
nothing at all when it has no opinion and the agent should ask the user.

It runs three hook sets:
  protect-branches  deny pushes and merges that touch main, master, dev,
                    develop or development
  git-safe          allow chains of git add/status/commit/restore --staged
                    and git commit with a message
  gh-mcp            allow read-only gh MCP tools

Called without a subcommand it runs every hook set enabled in the config.
Logs go to stderr at error level; use --verbose or GITGUARD_LOG_LEVEL=info|debug
for more.

Usage in ~/.claude/settings.json:
  "hooks": {
    "PreToolUse": [{
      "matcher": "Bash|mcp__gh__.*",
      "hooks": [{"type": "command", "command": "gitguard"}]
    }]
  }`,
	// Run the hook by default when no subcommand is given
	Run: runHook,
	// Silence usage on errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initApp)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (debug logging)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Print the decision to stderr instead of hook JSON")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Config profile to use (or set "+constants.EnvProfile+" env var)")
	rootCmd.PersistentFlags().BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	if profile == "" {
		profile = os.Getenv(constants.EnvProfile)
	}

	// Several hook processes may share a terminal or log file.
	logger.Init(logger.Options{
		Verbose: verbose,
		Level:   os.Getenv(constants.EnvLogLevel),
		Attrs:   []any{"pid", os.Getpid()},
	})

	if profile != "" {
		config.SetProfile(profile)
	}

	// A config error is already recorded for the audit entry; the hook
	// carries on with the embedded defaults.
	config.Init()
	cfg := config.Get()

	if err := audit.Init(audit.Options{
		Path:     cfg.AuditPath,
		Disable:  noAuditLog,
		MaxSize:  cfg.AuditMaxSize,
		Compress: cfg.AuditCompress,
	}); err != nil {
		logger.Debug("audit logging unavailable", "error", err)
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsDryRun returns whether dry-run mode is enabled
func IsDryRun() bool {
	return dryRun
}

// GetProfile returns the current profile name
func GetProfile() string {
	return profile
}
