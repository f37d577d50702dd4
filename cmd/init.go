package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/spf13/cobra"
)

var (
	initForce          bool
	initConfigOnly     bool
	initClaudeSettings string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gitguard configuration and register the hook",
	Long: `Initialize writes the default gitguard configuration file and registers
gitguard as a PreToolUse hook in ~/.claude/settings.json.

The config file is written to ~/.config/gitguard/config.toml (or the directory
named by the GITGUARD_CONFIG environment variable). With --profile the file is
<profile>.toml in the same directory. An existing file is left alone unless
--force is given.

The hook entry is added only if no gitguard hook is registered yet; other
settings and hooks are preserved. Use --config-only to skip this step.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().BoolVar(&initConfigOnly, "config-only", false, "Only write the config file, do not touch agent settings")
	initCmd.Flags().StringVar(&initClaudeSettings, "claude-settings", "", "Path to the agent settings file (default: ~/.claude/settings.json)")
}

func runInit(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	name := constants.ConfigFileName
	if p := config.GetProfile(); p != "" {
		name = p + ".toml"
	}
	configPath := filepath.Join(configDir, name)

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(w, "Config already exists at %s (use --force to overwrite)\n", configPath)
	} else {
		if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, config.GetDefaultConfig(), constants.FileMode); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		fmt.Fprintf(w, "Configuration written to: %s\n", configPath)
	}

	if !initConfigOnly {
		if err := configureClaudeSettings(w); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "Run 'gitguard validate' to verify your configuration.")
	return nil
}

// configureClaudeSettings adds the gitguard hook to the settings file unless
// it is already registered.
func configureClaudeSettings(w io.Writer) error {
	settingsPath := initClaudeSettings
	if settingsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		settingsPath = filepath.Join(home, ".claude", "settings.json")
	}

	var settings map[string]any
	data, err := os.ReadFile(settingsPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse %s: %w", settingsPath, err)
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read %s: %w", settingsPath, err)
	}

	if isHookPresent(settings) {
		fmt.Fprintf(w, "gitguard hook already registered in %s\n", settingsPath)
		return nil
	}

	settings = addHook(settings)
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(settingsPath), constants.DirMode); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(settingsPath, append(out, '\n'), constants.FileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", settingsPath, err)
	}
	fmt.Fprintf(w, "Registered gitguard hook in %s\n", settingsPath)
	return nil
}
