// Package testutil provides shared test helpers for gitguard tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/constants"
)

// SetupTestConfig points GITGUARD_CONFIG at a temporary directory, writes
// configContent as config.toml when non-empty and loads it. Returns the
// directory and a cleanup function that should be deferred.
func SetupTestConfig(t *testing.T, configContent string) (string, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	os.Setenv(constants.EnvConfigDir, tmpDir)

	if configContent != "" {
		configPath := filepath.Join(tmpDir, constants.ConfigFileName)
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	config.Init()

	return tmpDir, func() {
		os.Unsetenv(constants.EnvConfigDir)
		config.Reset()
	}
}

// HookInput builds the JSON a shell tool call sends to the hook.
func HookInput(command string) string {
	data, _ := json.Marshal(map[string]any{
		"session_id":  "test-session",
		"tool_use_id": "toolu_test",
		"tool_name":   "Bash",
		"tool_input":  map[string]any{"command": command},
	})
	return string(data)
}

// ToolInput builds the JSON a non-shell tool call sends to the hook.
func ToolInput(name string) string {
	data, _ := json.Marshal(map[string]any{
		"session_id":  "test-session",
		"tool_use_id": "toolu_test",
		"tool_name":   name,
		"tool_input":  map[string]any{},
	})
	return string(data)
}

// MinimalTestConfig enables only the allow-list hook sets, so tests never
// shell out to git or gh.
const MinimalTestConfig = `
[hooks]
enabled = ["git-safe", "gh-mcp"]

[audit]
max_size = 0
`
