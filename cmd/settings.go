package cmd

import (
	"path/filepath"
	"strings"

	"github.com/dgerlanc/gitguard/internal/constants"
)

// hookMatcher selects the tools gitguard has an opinion on.
const hookMatcher = "Bash|mcp__gh__.*"

// isHookPresent reports whether any PreToolUse entry already runs gitguard.
func isHookPresent(settings map[string]any) bool {
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	entries, ok := hooks["PreToolUse"].([]any)
	if !ok {
		return false
	}

	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		list, ok := m["hooks"].([]any)
		if !ok {
			continue
		}
		for _, h := range list {
			hm, ok := h.(map[string]any)
			if !ok {
				continue
			}
			command, _ := hm["command"].(string)
			if fields := strings.Fields(command); len(fields) > 0 && filepath.Base(fields[0]) == constants.AppName {
				return true
			}
		}
	}
	return false
}

// addHook appends a PreToolUse entry running gitguard, keeping everything else.
func addHook(settings map[string]any) map[string]any {
	if settings == nil {
		settings = map[string]any{}
	}
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = map[string]any{}
		settings["hooks"] = hooks
	}
	entries, _ := hooks["PreToolUse"].([]any)

	hooks["PreToolUse"] = append(entries, map[string]any{
		"matcher": hookMatcher,
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": constants.AppName,
			},
		},
	})
	return settings
}
