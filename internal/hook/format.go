package hook

import (
	"encoding/json"

	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// EventPreToolUse is the hook point gitguard answers.
const EventPreToolUse = "PreToolUse"

// FormatDecision returns the JSON output for v, or "" when v abstains.
func FormatDecision(v verdict.Verdict) string {
	if v.IsAbstain() {
		return ""
	}

	output := Output{
		HookSpecificOutput: SpecificOutput{
			HookEventName:            EventPreToolUse,
			PermissionDecision:       v.Kind.String(),
			PermissionDecisionReason: v.Reason,
		},
	}
	data, err := json.Marshal(output)
	if err != nil {
		// Nothing on stdout falls back to manual approval.
		logger.Debug("failed to marshal decision output", "error", err)
		return ""
	}
	return string(data)
}
