package hook

/*
Data flow in the hook package:

  Input (JSON from the agent on stdin)
    → Process()
      → policy.Request (tool name, command, cwd)
      → policy.Engine.Explain() → policy.Decision
      → FormatDecision() → Output JSON, or nothing on abstain
      → audit.Log()
    → Result (returned to the command layer)
*/

import (
	"encoding/json"

	"github.com/dgerlanc/gitguard/internal/policy"
)

// Input is the JSON object the agent sends to a PreToolUse hook.
type Input struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
	PermissionMode string          `json:"permission_mode"`
	HookEventName  string          `json:"hook_event_name"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolUseID      string          `json:"tool_use_id"`
}

// ToolInputData holds the fields of tool_input that a shell tool carries.
// Other tools send arbitrary objects, so it is decoded leniently.
type ToolInputData struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

// Command returns tool_input.command, or "" when absent or not a string.
func (in Input) Command() string {
	if len(in.ToolInput) == 0 {
		return ""
	}
	var data ToolInputData
	if err := json.Unmarshal(in.ToolInput, &data); err != nil {
		return ""
	}
	return data.Command
}

// Request converts the input into a policy request.
func (in Input) Request() policy.Request {
	return policy.Request{
		ToolName: in.ToolName,
		Command:  in.Command(),
		Cwd:      in.Cwd,
	}
}

// Output is the JSON response written on a decision.
type Output struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

// SpecificOutput contains the permission decision.
// PermissionDecision is either "allow" or "deny".
type SpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// Result is the outcome of one hook invocation.
type Result struct {
	Input    Input
	Decision policy.Decision
	// Output is the JSON to print; empty means abstain (print nothing).
	Output string
}
