// gitguard - PreToolUse hook guarding git operations and read-only tool calls
//
// The hook denies pushes and pull request merges that touch a protected
// branch (main, master, dev, develop, development), allows sequences of safe
// git commands and commits with a message, and allows read-only gh MCP tools.
// Everything else gets no output, so the agent falls back to asking the user.
//
// Usage in ~/.claude/settings.json:
//
//	"hooks": {
//	  "PreToolUse": [{
//	    "matcher": "Bash|mcp__gh__.*",
//	    "hooks": [{"type": "command", "command": "gitguard"}]
//	  }]
//	}
//
// Test:
//
//	echo '{"tool_name": "Bash", "tool_input": {"command": "git add . && git status"}}' | gitguard
package main

import (
	"os"

	"github.com/dgerlanc/gitguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
