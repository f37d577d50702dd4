package command

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ContainsSubstitution reports whether cmd runs a command to build its own
// arguments: $( ), backticks or a <( ) / >( ) process substitution. Text in
// single quotes and in quoted heredoc bodies is literal to the shell and does
// not count. Input the parser rejects is scanned as plain text.
func ContainsSubstitution(cmd string) bool {
	file, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return strings.Contains(cmd, "$(") || strings.Contains(cmd, "`") ||
			strings.Contains(cmd, "<(") || strings.Contains(cmd, ">(")
	}

	found := false
	syntax.Walk(file, func(node syntax.Node) bool {
		switch node.(type) {
		case *syntax.CmdSubst, *syntax.ProcSubst:
			found = true
		}
		return !found
	})
	return found
}
