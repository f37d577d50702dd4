// Package command turns raw shell text into the normalized string and the
// ordered sub-commands that the policy rules inspect.
//
// Parsing is deliberately shallow. The agent emits chains of simple commands
// joined by &&, || and ; with optional env and git -c prefixes, and that is
// the only shape this package models.
package command

import (
	"regexp"
	"strings"
)

// SubCommand is one link of a command chain.
type SubCommand struct {
	Raw    string
	Tokens []string
}

// chainOperator matches the permissive chain separators together with the
// whitespace around them.
var chainOperator = regexp.MustCompile(`\s*(?:&&|\|\||;)\s*`)

// Normalize collapses every run of whitespace to a single space and trims
// both ends. Newlines and tabs count as whitespace.
func Normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Split segments a normalized command on &&, || and ; and drops empty
// segments. Quoting is not honoured: a separator inside a quoted string still
// splits. Non-blank input always yields at least one segment.
func Split(normalized string) []SubCommand {
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	var segments []SubCommand
	for _, part := range chainOperator.Split(normalized, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments = append(segments, newSubCommand(part))
	}

	// Input made only of operators ("&&", ";;") has no words at all; keep it
	// whole so callers still see one segment.
	if len(segments) == 0 {
		segments = append(segments, newSubCommand(strings.TrimSpace(normalized)))
	}
	return segments
}

func newSubCommand(raw string) SubCommand {
	return SubCommand{Raw: raw, Tokens: Tokenize(raw)}
}

// Raws returns the raw text of each segment.
func Raws(segments []SubCommand) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Raw
	}
	return out
}
