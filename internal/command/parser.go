package command

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrUnparseable is returned when a command cannot be parsed by the strict splitter.
var ErrUnparseable = errors.New("unparseable command")

// SplitStrict splits a raw command with a real shell parser. Every simple
// statement becomes a segment: links of && || ; and newline chains, pipeline
// stages, bodies of subshells, blocks and compound statements, and the
// commands inside $( ) and <( ). Quoted separators stay inside their word.
//
// Pass the raw command, not the normalized one; newlines are separators here.
func SplitStrict(cmd string) ([]SubCommand, error) {
	if strings.TrimSpace(cmd) == "" {
		return nil, nil
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	printer := syntax.NewPrinter()
	var segments []SubCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		stmt, ok := node.(*syntax.Stmt)
		if !ok || stmt.Cmd == nil || isCompound(stmt.Cmd) {
			return true
		}
		segments = append(segments, stmtSegment(printer, stmt))
		return true
	})

	if len(segments) == 0 {
		// Comment-only or redirect-only input still counts as one link.
		segments = append(segments, newSubCommand(Normalize(cmd)))
	}
	return segments, nil
}

// isCompound reports whether c only groups other statements.
func isCompound(c syntax.Command) bool {
	switch c.(type) {
	case *syntax.BinaryCmd, *syntax.Subshell, *syntax.Block,
		*syntax.IfClause, *syntax.WhileClause, *syntax.ForClause, *syntax.CaseClause,
		*syntax.TimeClause, *syntax.CoprocClause, *syntax.FuncDecl:
		return true
	}
	return false
}

// stmtSegment renders a simple statement with its redirections. Call words
// are resolved from the tree so quoting never has to be lexed twice.
func stmtSegment(printer *syntax.Printer, stmt *syntax.Stmt) SubCommand {
	var buf strings.Builder
	printer.Print(&buf, stmt)
	raw := Normalize(buf.String())

	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return SubCommand{Raw: raw, Tokens: Tokenize(raw)}
	}

	tokens := make([]string, 0, len(call.Assigns)+len(call.Args))
	for _, as := range call.Assigns {
		if as.Name == nil {
			continue
		}
		tok := as.Name.Value + "="
		if as.Value != nil {
			tok += wordText(printer, as.Value)
		}
		tokens = append(tokens, tok)
	}
	for _, w := range call.Args {
		tokens = append(tokens, wordText(printer, w))
	}
	return SubCommand{Raw: raw, Tokens: tokens}
}

// wordText returns the value of w with quotes removed. Parts that only the
// shell can expand ($VAR, $(cmd)) are kept as source text.
func wordText(printer *syntax.Printer, w *syntax.Word) string {
	if lit := w.Lit(); lit != "" {
		return lit
	}

	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				if lit, ok := inner.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				} else {
					printer.Print(&sb, inner)
				}
			}
		default:
			printer.Print(&sb, part)
		}
	}
	return sb.String()
}
