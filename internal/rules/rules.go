// Package rules holds the declarative command rules: a named pattern, the
// scope it is checked against and the verdict it yields on a match.
package rules

import (
	"github.com/dgerlanc/gitguard/internal/command"
	"github.com/dgerlanc/gitguard/internal/patterns"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// Scope says what a rule's pattern is matched against.
type Scope int

const (
	// EverySegment requires every non-empty chain link to match.
	EverySegment Scope = iota
	// WholeCommand matches anywhere in the normalized, unsplit command.
	WholeCommand
)

func (s Scope) String() string {
	if s == WholeCommand {
		return "command"
	}
	return "every-segment"
}

// Rule is a named predicate plus the verdict it produces.
type Rule struct {
	Name        string
	Description string
	Scope       Scope
	Pattern     patterns.Pattern
	Decision    verdict.Kind
	Reason      string
}

// Matches reports whether the rule's predicate holds for a command.
func (r Rule) Matches(normalized string, segments []command.SubCommand) bool {
	switch r.Scope {
	case WholeCommand:
		return r.Pattern.MatchString(normalized)
	default:
		matched := 0
		for _, seg := range segments {
			if seg.Raw == "" {
				continue
			}
			if !r.Pattern.MatchString(seg.Raw) {
				return false
			}
			matched++
		}
		return matched > 0
	}
}

// Verdict returns the verdict the rule produces when it matches.
func (r Rule) Verdict() verdict.Verdict {
	return verdict.Verdict{Kind: r.Decision, Rule: r.Name, Reason: r.Reason}
}

// Set is an ordered collection of rules.
type Set []Rule

// Evaluate returns the verdict of the first matching rule. Deny rules are
// tried before any allow rule regardless of their position in the set.
func (s Set) Evaluate(normalized string, segments []command.SubCommand) verdict.Verdict {
	for _, kind := range []verdict.Kind{verdict.KindDeny, verdict.KindAllow} {
		for _, r := range s {
			if r.Decision != kind {
				continue
			}
			if r.Matches(normalized, segments) {
				return r.Verdict()
			}
		}
	}
	return verdict.Abstain()
}

// Names returns the rule names in order.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, r := range s {
		names[i] = r.Name
	}
	return names
}
