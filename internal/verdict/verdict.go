// Package verdict defines the outcome of classifying one command or tool invocation.
package verdict

// Kind is the decision carried by a Verdict.
type Kind int

const (
	// KindAbstain means no opinion; the caller's default (manual approval) applies.
	KindAbstain Kind = iota
	KindAllow
	KindDeny
)

// String returns the hook protocol spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindAllow:
		return "allow"
	case KindDeny:
		return "deny"
	default:
		return "abstain"
	}
}

// Verdict is the single result produced per command per hook invocation.
// Allow and Deny always carry a non-empty Reason.
type Verdict struct {
	Kind   Kind
	Rule   string // name of the rule that decided, empty for Abstain
	Reason string
}

// Allow returns an allow verdict attributed to rule.
func Allow(rule, reason string) Verdict {
	return Verdict{Kind: KindAllow, Rule: rule, Reason: reason}
}

// Deny returns a deny verdict attributed to rule.
func Deny(rule, reason string) Verdict {
	return Verdict{Kind: KindDeny, Rule: rule, Reason: reason}
}

// Abstain returns the no-opinion verdict.
func Abstain() Verdict {
	return Verdict{}
}

// IsAbstain reports whether v renders no decision.
func (v Verdict) IsAbstain() bool {
	return v.Kind == KindAbstain
}
