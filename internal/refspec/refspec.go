// Package refspec finds where a git push sends its commits.
package refspec

import (
	"slices"
	"strings"
)

// ProtectedBranches may never receive an automatically approved push or merge.
var ProtectedBranches = []string{"main", "master", "dev", "develop", "development"}

// IsProtected reports whether branch is in ProtectedBranches. The comparison
// is exact and case-sensitive; an empty name is never protected.
func IsProtected(branch string) bool {
	return branch != "" && slices.Contains(ProtectedBranches, branch)
}

const headsPrefix = "refs/heads/"

// Refspec is one source:destination argument of a push.
type Refspec struct {
	Raw         string // token as written, including any leading +
	Force       bool
	Source      string
	Destination string // branch short name
}

// Push is the decoded argument list of a push command.
type Push struct {
	Found    bool // a push verb token was present
	Remote   string
	Refspecs []Refspec
}

// Parse decodes a single refspec token.
func Parse(token string) Refspec {
	rs := Refspec{Raw: token}
	spec := strings.TrimLeft(token, "+")
	rs.Force = spec != token

	if src, dst, ok := strings.Cut(spec, ":"); ok {
		rs.Source = src
		rs.Destination = dst
	} else {
		rs.Source = spec
		rs.Destination = spec
	}

	if strings.HasPrefix(rs.Destination, headsPrefix) {
		rs.Destination = rs.Destination[strings.LastIndex(rs.Destination, "/")+1:]
	}
	return rs
}

// Extract reads the remote and refspecs that follow the last "push" token.
// Options directly after the verb are skipped to reach the remote; after the
// remote every token not starting with "-" is a refspec.
func Extract(tokens []string) Push {
	verb := -1
	for i, tok := range tokens {
		if tok == "push" {
			verb = i
		}
	}
	if verb < 0 {
		return Push{}
	}

	p := Push{Found: true}
	j := verb + 1
	for j < len(tokens) && strings.HasPrefix(tokens[j], "-") {
		j++
	}
	if j >= len(tokens) {
		return p
	}
	p.Remote = tokens[j]

	for _, tok := range tokens[j+1:] {
		if strings.HasPrefix(tok, "-") {
			continue
		}
		p.Refspecs = append(p.Refspecs, Parse(tok))
	}
	return p
}

// Destinations returns every resolved destination in argument order.
func (p Push) Destinations() []string {
	out := make([]string, len(p.Refspecs))
	for i, rs := range p.Refspecs {
		out[i] = rs.Destination
	}
	return out
}

// ProtectedDestination returns the first destination that is a protected branch.
func (p Push) ProtectedDestination() (string, bool) {
	for _, rs := range p.Refspecs {
		if IsProtected(rs.Destination) {
			return rs.Destination, true
		}
	}
	return "", false
}
