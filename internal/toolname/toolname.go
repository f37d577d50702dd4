// Package toolname classifies structured tool invocations by their
// namespaced identifier, e.g. mcp__gh__list_issues.
package toolname

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/dgerlanc/gitguard/internal/rules"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// DangerousKeywords excludes a tool from auto-approval when any of them
// appears anywhere in its name. Matching is a case-sensitive substring test,
// so "list_refs" or "get_token_scopes" are excluded too.
var DangerousKeywords = []string{
	"merge", "delete", "transfer", "archive", "secret", "token", "ref", "workflow",
}

// Surface is a read-only tool namespace.
type Surface struct {
	Name    string // used in the verdict reason, e.g. "gh MCP"
	Pattern string // glob over the tool identifier, e.g. "mcp__gh__*"
	glob    glob.Glob
}

// DefaultSurfaces is the built-in set of read-only surfaces.
var DefaultSurfaces = []Surface{
	{Name: "gh MCP", Pattern: "mcp__gh__*"},
}

// Classifier decides on tool identifiers.
type Classifier struct {
	surfaces []Surface
}

// New compiles the surface globs. An empty list selects DefaultSurfaces.
func New(surfaces []Surface) (*Classifier, error) {
	if len(surfaces) == 0 {
		surfaces = DefaultSurfaces
	}

	compiled := make([]Surface, 0, len(surfaces))
	for _, s := range surfaces {
		if s.Pattern == "" {
			return nil, fmt.Errorf("surface %q has an empty pattern", s.Name)
		}
		g, err := glob.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern for surface %q: %w", s.Name, err)
		}
		s.glob = g
		compiled = append(compiled, s)
	}
	return &Classifier{surfaces: compiled}, nil
}

// Default classifies against DefaultSurfaces.
var Default = MustNew(DefaultSurfaces)

// MustNew is like New but panics on an invalid surface.
func MustNew(surfaces []Surface) *Classifier {
	c, err := New(surfaces)
	if err != nil {
		panic(err)
	}
	return c
}

// Surfaces returns the compiled surfaces.
func (c *Classifier) Surfaces() []Surface {
	return c.surfaces
}

// DangerousKeyword returns the first dangerous keyword contained in name.
func DangerousKeyword(name string) (string, bool) {
	for _, kw := range DangerousKeywords {
		if strings.Contains(name, kw) {
			return kw, true
		}
	}
	return "", false
}

// Classify allows a tool on a known surface whose name holds no dangerous
// keyword and abstains on everything else.
func (c *Classifier) Classify(name string) verdict.Verdict {
	if name == "" {
		return verdict.Abstain()
	}
	if _, bad := DangerousKeyword(name); bad {
		return verdict.Abstain()
	}
	for _, s := range c.surfaces {
		if s.glob.Match(name) {
			return verdict.Allow(rules.NameSafeToolSurface, "auto-approve safe "+s.Name+" tool")
		}
	}
	return verdict.Abstain()
}
