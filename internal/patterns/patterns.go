// Package patterns provides functions for building regex patterns
// to match shell commands in a structured way.
package patterns

import (
	"regexp"
	"strings"
)

// Prefixes tolerated in front of a command.
const (
	// EnvPrefix matches zero or more "env KEY=VALUE " wrappers.
	EnvPrefix = `(?:env\s+\S+=\S+\s+)*`
	// GitConfigPrefix matches zero or more " -c KEY=VALUE" options between
	// "git" and its subcommand.
	GitConfigPrefix = `(?:\s+-c\s+\S+=\S+)*`
)

// Pattern holds a compiled regex and its description.
type Pattern struct {
	Regex   *regexp.Regexp
	Name    string
	Type    string // git, command, regex
	Pattern string // original pattern string
}

// MatchString reports whether s matches the pattern.
func (p Pattern) MatchString(s string) bool {
	return p.Regex != nil && p.Regex.MatchString(s)
}

// quoteWords escapes each word and joins them with flexible whitespace.
// "restore --staged" becomes `restore\s+--staged`.
func quoteWords(phrase string) string {
	words := strings.Fields(phrase)
	escaped := make([]string, len(words))
	for i, w := range words {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(escaped, `\s+`)
}

// BuildGitPattern creates a regex matching a whole sub-command that runs one of
// the given git subcommands with any trailing arguments.
// subcommands=["add","status"] becomes
// `^(?:env\s+\S+=\S+\s+)*git(?:\s+-c\s+\S+=\S+)*\s+(?:add|status)\b.*$`
func BuildGitPattern(subcommands []string) string {
	alts := make([]string, len(subcommands))
	for i, sub := range subcommands {
		alts[i] = quoteWords(sub)
	}
	return `^` + EnvPrefix + `git` + GitConfigPrefix + `\s+(?:` + strings.Join(alts, "|") + `)\b.*$`
}

// BuildCommandPattern creates a regex for a command verb such as "git push" or
// "gh pr merge", anchored at the start and tolerant of env prefixes. When the
// program is git, -c options are also tolerated before the subcommand.
// "gh pr merge" becomes `^(?:env\s+\S+=\S+\s+)*gh\s+pr\s+merge\b`
func BuildCommandPattern(verb string) string {
	words := strings.Fields(verb)
	if len(words) == 0 {
		return `^$`
	}

	program := regexp.QuoteMeta(words[0])
	if words[0] == "git" {
		program += GitConfigPrefix
	}
	rest := ""
	if len(words) > 1 {
		rest = `\s+` + quoteWords(strings.Join(words[1:], " "))
	}
	return `^` + EnvPrefix + program + rest + `\b`
}

// BuildCommitMessagePattern creates an unanchored regex that finds a git
// commit carrying a message flag anywhere in a command line: -m, -F, a short
// cluster ending in one of them (-am), --message or --file. The flag must sit
// in the same chain link as the commit.
func BuildCommitMessagePattern() string {
	shortFlag := `-[A-Za-z]*[mF](?:\s|=|$|["'])`
	longFlag := `--(?:message|file)(?:\s|=|$)`
	return `(?:^|\s)` + EnvPrefix + `git` + GitConfigPrefix + `\s+commit\b[^;&|]*?\s(?:` + shortFlag + `|` + longFlag + `)`
}

// Compile compiles a pattern string into a Pattern with the given name.
// Returns an error if the pattern is invalid.
func Compile(pattern, name string) (Pattern, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Regex: re, Name: name, Type: "regex", Pattern: pattern}, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern, name string) Pattern {
	p, err := Compile(pattern, name)
	if err != nil {
		panic(err)
	}
	return p
}

// MustGit compiles BuildGitPattern(subcommands).
func MustGit(name string, subcommands ...string) Pattern {
	p := MustCompile(BuildGitPattern(subcommands), name)
	p.Type = "git"
	return p
}

// MustCommand compiles BuildCommandPattern(verb).
func MustCommand(name, verb string) Pattern {
	p := MustCompile(BuildCommandPattern(verb), name)
	p.Type = "command"
	return p
}
