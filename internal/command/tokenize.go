package command

import (
	"strings"

	"github.com/google/shlex"
)

// Tokenize splits a command into words. Quoted runs become one word with the
// quotes removed, so `git push origin "feat:main"` yields feat:main. Input that
// shlex rejects (an unbalanced quote) falls back to plain whitespace splitting.
func Tokenize(s string) []string {
	tokens, err := shlex.Split(s)
	if err != nil || len(tokens) == 0 {
		return strings.Fields(s)
	}
	return tokens
}
