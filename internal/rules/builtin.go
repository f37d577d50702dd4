package rules

import (
	"github.com/dgerlanc/gitguard/internal/patterns"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// Rule names
const (
	NameSafeSequence       = "git-safe-sequence"
	NameCommitWithMessage  = "git-commit-message"
	NamePushFromProtected  = "push-from-protected"
	NamePushToProtected    = "push-to-protected"
	NameMergeIntoProtected = "merge-into-protected"
	NameSafeToolSurface    = "safe-tool-surface"
)

// SafeGitSubcommands are the git subcommands that only touch the index,
// the working tree status or the local history.
var SafeGitSubcommands = []string{"add", "status", "commit", "restore --staged"}

// SafeSequence allows a chain made only of safe git subcommands.
var SafeSequence = Rule{
	Name:        NameSafeSequence,
	Description: "every link is git add, status, commit or restore --staged",
	Scope:       EverySegment,
	Pattern:     patterns.MustGit(NameSafeSequence, SafeGitSubcommands...),
	Decision:    verdict.KindAllow,
	Reason:      "auto-approve safe git sequence",
}

// CommitWithMessage allows any command containing a git commit with a
// message flag, even alongside links the sequence rule would refuse.
var CommitWithMessage = Rule{
	Name:        NameCommitWithMessage,
	Description: "git commit with -m / -F anywhere in the command",
	Scope:       WholeCommand,
	Pattern:     patterns.MustCompile(patterns.BuildCommitMessagePattern(), NameCommitWithMessage),
	Decision:    verdict.KindAllow,
	Reason:      "auto-approve git commit",
}

// GitSafe is the rule set of the git-safe hook, in precedence order.
var GitSafe = Set{SafeSequence, CommitWithMessage}

// Verbs that need live repository state before a verdict can be given.
var (
	PushVerb  = patterns.MustCommand("git push", "git push")
	MergeVerb = patterns.MustCommand("gh pr merge", "gh pr merge")
)
