package repostate

import (
	"context"
	"sync"
)

// Static is a Resolver with scripted answers. It records every query so
// tests can assert which facts were consulted.
type Static struct {
	Branch    string
	BranchErr error
	Base      string
	BaseErr   error

	mu          sync.Mutex
	branchCalls int
	pullRequests []PullRequest
}

// CurrentBranch returns the scripted branch.
func (s *Static) CurrentBranch(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.branchCalls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.BranchErr != nil {
		return "", s.BranchErr
	}
	return s.Branch, nil
}

// PullRequestBaseBranch returns the scripted base branch.
func (s *Static) PullRequestBaseBranch(ctx context.Context, pr PullRequest) (string, error) {
	s.mu.Lock()
	s.pullRequests = append(s.pullRequests, pr)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.BaseErr != nil {
		return "", s.BaseErr
	}
	return s.Base, nil
}

// BranchCalls returns how many times CurrentBranch was called.
func (s *Static) BranchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branchCalls
}

// PullRequests returns the argument of every PullRequestBaseBranch call.
func (s *Static) PullRequests() []PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PullRequest(nil), s.pullRequests...)
}
