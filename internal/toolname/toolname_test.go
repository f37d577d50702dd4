package toolname

import (
	"testing"

	"github.com/dgerlanc/gitguard/internal/verdict"
)

func TestClassifyDefault(t *testing.T) {
	c := Default

	tests := []struct {
		name string
		tool string
		want verdict.Kind
	}{
		{"list issues", "mcp__gh__list_issues", verdict.KindAllow},
		{"get pull request", "mcp__gh__get_pull_request", verdict.KindAllow},
		{"search code", "mcp__gh__search_code", verdict.KindAllow},
		{"merge", "mcp__gh__merge_pr", verdict.KindAbstain},
		{"delete", "mcp__gh__delete_branch", verdict.KindAbstain},
		{"transfer", "mcp__gh__transfer_issue", verdict.KindAbstain},
		{"archive", "mcp__gh__archive_repo", verdict.KindAbstain},
		{"secret", "mcp__gh__list_secrets", verdict.KindAbstain},
		{"token", "mcp__gh__get_token", verdict.KindAbstain},
		{"ref substring", "mcp__gh__get_preferences", verdict.KindAbstain},
		{"workflow", "mcp__gh__list_workflow_runs", verdict.KindAbstain},
		{"case sensitive keyword", "mcp__gh__MERGE_info", verdict.KindAllow},
		{"other surface", "mcp__jira__list_issues", verdict.KindAbstain},
		{"prefix must match", "x_mcp__gh__list_issues", verdict.KindAbstain},
		{"bash", "Bash", verdict.KindAbstain},
		{"empty", "", verdict.KindAbstain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.tool)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.tool, got.Kind, tt.want)
			}
		})
	}
}

func TestClassifyReason(t *testing.T) {
	c := Default
	got := c.Classify("mcp__gh__list_issues")
	if got.Reason != "auto-approve safe gh MCP tool" {
		t.Errorf("reason = %q", got.Reason)
	}
}

func TestCustomSurfaces(t *testing.T) {
	c, err := New([]Surface{
		{Name: "gh MCP", Pattern: "mcp__gh__*"},
		{Name: "linear", Pattern: "mcp__linear__{list,get}_*"},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := c.Classify("mcp__linear__list_issues"); got.Reason != "auto-approve safe linear tool" {
		t.Errorf("linear list = %+v", got)
	}
	if got := c.Classify("mcp__linear__create_issue"); !got.IsAbstain() {
		t.Errorf("linear create should abstain, got %+v", got)
	}
	if len(c.Surfaces()) != 2 {
		t.Errorf("expected 2 surfaces, got %d", len(c.Surfaces()))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New([]Surface{{Name: "empty"}}); err == nil {
		t.Error("expected error for empty pattern")
	}
	if _, err := New([]Surface{{Name: "bad", Pattern: "mcp__[gh"}}); err == nil {
		t.Error("expected error for invalid glob")
	}
}

func TestDangerousKeyword(t *testing.T) {
	kw, ok := DangerousKeyword("mcp__gh__list_refs")
	if !ok || kw != "ref" {
		t.Errorf("DangerousKeyword = %q, %v", kw, ok)
	}
	if _, ok := DangerousKeyword("mcp__gh__list_issues"); ok {
		t.Error("list_issues should not contain a dangerous keyword")
	}
}
