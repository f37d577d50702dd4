package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/hook"
	"github.com/dgerlanc/gitguard/internal/testutil"
)

// binaryPath is the gitguard binary built once for the integration tests.
var binaryPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gitguard-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	binaryPath = filepath.Join(dir, constants.AppName)

	build := exec.Command("go", "build", "-o", binaryPath, ".")
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build: %v\n", err)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// runGitguard runs the binary with input on stdin and an isolated config
// directory, returning stdout and the exit code.
func runGitguard(t *testing.T, input string, args ...string) (string, int) {
	t.Helper()

	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, constants.ConfigFileName), []byte(testutil.MinimalTestConfig), constants.FileMode); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binaryPath, append([]string{"--no-audit-log"}, args...)...)
	cmd.Env = append(os.Environ(), constants.EnvConfigDir+"="+configDir)
	cmd.Stdin = strings.NewReader(input)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			exitCode = exitError.ExitCode()
		} else {
			t.Fatalf("failed to run gitguard: %v", err)
		}
	}
	return stdout.String(), exitCode
}

func decode(t *testing.T, output string) hook.SpecificOutput {
	t.Helper()
	var result hook.Output
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("failed to parse output %q: %v", output, err)
	}
	return result.HookSpecificOutput
}

func TestIntegrationAllowed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"git status", testutil.HookInput("git status"), "auto-approve safe git sequence"},
		{"add and status", testutil.HookInput("git add . && git status"), "auto-approve safe git sequence"},
		{"unstage", testutil.HookInput("git restore --staged main.go"), "auto-approve safe git sequence"},
		{"commit after tests", testutil.HookInput(`go test ./... && git commit -m "fix parser"`), "auto-approve git commit"},
		{"commit from file", testutil.HookInput("git commit -F msg.txt"), "auto-approve git commit"},
		{"read-only tool", testutil.ToolInput("mcp__gh__get_issue"), "auto-approve safe gh MCP tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, exitCode := runGitguard(t, tt.input)
			if exitCode != 0 {
				t.Errorf("expected exit 0, got %d", exitCode)
			}
			got := decode(t, output)
			if got.PermissionDecision != "allow" {
				t.Errorf("decision = %q, want allow", got.PermissionDecision)
			}
			if got.PermissionDecisionReason != tt.reason {
				t.Errorf("reason = %q, want %q", got.PermissionDecisionReason, tt.reason)
			}
			if got.HookEventName != hook.EventPreToolUse {
				t.Errorf("hookEventName = %q", got.HookEventName)
			}
		})
	}
}

func TestIntegrationAbstains(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unrelated command", testutil.HookInput("rm -rf /")},
		{"safe git then other", testutil.HookInput("git add . && rm -rf /")},
		{"git push", testutil.HookInput("git push")},
		{"dangerous tool", testutil.ToolInput("mcp__gh__merge_pull_request")},
		{"other surface", testutil.ToolInput("mcp__linear__get_issue")},
		{"empty command", testutil.HookInput("")},
		{"invalid json", "invalid json {{{"},
		{"empty input", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, exitCode := runGitguard(t, tt.input)
			if exitCode != 0 {
				t.Errorf("expected exit 0, got %d", exitCode)
			}
			if output != "" {
				t.Errorf("expected no output, got %q", output)
			}
		})
	}
}

func TestIntegrationProtectBranches(t *testing.T) {
	// The cwd is not a repository, so only refspecs can name a protected
	// branch.
	data, _ := json.Marshal(map[string]any{
		"tool_name":  "Bash",
		"cwd":        t.TempDir(),
		"tool_input": map[string]any{"command": "git push origin HEAD:develop"},
	})

	output, exitCode := runGitguard(t, string(data), constants.HookProtectBranches)
	if exitCode != 0 {
		t.Errorf("expected exit 0, got %d", exitCode)
	}
	got := decode(t, output)
	if got.PermissionDecision != "deny" {
		t.Errorf("decision = %q, want deny", got.PermissionDecision)
	}
	if got.PermissionDecisionReason != "Blocked: pushing to protected branch develop" {
		t.Errorf("reason = %q", got.PermissionDecisionReason)
	}

	data, _ = json.Marshal(map[string]any{
		"tool_name":  "Bash",
		"cwd":        t.TempDir(),
		"tool_input": map[string]any{"command": "git push origin feature/login"},
	})
	if output, _ := runGitguard(t, string(data), constants.HookProtectBranches); output != "" {
		t.Errorf("feature push should abstain, got %q", output)
	}
}

func TestIntegrationDryRun(t *testing.T) {
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, constants.ConfigFileName), []byte(testutil.MinimalTestConfig), constants.FileMode); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(binaryPath, "--no-audit-log", "--dry-run")
	cmd.Env = append(os.Environ(), constants.EnvConfigDir+"="+configDir)
	cmd.Stdin = strings.NewReader(testutil.HookInput("git status"))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("dry run should not print hook JSON, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "ALLOW: git status") {
		t.Errorf("unexpected dry-run output: %q", stderr.String())
	}
}

func TestIntegrationCheck(t *testing.T) {
	output, exitCode := runGitguard(t, "", "check", "-o", "json", "git add -A && git status")
	if exitCode != 0 {
		t.Fatalf("check exited %d", exitCode)
	}
	var report struct {
		Decision string   `json:"decision"`
		Segments []string `json:"segments"`
	}
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("check output is not JSON: %v\n%s", err, output)
	}
	if report.Decision != "allow" || len(report.Segments) != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestIntegrationLongChain(t *testing.T) {
	parts := make([]string, 100)
	for i := range parts {
		parts[i] = "git status"
	}
	output, _ := runGitguard(t, testutil.HookInput(strings.Join(parts, " && ")))
	if got := decode(t, output); got.PermissionDecision != "allow" {
		t.Errorf("decision = %q, want allow", got.PermissionDecision)
	}
}
