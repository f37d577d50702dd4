package audit

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultLogPath(t *testing.T) {
	path, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".local", "share", "gitguard", "audit.log")
	if path != expected {
		t.Errorf("DefaultLogPath() = %q, want %q", path, expected)
	}
}

func TestInit(t *testing.T) {
	defer Reset()

	logPath := filepath.Join(t.TempDir(), "subdir", "audit.log")
	if err := Init(Options{Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !IsEnabled() {
		t.Error("expected audit logging to be enabled")
	}
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("audit log file was not created")
	}
}

func TestInitDisabled(t *testing.T) {
	defer Reset()

	if err := Init(Options{Disable: true}); err != nil {
		t.Errorf("Init(Disable) error = %v", err)
	}
	if IsEnabled() {
		t.Error("expected audit logging to be disabled")
	}
}

func TestLog(t *testing.T) {
	defer Reset()

	logPath := filepath.Join(t.TempDir(), "audit.log")
	if err := Init(Options{Path: logPath}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	entries := []Entry{
		{
			Hooks:    []string{"git-safe"},
			Kind:     "command",
			Command:  "git add . && git status",
			Segments: []string{"git add .", "git status"},
			Decision: "allow",
			Rule:     "git-safe-sequence",
			Reason:   "auto-approve safe git sequence",
		},
		{
			Hooks:    []string{"protect-branches"},
			Kind:     "command",
			Command:  "git push",
			Decision: "deny",
			Branch:   "main",
			Reason:   "Blocked: pushing from protected branch main",
		},
		{
			Hooks:    []string{"gh-mcp"},
			Kind:     "tool",
			ToolName: "mcp__gh__merge_pr",
			Decision: "abstain",
		},
	}
	for _, e := range entries {
		if err := Log(e); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}
	Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d", len(lines))
	}

	var first Entry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse first entry: %v", err)
	}
	if first.Version != Version {
		t.Errorf("Version = %d, want %d", first.Version, Version)
	}
	if _, err := time.Parse(TimestampFormat, first.Timestamp); err != nil {
		t.Errorf("Timestamp %q does not parse: %v", first.Timestamp, err)
	}
	if first.Rule != "git-safe-sequence" || len(first.Segments) != 2 {
		t.Errorf("first entry = %+v", first)
	}

	// Tool entries carry no command; omitempty keeps the key out entirely.
	if strings.Contains(lines[2], `"command"`) {
		t.Errorf("tool entry should omit command: %s", lines[2])
	}
	if !strings.Contains(lines[1], `"branch":"main"`) {
		t.Errorf("deny entry should record the branch: %s", lines[1])
	}
}

func TestLogWhenDisabled(t *testing.T) {
	defer Reset()

	if err := Log(Entry{Command: "git status", Decision: "allow"}); err != nil {
		t.Errorf("Log() when disabled error = %v", err)
	}
}

func TestClose(t *testing.T) {
	defer Reset()

	if err := Init(Options{Path: filepath.Join(t.TempDir(), "audit.log")}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if IsEnabled() {
		t.Error("expected audit logging to be disabled after Close")
	}
	if err := Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func writeEntries(t *testing.T, path string, n int) {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		data, err := json.Marshal(Entry{Version: Version, Kind: "command", Command: "git status", Decision: "allow"})
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(append(data, '\n'))
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRotateKeepsNewestPlain(t *testing.T) {
	defer Reset()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	writeEntries(t, logPath, 50)

	if err := Init(Options{Path: logPath, MaxSize: 100, Compress: true}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Log(Entry{Kind: "command", Command: "git push", Decision: "deny"}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	Close()

	rotated, err := RotatedFiles(logPath)
	if err != nil {
		t.Fatalf("RotatedFiles() error = %v", err)
	}
	if len(rotated) != 1 || strings.HasSuffix(rotated[0], ".zst") {
		t.Fatalf("rotated files = %q, want one plain log", rotated)
	}

	old, err := ReadRotated(rotated[0])
	if err != nil {
		t.Fatalf("ReadRotated() error = %v", err)
	}
	if len(old) != 50 {
		t.Errorf("rotated entries = %d, want 50", len(old))
	}

	live, err := ReadRotated(logPath)
	if err != nil {
		t.Fatalf("ReadRotated(live) error = %v", err)
	}
	if len(live) != 1 || live[0].Command != "git push" {
		t.Errorf("live entries = %+v, want only the new entry", live)
	}
}

func TestRotateCompressesOnNextRotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	t1 := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	writeEntries(t, logPath, 50)

	// A hook process that opened the log before rotation keeps writing to it.
	held, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	first, err := rotate(logPath, true, t1)
	if err != nil {
		t.Fatalf("rotate() error = %v", err)
	}
	late, _ := json.Marshal(Entry{Version: Version, Kind: "command", Command: "git push", Decision: "deny"})
	if _, err := held.Write(append(late, '\n')); err != nil {
		t.Fatal(err)
	}
	held.Close()

	writeEntries(t, logPath, 5)
	second, err := rotate(logPath, true, t2)
	if err != nil {
		t.Fatalf("rotate() error = %v", err)
	}

	rotated, err := RotatedFiles(logPath)
	if err != nil {
		t.Fatalf("RotatedFiles() error = %v", err)
	}
	want := []string{first + ".zst", second}
	if !reflect.DeepEqual(rotated, want) {
		t.Fatalf("rotated files = %q, want %q", rotated, want)
	}

	entries, err := ReadRotated(first + ".zst")
	if err != nil {
		t.Fatalf("ReadRotated() error = %v", err)
	}
	if len(entries) != 51 || entries[50].Command != "git push" {
		t.Errorf("compressed log has %d entries, want 50 plus the late write", len(entries))
	}
}

func TestRotateRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	writeEntries(t, logPath, 3)
	if _, err := rotate(logPath, false, now); err != nil {
		t.Fatalf("rotate() error = %v", err)
	}
	writeEntries(t, logPath, 3)
	if _, err := rotate(logPath, false, now); err == nil {
		t.Error("expected an error when the rotated name is taken")
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("live log should be left in place: %v", err)
	}
}

func TestRotateUncompressed(t *testing.T) {
	defer Reset()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	writeEntries(t, logPath, 10)

	if err := Init(Options{Path: logPath, MaxSize: 10}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()

	rotated, err := RotatedFiles(logPath)
	if err != nil {
		t.Fatalf("RotatedFiles() error = %v", err)
	}
	if len(rotated) != 1 || strings.HasSuffix(rotated[0], ".zst") {
		t.Fatalf("rotated files = %q, want one plain log", rotated)
	}
	entries, err := ReadRotated(rotated[0])
	if err != nil || len(entries) != 10 {
		t.Errorf("ReadRotated() = %d entries, %v", len(entries), err)
	}
}

func TestNoRotationUnderLimit(t *testing.T) {
	defer Reset()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.log")
	writeEntries(t, logPath, 2)

	if err := Init(Options{Path: logPath, MaxSize: DefaultMaxSize, Compress: true}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()

	rotated, _ := RotatedFiles(logPath)
	if len(rotated) != 0 {
		t.Errorf("unexpected rotation: %q", rotated)
	}
}

func TestRotatedName(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	got := rotatedName("/logs/audit.log", now)
	if want := "/logs/audit-20261016T093000.000Z.log"; got != want {
		t.Errorf("rotatedName() = %q, want %q", got, want)
	}
}

func TestReadEntriesBadLine(t *testing.T) {
	_, err := ReadEntries(strings.NewReader("{\"kind\":\"tool\"}\nnot json\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error naming line 2, got %v", err)
	}
}
