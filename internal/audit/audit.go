// Package audit records every gitguard decision as a JSON line.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/klauspost/compress/zstd"
)

// Version is the entry format version.
const Version = 1

// TimestampFormat is the format used for audit log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.0Z07:00"

// rotatedStamp names rotated files; it sorts lexically in time order.
const rotatedStamp = "20060102T150405.000Z"

// DefaultMaxSize is the rotation threshold used when none is configured.
const DefaultMaxSize = 10 << 20

// Entry is one audit record.
type Entry struct {
	Version     int      `json:"version"`
	Hooks       []string `json:"hooks"`
	ToolUseID   string   `json:"tool_use_id"`
	SessionID   string   `json:"session_id"`
	Timestamp   string   `json:"timestamp"`
	DurationMs  float64  `json:"duration_ms"`
	Kind        string   `json:"kind"`
	ToolName    string   `json:"tool_name,omitempty"`
	Command     string   `json:"command,omitempty"`
	Segments    []string `json:"segments,omitempty"`
	Decision    string   `json:"decision"`
	Rule        string   `json:"rule,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Branch      string   `json:"branch,omitempty"`
	Base        string   `json:"base,omitempty"`
	Cwd         string   `json:"cwd"`
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	ConfigPath  string   `json:"config_path"`
	ConfigError string   `json:"config_error,omitempty"`
}

// Options configures the audit log.
type Options struct {
	// Path of the live log; empty selects DefaultLogPath.
	Path string
	// Disable turns audit logging off entirely.
	Disable bool
	// MaxSize rotates the log at Init once it is larger than this many
	// bytes. Zero or negative disables rotation.
	MaxSize int64
	// Compress writes rotated logs with zstd.
	Compress bool
}

var (
	auditFile *os.File
	mu        sync.Mutex
	enabled   bool
)

// DefaultLogPath returns the default audit log path (~/.local/share/gitguard/audit.log)
func DefaultLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, constants.XDGDataSubdir, constants.AppName, constants.AuditFileName), nil
}

// Init opens the audit log, rotating it first if it has outgrown MaxSize.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if opts.Disable {
		enabled = false
		return nil
	}

	path := opts.Path
	if path == "" {
		var err error
		path, err = DefaultLogPath()
		if err != nil {
			logger.Debug("failed to get default audit log path", "error", err)
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.DirMode); err != nil {
		logger.Debug("failed to create audit log directory", "error", err)
		return err
	}

	if opts.MaxSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > opts.MaxSize {
			rotated, err := rotate(path, opts.Compress, time.Now())
			if err != nil {
				// A failed rotation keeps appending to the old file.
				logger.Debug("failed to rotate audit log", "path", path, "error", err)
			} else {
				logger.Debug("audit log rotated", "path", path, "rotated", rotated)
			}
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, constants.FileMode)
	if err != nil {
		logger.Debug("failed to open audit log file", "error", err)
		return err
	}

	auditFile = f
	enabled = true
	logger.Debug("audit logging initialized", "path", path)
	return nil
}

// rotatedName returns audit-<stamp>.log next to path. Compressed copies add .zst.
func rotatedName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path), base+"-"+now.UTC().Format(rotatedStamp)+ext)
}

// rotate renames path aside. The file just rotated stays uncompressed because
// a hook process that opened path before the rename may still append to it;
// with compress set, rotated files left plain by earlier rotations are
// replaced by zstd copies.
func rotate(path string, compress bool, now time.Time) (string, error) {
	plain := rotatedName(path, now)
	if _, err := os.Stat(plain); err == nil {
		return "", fmt.Errorf("rotated log %s already exists", plain)
	}
	if err := os.Rename(path, plain); err != nil {
		return "", fmt.Errorf("rename audit log: %w", err)
	}
	if compress {
		if err := compressRotated(path, plain); err != nil {
			return plain, err
		}
	}
	return plain, nil
}

// compressRotated compresses every plain rotated file of path except skip.
// A file that changes size while being compressed is left as it is.
func compressRotated(path, skip string) error {
	files, err := RotatedFiles(path)
	if err != nil {
		return err
	}
	for _, f := range files {
		if f == skip || strings.HasSuffix(f, ".zst") {
			continue
		}
		dst := f + ".zst"
		n, err := compressFile(f, dst)
		if err != nil {
			os.Remove(dst)
			return err
		}
		if info, err := os.Stat(f); err != nil || info.Size() != n {
			os.Remove(dst)
			continue
		}
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove uncompressed log: %w", err)
		}
	}
	return nil
}

// compressFile writes a zstd copy of src to dst, which must not exist, and
// returns the number of uncompressed bytes read.
func compressFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open rotated log: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.FileMode)
	if err != nil {
		return 0, fmt.Errorf("create compressed log: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}
	n, err := io.Copy(enc, in)
	if err != nil {
		enc.Close()
		return n, fmt.Errorf("compress audit log: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("flush zstd writer: %w", err)
	}
	return n, out.Close()
}

// Close closes the audit log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if auditFile != nil {
		err := auditFile.Close()
		auditFile = nil
		enabled = false
		return err
	}
	return nil
}

// Log writes an entry to the audit log.
// If audit logging is not initialized or disabled, this is a no-op.
func Log(entry Entry) error {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || auditFile == nil {
		return nil
	}

	entry.Version = Version
	entry.Timestamp = time.Now().UTC().Format(TimestampFormat)

	data, err := json.Marshal(entry)
	if err != nil {
		logger.Debug("failed to marshal audit entry", "error", err)
		return err
	}

	if _, err := auditFile.Write(append(data, '\n')); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
		return err
	}
	return nil
}

// IsEnabled returns whether audit logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Reset resets the audit state. Used for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if auditFile != nil {
		auditFile.Close()
	}
	auditFile = nil
	enabled = false
}

// ReadEntries decodes JSON-lines entries from r.
func ReadEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for line := 1; scanner.Scan(); line++ {
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return entries, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// ReadRotated reads a live or rotated log; .zst files are decompressed.
func ReadRotated(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !strings.HasSuffix(path, ".zst") {
		return ReadEntries(f)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()
	return ReadEntries(dec)
}

// RotatedFiles lists the rotated logs belonging to path, oldest first.
func RotatedFiles(path string) ([]string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), base+"-*"+ext+"*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}
