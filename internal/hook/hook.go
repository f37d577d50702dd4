// Package hook implements the PreToolUse hook contract: read one request
// from stdin, judge it and produce the JSON decision, or nothing.
package hook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dgerlanc/gitguard/internal/audit"
	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/dgerlanc/gitguard/internal/policy"
	"github.com/dgerlanc/gitguard/internal/verdict"
)

// Process reads a hook input from r and evaluates it with engine.
// Unreadable, malformed or empty input yields a Result with no output and is
// not audited.
func Process(ctx context.Context, r io.Reader, engine *policy.Engine) Result {
	startTime := time.Now()

	rawBytes, err := io.ReadAll(r)
	if err != nil {
		logger.Debug("failed to read input", "error", err)
		return Result{}
	}
	if strings.TrimSpace(string(rawBytes)) == "" {
		logger.Debug("empty input")
		return Result{}
	}

	var input Input
	if err := json.Unmarshal(rawBytes, &input); err != nil {
		logger.Debug("failed to decode input", "error", err)
		return Result{}
	}

	log := logger.With("tool_use_id", input.ToolUseID)
	req := input.Request()
	if req.Shape() == policy.ShapeEmpty {
		log.Debug("nothing to judge", "tool", input.ToolName)
		return Result{Input: input}
	}
	log.Debug("processing request", "tool", req.ToolName, "command", req.Command, "cwd", req.Cwd)

	d := evaluate(ctx, engine, req)
	output := FormatDecision(d.Verdict)
	if logger.Enabled(slog.LevelDebug) {
		log.Debug("decided", "decision", d.Kind.String(), "rule", d.Rule, "segments", strings.Join(d.Segments, " | "))
	}

	durationMs := float64(time.Since(startTime).Microseconds()) / 1000.0
	logAudit(engine, input, d, durationMs, string(rawBytes), output)

	return Result{Input: input, Decision: d, Output: output}
}

// evaluate runs the engine and turns a panic into an abstain.
func evaluate(ctx context.Context, engine *policy.Engine, req policy.Request) (d policy.Decision) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("evaluation panicked", "panic", fmt.Sprint(r))
			d = policy.Decision{Verdict: verdict.Abstain(), Shape: req.Shape()}
		}
	}()
	return engine.Explain(ctx, req)
}

// logAudit records a decision in the audit log.
func logAudit(engine *policy.Engine, input Input, d policy.Decision, durationMs float64, rawInput, rawOutput string) {
	var configError string
	if err := config.InitError(); err != nil {
		configError = err.Error()
	}

	entry := audit.Entry{
		Hooks:       engine.Hooks(),
		SessionID:   input.SessionID,
		ToolUseID:   input.ToolUseID,
		DurationMs:  durationMs,
		Kind:        d.Shape.String(),
		Segments:    d.Segments,
		Decision:    d.Kind.String(),
		Rule:        d.Rule,
		Reason:      d.Reason,
		Branch:      d.Branch,
		Base:        d.Base,
		Cwd:         input.Cwd,
		Input:       rawInput,
		Output:      rawOutput,
		ConfigPath:  config.GetConfigPath(),
		ConfigError: configError,
	}
	if d.Shape == policy.ShapeTool {
		entry.ToolName = input.ToolName
	} else {
		entry.Command = input.Command()
	}

	if err := audit.Log(entry); err != nil {
		logger.Debug("failed to write audit entry", "error", err)
	}
}
