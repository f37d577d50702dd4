package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgerlanc/gitguard/internal/config"
	"github.com/dgerlanc/gitguard/internal/policy"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	checkTool   bool
	checkOutput string
	checkCwd    string
	checkHooks  []string
)

var checkCmd = &cobra.Command{
	Use:   "check <command...>",
	Short: "Show the decision for a command or tool name",
	Long: `Check evaluates a shell command (or, with --tool, a tool name) given on the
command line and prints the decision and the facts behind it. Nothing is
written to the audit log.

Examples:
  gitguard check 'git add . && git commit -m "wip"'
  gitguard check --output json git push origin feature:main
  gitguard check --tool mcp__gh__list_issues`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkTool, "tool", false, "Treat the argument as a tool name")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "text", "Output format: text, json or yaml")
	checkCmd.Flags().StringVar(&checkCwd, "cwd", "", "Directory to resolve repository state in (default: current directory)")
	checkCmd.Flags().StringSliceVar(&checkHooks, "hook", nil, "Hook sets to run (default: all enabled)")
}

// checkReport is the printed form of a decision.
type checkReport struct {
	Input      string   `json:"input" yaml:"input"`
	Shape      string   `json:"shape" yaml:"shape"`
	Decision   string   `json:"decision" yaml:"decision"`
	Rule       string   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Reason     string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Normalized string   `json:"normalized,omitempty" yaml:"normalized,omitempty"`
	Segments   []string `json:"segments,omitempty" yaml:"segments,omitempty"`
	Branch     string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	Base       string   `json:"base,omitempty" yaml:"base,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	engine, err := policy.FromConfig(config.Get(), checkHooks...)
	if err != nil {
		return err
	}

	subject := strings.Join(args, " ")
	req := policy.Request{ToolName: policy.ShellTool, Command: subject, Cwd: checkCwd}
	if checkTool {
		req = policy.Request{ToolName: subject, Cwd: checkCwd}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d := engine.Explain(ctx, req)

	report := checkReport{
		Input:      subject,
		Shape:      d.Shape.String(),
		Decision:   d.Kind.String(),
		Rule:       d.Rule,
		Reason:     d.Reason,
		Normalized: d.Normalized,
		Segments:   d.Segments,
		Branch:     d.Branch,
		Base:       d.Base,
	}
	return writeReport(cmd.OutOrStdout(), checkOutput, report)
}

func writeReport(w io.Writer, format string, report checkReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)

	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)

	case "text", "":
		fmt.Fprintf(w, "decision: %s\n", report.Decision)
		if report.Rule != "" {
			fmt.Fprintf(w, "rule:     %s\n", report.Rule)
		}
		if report.Reason != "" {
			fmt.Fprintf(w, "reason:   %s\n", report.Reason)
		}
		for i, seg := range report.Segments {
			fmt.Fprintf(w, "segment %d: %s\n", i+1, seg)
		}
		if report.Branch != "" {
			fmt.Fprintf(w, "branch:   %s\n", report.Branch)
		}
		if report.Base != "" {
			fmt.Fprintf(w, "base:     %s\n", report.Base)
		}
		return nil

	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}
