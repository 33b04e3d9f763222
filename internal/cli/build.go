package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// buildOutput is the JSON structure for `build --json`.
type buildOutput struct {
	Root     string               `json:"root"`
	Manifest string               `json:"manifest"`
	Builds   []*model.BuildReport `json:"builds"`
}

// NewBuildCommand creates the "build" subcommand.
//
// Usage: vendor-bundler build [target...]
//
// Each target is a task or group name from the manifest. Targets run in
// the order given; the first failure stops the command. Without
// arguments the default target is built.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build [target...]",
		Short: "Build one or more tasks or groups",
		Long: `Build runs the named tasks or groups from the manifest, in order.
Without arguments the default target is built.

Examples:
  vendor-bundler build
  vendor-bundler build vendor-js vendor-css
  vendor-bundler build vendor --parallel --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
}

// runBuild executes targets (or the default target) and prints the reports.
func runBuild(ctx context.Context, w io.Writer, targets []string) error {
	b, source, err := loadBuilder()
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		targets = []string{b.DefaultTarget()}
	}

	reports := make([]*model.BuildReport, 0, len(targets))
	for _, target := range targets {
		report, err := b.Run(ctx, target)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			// Whatever finished before the failure is still reported.
			if printErr := printBuildResult(w, b.Root(), source, reports); printErr != nil {
				return printErr
			}
			return err
		}
	}

	return printBuildResult(w, b.Root(), source, reports)
}

// printBuildResult writes the build reports in JSON or text format.
func printBuildResult(w io.Writer, root, source string, reports []*model.BuildReport) error {
	if IsJSONOutput() {
		data, err := json.MarshalIndent(buildOutput{
			Root:     root,
			Manifest: source,
			Builds:   reports,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	for _, report := range reports {
		printBuildReport(w, root, report)
	}
	return nil
}

// printBuildReport writes one report as a human-readable table.
func printBuildReport(w io.Writer, root string, report *model.BuildReport) {
	fmt.Fprintf(w, "%s: %d task(s) completed in %s\n", report.Target, len(report.Tasks), FormatDuration(report.Duration))
	if len(report.Tasks) == 0 {
		fmt.Fprintln(w, "  (no tasks completed)")
		return
	}

	fmt.Fprintf(w, "  %-14s %-7s %-44s %10s\n", "TASK", "KIND", "OUTPUT", "SIZE")
	for _, result := range report.Tasks {
		for _, out := range result.Outputs {
			fmt.Fprintf(w, "  %-14s %-7s %-44s %10s\n",
				result.Task,
				result.Kind,
				DisplayPath(root, out.Path),
				FormatSize(out.Size),
			)
		}
	}
	fmt.Fprintf(w, "  %d file(s) written\n", report.FileCount())
}

// FormatSize renders a byte count using binary units (B, KiB, MiB, GiB).
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}

// FormatDuration rounds d to a precision suitable for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

// DisplayPath returns path relative to root when it lies inside root,
// and path unchanged otherwise.
func DisplayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
