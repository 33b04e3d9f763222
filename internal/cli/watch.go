package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
	"github.com/shinji-kodama/vendor-bundler/internal/watch"
)

// NewWatchCommand creates the "watch" subcommand.
//
// Usage: vendor-bundler watch [target] [--debounce 300ms]
//
// Builds the target once, then rebuilds each task whose sources change
// until interrupted. A failed rebuild is logged and watching continues.
func NewWatchCommand() *cobra.Command {
	var debounce = watch.DefaultDebounce

	cmd := &cobra.Command{
		Use:   "watch [target]",
		Short: "Rebuild tasks when their sources change",
		Long: `Watch builds the target (default: the manifest's default target) once,
then watches the source directories of its tasks and rebuilds a task
whenever one of its sources is written, created or renamed.

Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := loadBuilder()
			if err != nil {
				return err
			}

			target := b.DefaultTarget()
			if len(args) == 1 {
				target = args[0]
			}

			leaves, err := b.Graph().Leaves(target)
			if err != nil {
				return model.WrapCLIError(model.ExitTaskNotFound,
					fmt.Sprintf("unknown task or group %q", target), err)
			}
			watched := make(map[string]bool, len(leaves))
			for _, name := range leaves {
				watched[name] = true
			}
			var tasks []model.Task
			for _, task := range b.Tasks() {
				if watched[task.Name] {
					tasks = append(tasks, task)
				}
			}

			// The initial build may fail (e.g., a source not yet
			// downloaded); watching still starts so a fix is picked up.
			report, err := b.Run(cmd.Context(), target)
			if err != nil {
				slog.Error("Initial build failed", "target", target, "error", err)
			} else if !IsJSONOutput() {
				printBuildReport(cmd.OutOrStdout(), b.Root(), report)
			}

			w := watch.New(b, tasks, watch.Options{
				Debounce: debounce,
				OnBuild: func(task string, report *model.BuildReport, err error) {
					if err == nil && !IsJSONOutput() {
						printBuildReport(cmd.OutOrStdout(), b.Root(), report)
					}
				},
			})

			slog.Debug("Watch target expanded", "target", target, "tasks", leaves)
			if err := w.Run(cmd.Context()); err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "watch failed", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period after the last change before rebuilding")

	return cmd
}
