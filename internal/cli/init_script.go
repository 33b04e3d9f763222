package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/bundle"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
	"github.com/shinji-kodama/vendor-bundler/internal/player"
)

// NewInitScriptCommand creates the "init-script" subcommand.
//
// Usage: vendor-bundler init-script [--out file] [--selector css]
//
// Renders the page-initialization script that turns video elements into
// video.js players with hotkeys. Pages include it after vendor/all.js.
func NewInitScriptCommand() *cobra.Command {
	var (
		out      string
		selector string
		seekStep int
	)

	cmd := &cobra.Command{
		Use:   "init-script",
		Short: "Render the page-initialization script",
		Long: `Init-script renders the script that enhances every matching video
element with video.js and the hotkeys plugin, and defines
activateNavTab(elementId) for navigation highlighting.

The script is written to stdout, or atomically to --out.

Examples:
  vendor-bundler init-script
  vendor-bundler init-script --out muxltiproducer/static/muxltiproducer/js/init.js`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := player.DefaultPageConfig()
			if cmd.Flags().Changed("selector") {
				cfg.Selector = selector
			}
			if cmd.Flags().Changed("seek-step") {
				cfg.Hotkeys.SeekStep = seekStep
			}

			var buf bytes.Buffer
			if err := player.RenderInitScript(&buf, cfg); err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to render init script", err)
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}

			written, err := bundle.WriteFile("init-script", out, buf.Bytes())
			if err != nil {
				return err
			}
			slog.Info("Wrote init script", "path", written.Path, "bytes", written.Size)
			if IsJSONOutput() {
				data, err := json.MarshalIndent(written, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}
			return nil
		},
	}

	defaults := player.DefaultPageConfig()
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the script to this file instead of stdout")
	cmd.Flags().StringVar(&selector, "selector", defaults.Selector, "CSS selector of the elements to enhance")
	cmd.Flags().IntVar(&seekStep, "seek-step", defaults.Hotkeys.SeekStep, "Seconds skipped per arrow key press")

	return cmd
}
