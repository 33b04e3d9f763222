package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/manifest"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
	"github.com/shinji-kodama/vendor-bundler/internal/project"
)

// NewConfigCommand creates the "config" subcommand.
//
// Usage: vendor-bundler config [--builtin] [--json]
//
// Prints the effective manifest as YAML (or JSON with --json). The
// output can be saved as vendor.yaml to start customizing the build.
func NewConfigCommand() *cobra.Command {
	var builtin bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective manifest",
		Long: `Config prints the manifest that build would use, after validation.

With --builtin the built-in manifest is printed regardless of any
manifest file in the project root.

Examples:
  vendor-bundler config
  vendor-bundler config --builtin > vendor.yaml
  vendor-bundler config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				m      *manifest.Manifest
				source = builtinManifest
			)
			if builtin {
				m = manifest.Default()
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
				}
				root, err := project.ResolveRoot(rootDir, cwd)
				if err != nil {
					return model.WrapCLIError(model.ExitGeneralError, "failed to resolve project root", err)
				}
				m, source, err = loadManifest(root)
				if err != nil {
					return err
				}
			}

			if err := m.Validate(); err != nil {
				return model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest "+source, err)
			}
			slog.Debug("Printing manifest", "source", source)

			format := manifest.FormatYAML
			if IsJSONOutput() {
				format = manifest.FormatJSON
			}
			data, err := m.Marshal(format)
			if err != nil {
				return fmt.Errorf("failed to encode manifest: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			if err == nil && format == manifest.FormatJSON {
				_, err = fmt.Fprintln(cmd.OutOrStdout())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&builtin, "builtin", false, "Print the built-in manifest")

	return cmd
}
