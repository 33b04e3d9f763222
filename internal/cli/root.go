// Package cli implements the cobra-based CLI commands for vendor-bundler.
//
// Each subcommand (build, list, watch, config, init-script) is defined in
// its own file within this package. This file defines the root command,
// which runs the default build when invoked without a subcommand, and
// handles global flags, logging, and exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/vendor-bundler/internal/builder"
	"github.com/shinji-kodama/vendor-bundler/internal/manifest"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
	"github.com/shinji-kodama/vendor-bundler/internal/project"
)

// EnvConfig selects a manifest file when --config is not given.
const EnvConfig = "VENDOR_BUNDLER_CONFIG"

// builtinManifest is reported as the manifest source when no file is used.
const builtinManifest = "built-in"

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose lowers the log level to debug.
	verbose bool

	// rootDir overrides project root detection.
	rootDir string

	// configPath selects the manifest file.
	configPath string

	// parallel runs group members concurrently.
	parallel bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Invoked without a subcommand, it runs the manifest's default target.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vendor-bundler",
		Short: "Bundle third-party vendor assets into static files",
		Long: `vendor-bundler concatenates vendor scripts and stylesheets into single
bundles and copies fonts and source maps next to them.

Running it without a subcommand builds the default target. Tasks and
groups come from vendor.jsonc / vendor.json / vendor.yaml in the project
root, or from the built-in manifest when no such file exists.`,

		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr())
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cmd.OutOrStdout(), nil)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: $"+project.EnvRoot+", Git top-level, or current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Manifest file (default: $"+EnvConfig+" or vendor.{jsonc,json,yaml,yml} in the project root)")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "Run group members concurrently")

	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewInitScriptCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// SIGINT and SIGTERM cancel the command context, which stops the build
// between tasks and ends watch mode.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(os.Stderr, cliErr.Message, cliErr.Err)
		} else {
			printError(os.Stderr, err.Error(), nil)
		}
		os.Exit(int(model.ExitCodeFor(err)))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// setupLogging installs the process-wide slog logger. Task progress is
// logged at info level; --verbose adds per-file debug records.
func setupLogging(w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadDotEnv reads .env from the working directory, if present. Variables
// already set in the environment are not overridden.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return model.WrapCLIError(model.ExitGeneralError, "failed to load .env", err)
	}
	return nil
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadManifest returns the manifest to use and where it came from.
//
// Lookup order: --config, $VENDOR_BUNDLER_CONFIG, a manifest file in the
// project root, the built-in manifest.
func loadManifest(root string) (*manifest.Manifest, string, error) {
	path := configPath
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path == "" {
		found, err := manifest.Find(root)
		if errors.Is(err, manifest.ErrNotFound) {
			slog.Debug("No manifest file found, using built-in manifest", "root", root)
			return manifest.Default(), builtinManifest, nil
		}
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	m, err := manifest.Load(path)
	if err != nil {
		return nil, "", err
	}
	slog.Debug("Loaded manifest", "path", path)
	return m, path, nil
}

// loadBuilder resolves the project root and manifest and returns a ready builder.
func loadBuilder() (*builder.Builder, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := project.ResolveRoot(rootDir, cwd)
	if err != nil {
		return nil, "", model.WrapCLIError(model.ExitGeneralError, "failed to resolve project root", err)
	}
	slog.Debug("Project root", "root", root)

	m, source, err := loadManifest(root)
	if err != nil {
		return nil, "", err
	}

	b, err := builder.New(m, root, builder.Options{Parallel: parallel})
	if err != nil {
		return nil, "", err
	}
	return b, source, nil
}
