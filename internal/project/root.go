// Package project resolves the project root that manifest paths are
// relative to.
//
// Resolution order:
//  1. an explicit path (the --root flag)
//  2. the VENDOR_BUNDLER_ROOT environment variable
//  3. the top level of the Git repository containing the working directory
//  4. the working directory itself
package project

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvRoot is the environment variable that overrides root detection.
const EnvRoot = "VENDOR_BUNDLER_ROOT"

// ResolveRoot returns the absolute project root.
//
// explicit takes precedence when non-empty; cwd is the directory used for
// Git detection and as the final fallback.
func ResolveRoot(explicit, cwd string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvRoot)
	}
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", fmt.Errorf("failed to resolve project root %q: %w", explicit, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project root %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project root %q is not a directory", abs)
		}
		return abs, nil
	}

	if top, err := GitTopLevel(cwd); err == nil {
		slog.Debug("Using Git repository root", "root", top)
		return top, nil
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory %q: %w", cwd, err)
	}
	return abs, nil
}

// GitTopLevel returns the top-level directory of the Git repository at path.
//
// Uses `git rev-parse --show-toplevel`, which returns the absolute path to
// the root of the working tree, even when path is a subdirectory.
func GitTopLevel(path string) (string, error) {
	output, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// runGit executes a git command with the given arguments in the specified directory.
//
// It captures both stdout and stderr. On success (exit code 0), it returns
// the stdout output. On failure, stderr is included in the error for
// diagnostics.
//
// The dir parameter is passed to git via the -C flag, which causes git
// to change to that directory before doing anything else.
func runGit(dir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", dir}, args...)

	// #nosec G204 -- args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr := strings.TrimSpace(stderr.String()); stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}

	return stdout.String(), nil
}
