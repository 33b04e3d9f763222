// Package model defines the domain types and value objects for the
// vendor-bundler CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (Task, TaskResult, BuildReport) are created fresh for every
// invocation. Nothing is persisted between runs except the output files
// themselves.
//
// The package also defines exit codes (ExitCode), a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling,
// and BuildError, which classifies file failures into the two error kinds
// a build can produce.
package model
