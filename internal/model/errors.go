package model

import (
	"errors"
	"fmt"
)

// ExitCode defines standard CLI exit codes.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a build.
type ExitCode int

const (
	// ExitSuccess indicates the build completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitSourceUnreadable indicates an input file was missing or unreadable.
	ExitSourceUnreadable ExitCode = 2

	// ExitDestinationUnwritable indicates an output path could not be written.
	ExitDestinationUnwritable ExitCode = 3

	// ExitManifestInvalid indicates the bundle manifest could not be
	// loaded or failed validation.
	ExitManifestInvalid ExitCode = 4

	// ExitTaskNotFound indicates the requested task or group does not exist.
	ExitTaskNotFound ExitCode = 5
)

// The two failure kinds a task can produce. Both abort the owning task;
// there is no retry and no partial success.
var (
	// ErrSourceUnreadable marks a missing or unreadable input file.
	ErrSourceUnreadable = errors.New("source unreadable")

	// ErrDestinationUnwritable marks an output path that cannot be created
	// or written.
	ErrDestinationUnwritable = errors.New("destination unwritable")
)

// BuildError reports a file-level failure inside a task.
//
// It matches its Kind through errors.Is, so callers can test
// errors.Is(err, ErrSourceUnreadable) without unwrapping manually, while
// errors.Is(err, fs.ErrNotExist) still reaches the underlying OS error.
type BuildError struct {
	// Kind is ErrSourceUnreadable or ErrDestinationUnwritable.
	Kind error

	// Task is the name of the task that failed.
	Task string

	// Path is the file that could not be read or written.
	Path string

	// Err is the underlying I/O error.
	Err error
}

// Error satisfies the error interface.
func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task %q: %v: %s: %v", e.Task, e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("task %q: %v: %s", e.Task, e.Kind, e.Path)
}

// Unwrap exposes both the kind and the underlying error to errors.Is/As.
func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewSourceError creates a BuildError of kind ErrSourceUnreadable.
func NewSourceError(task, path string, err error) *BuildError {
	return &BuildError{Kind: ErrSourceUnreadable, Task: task, Path: path, Err: err}
}

// NewDestinationError creates a BuildError of kind ErrDestinationUnwritable.
func NewDestinationError(task, path string, err error) *BuildError {
	return &BuildError{Kind: ErrDestinationUnwritable, Task: task, Path: path, Err: err}
}

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeFor maps an error returned by a build to its process exit code.
// An explicit CLIError code takes precedence over the error kind.
func ExitCodeFor(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) && cliErr.Code != ExitGeneralError {
		return cliErr.Code
	}
	switch {
	case errors.Is(err, ErrSourceUnreadable):
		return ExitSourceUnreadable
	case errors.Is(err, ErrDestinationUnwritable):
		return ExitDestinationUnwritable
	default:
		return ExitGeneralError
	}
}
