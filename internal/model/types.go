package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// TaskKind distinguishes the two kinds of leaf tasks a build can run.
//
//	bundle: N ordered sources → 1 concatenated output file
//	copy:   N sources → N identical files in the output directory
type TaskKind string

const (
	// KindBundle concatenates its sources, in list order, into a single file.
	KindBundle TaskKind = "bundle"

	// KindCopy copies every source byte-for-byte into the output directory
	// under its original file name (a "pass-through" task).
	KindCopy TaskKind = "copy"
)

// String returns the string representation of TaskKind.
func (k TaskKind) String() string {
	return string(k)
}

// IsValid checks whether the TaskKind value is one of the predefined kinds.
func (k TaskKind) IsValid() bool {
	switch k {
	case KindBundle, KindCopy:
		return true
	default:
		return false
	}
}

// ParseTaskKind converts a string to a TaskKind.
// Returns an error if the string does not match any valid kind.
func ParseTaskKind(s string) (TaskKind, error) {
	kind := TaskKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid task kind: %q (valid: bundle, copy)", s)
	}
	return kind, nil
}

// Task is a fully resolved leaf task: every path is absolute (or at least
// already joined against the project root) and ready for file I/O.
//
// Tasks are built from the manifest by manifest.Resolve and have no
// lifecycle beyond a single build run.
type Task struct {
	// Name is the unique identifier of the task (e.g., "vendor-js").
	Name string `json:"name"`

	// Kind selects concatenation (bundle) or pass-through copy.
	Kind TaskKind `json:"kind"`

	// Sources lists the input files. For bundle tasks the order is
	// significant and is preserved byte-for-byte in the output.
	Sources []string `json:"sources"`

	// OutputDir is the directory the task writes into. It is created
	// on demand.
	OutputDir string `json:"outputDir"`

	// Output is the file name of the concatenated bundle (e.g., "all.js").
	// Only populated for bundle tasks.
	Output string `json:"output,omitempty"`
}

// nameRegex validates task and group names: alphanumerics plus '-', '_'
// and '.', starting with an alphanumeric character.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName checks if the given name is a valid task or group name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid task name %q: must start with an alphanumeric character and contain only alphanumerics, '.', '-' or '_'", name)
	}
	return nil
}

// Validate checks whether the Task has consistent field values.
//
// Pass-through tasks must not contain two sources with the same base
// name, since both would be written to the same destination path.
func (t *Task) Validate() error {
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return fmt.Errorf("task %q: invalid kind %q", t.Name, t.Kind)
	}
	if len(t.Sources) == 0 {
		return fmt.Errorf("task %q: no sources", t.Name)
	}
	if t.OutputDir == "" {
		return fmt.Errorf("task %q: output directory must not be empty", t.Name)
	}
	for _, src := range t.Sources {
		if strings.TrimSpace(src) == "" {
			return fmt.Errorf("task %q: empty source path", t.Name)
		}
	}

	switch t.Kind {
	case KindBundle:
		if t.Output == "" {
			return fmt.Errorf("task %q: bundle output name must not be empty", t.Name)
		}
		if strings.ContainsAny(t.Output, `/\`) {
			return fmt.Errorf("task %q: bundle output %q must be a file name, not a path", t.Name, t.Output)
		}
	case KindCopy:
		seen := make(map[string]string, len(t.Sources))
		for _, src := range t.Sources {
			base := filepath.Base(src)
			if prev, ok := seen[base]; ok {
				return fmt.Errorf("task %q: sources %q and %q would both be copied to %q", t.Name, prev, src, base)
			}
			seen[base] = src
		}
	}
	return nil
}

// OutputPaths returns every file the task writes, in source order for
// copy tasks.
func (t *Task) OutputPaths() []string {
	if t.Kind == KindBundle {
		return []string{filepath.Join(t.OutputDir, t.Output)}
	}
	paths := make([]string, 0, len(t.Sources))
	for _, src := range t.Sources {
		paths = append(paths, filepath.Join(t.OutputDir, filepath.Base(src)))
	}
	return paths
}

// OutputFile describes a single file written by a task.
type OutputFile struct {
	// Path is the destination path of the written file.
	Path string `json:"path"`

	// Size is the number of bytes written.
	Size int64 `json:"size"`

	// Digest is the hex-encoded BLAKE3-256 hash of the written content.
	Digest string `json:"digest"`
}

// TaskResult records the outcome of a successful leaf task.
type TaskResult struct {
	Task     string        `json:"task"`
	Kind     TaskKind      `json:"kind"`
	Outputs  []OutputFile  `json:"outputs"`
	Duration time.Duration `json:"duration"`
}

// TotalSize returns the sum of all output sizes of the task.
func (r *TaskResult) TotalSize() int64 {
	var total int64
	for _, o := range r.Outputs {
		total += o.Size
	}
	return total
}

// BuildReport summarizes one invocation of a target (task or group).
type BuildReport struct {
	// BuildID uniquely identifies the run in logs and JSON output.
	BuildID string `json:"buildId"`

	// Target is the task or group name that was requested.
	Target string `json:"target"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	// Tasks lists the leaf tasks that completed, in execution order.
	Tasks []TaskResult `json:"tasks"`
}

// FileCount returns the number of files written during the build.
func (r *BuildReport) FileCount() int {
	n := 0
	for i := range r.Tasks {
		n += len(r.Tasks[i].Outputs)
	}
	return n
}
