package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// DefaultTarget is the target run when the manifest does not name one.
const DefaultTarget = "default"

// ErrNotFound is returned by Find when no manifest file exists in the
// searched directory. Callers typically fall back to Default().
var ErrNotFound = errors.New("manifest not found")

// FileNames lists the manifest file names searched by Find, in priority order.
var FileNames = []string{"vendor.jsonc", "vendor.json", "vendor.yaml", "vendor.yml"}

// Manifest is the declarative description of a vendor build.
//
// The same struct is decoded from JSON(C) and YAML, so every field
// carries both tag sets.
type Manifest struct {
	// StaticRoot is the static-assets root relative to the project root.
	// Task destinations are resolved beneath it.
	StaticRoot string `json:"staticRoot" yaml:"staticRoot"`

	// Tasks lists the leaf tasks. Their order is the order used by
	// listings and by watch-mode rebuilds.
	Tasks []TaskSpec `json:"tasks" yaml:"tasks"`

	// Groups maps a group name to the tasks or groups it runs.
	Groups map[string]GroupSpec `json:"groups,omitempty" yaml:"groups,omitempty"`

	// Default names the target run when none is given on the command
	// line. Empty means DefaultTarget.
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// TaskSpec is one leaf task as written in the manifest.
type TaskSpec struct {
	// Name is the unique task name.
	Name string `json:"name" yaml:"name"`

	// Bundle is the output file name of a concatenation task. When empty,
	// the task is a pass-through copy.
	Bundle string `json:"bundle,omitempty" yaml:"bundle,omitempty"`

	// Dest is the output directory relative to StaticRoot.
	Dest string `json:"dest" yaml:"dest"`

	// Sources are the input files, relative to the project root unless
	// absolute. Order matters for bundles.
	Sources []string `json:"sources" yaml:"sources"`
}

// Kind reports whether the spec describes a bundle or a copy task.
func (s TaskSpec) Kind() model.TaskKind {
	if s.Bundle != "" {
		return model.KindBundle
	}
	return model.KindCopy
}

// GroupSpec is a named sequence of tasks or groups.
type GroupSpec struct {
	// Tasks are the member names, run in order unless Parallel is set.
	Tasks []string `json:"tasks" yaml:"tasks"`

	// Parallel runs the members concurrently.
	Parallel bool `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// DefaultTargetName returns the effective default target.
func (m *Manifest) DefaultTargetName() string {
	if m.Default == "" {
		return DefaultTarget
	}
	return m.Default
}

// Task looks up a task spec by name.
func (m *Manifest) Task(name string) (TaskSpec, bool) {
	for _, t := range m.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskSpec{}, false
}

// Load reads a manifest file and parses it according to its extension:
// .yaml/.yml as YAML, anything else as JSONC.
//
// Returns a CLIError with ExitManifestInvalid when the file is unreadable,
// malformed, or fails validation.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("failed to read manifest %s", path),
			err,
		)
	}

	m, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("invalid manifest %s", path),
			err,
		)
	}
	return m, nil
}

// Format identifies the manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates manifest bytes.
//
// JSON input may contain // and /* */ comments and trailing commas;
// they are stripped with jsonc before decoding. Unknown fields are
// rejected in both formats so typos such as "source" instead of
// "sources" surface immediately.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Find searches dir for a manifest file (see FileNames).
// Returns ErrNotFound if none exists.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (searched %s)", ErrNotFound, dir, strings.Join(FileNames, ", "))
}

// Resolve joins every path of the manifest against root and returns the
// tasks in manifest order. Absolute source paths are kept as they are.
func (m *Manifest) Resolve(root string) ([]model.Task, error) {
	outRoot := filepath.Join(root, m.StaticRoot)

	tasks := make([]model.Task, 0, len(m.Tasks))
	for _, spec := range m.Tasks {
		sources := make([]string, len(spec.Sources))
		for i, src := range spec.Sources {
			if filepath.IsAbs(src) {
				sources[i] = filepath.Clean(src)
			} else {
				sources[i] = filepath.Join(root, src)
			}
		}

		task := model.Task{
			Name:      spec.Name,
			Kind:      spec.Kind(),
			Sources:   sources,
			OutputDir: filepath.Join(outRoot, spec.Dest),
			Output:    spec.Bundle,
		}
		if err := task.Validate(); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Marshal encodes the manifest in the requested format. JSON output is
// indented for readability.
func (m *Manifest) Marshal(format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return json.MarshalIndent(m, "", "  ")
}
