// validate.go checks a parsed manifest for structural problems before any
// task runs: name collisions, dangling group members, empty task lists,
// and destinations that would overwrite each other.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// ValidationError represents a specific validation failure in a manifest.
type ValidationError struct {
	// Field is the manifest path that failed validation
	// (e.g., "tasks[1].sources" or "groups.vendor").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("manifest validation error: %s: %s", e.Field, e.Message)
}

// Validate runs ValidateManifest and joins the findings into one error.
// Returns nil when the manifest is valid.
func (m *Manifest) Validate() error {
	problems := ValidateManifest(m)
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i := range problems {
		errs[i] = &problems[i]
	}
	return errors.Join(errs...)
}

// ValidateManifest returns every validation failure in m (empty list =
// valid manifest).
//
// Checks performed:
//   - at least one task exists
//   - task names are valid and unique; sources are non-empty
//   - bundle names are file names, not paths
//   - no two tasks write the same output file
//   - group names are valid, do not shadow tasks, and have members
//   - group members and the default target name an existing task or group
//
// Cycles between groups are detected by the pipeline when the graph is built.
func ValidateManifest(m *Manifest) []ValidationError {
	var problems []ValidationError
	add := func(field, format string, args ...any) {
		problems = append(problems, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(m.Tasks) == 0 {
		add("tasks", "at least one task is required")
	}

	taskNames := make(map[string]bool, len(m.Tasks))
	outputs := make(map[string]string)
	for i, spec := range m.Tasks {
		field := fmt.Sprintf("tasks[%d]", i)

		if err := model.ValidateName(spec.Name); err != nil {
			add(field+".name", "%v", err)
		} else if taskNames[spec.Name] {
			add(field+".name", "duplicate task name %q", spec.Name)
		}
		taskNames[spec.Name] = true

		if len(spec.Sources) == 0 {
			add(field+".sources", "task %q has no sources", spec.Name)
		}
		for j, src := range spec.Sources {
			if strings.TrimSpace(src) == "" {
				add(fmt.Sprintf("%s.sources[%d]", field, j), "empty source path")
			}
		}

		if spec.Bundle != "" && strings.ContainsAny(spec.Bundle, `/\`) {
			add(field+".bundle", "bundle %q must be a file name, not a path", spec.Bundle)
		}
		if filepath.IsAbs(spec.Dest) {
			add(field+".dest", "dest %q must be relative to staticRoot", spec.Dest)
		}

		// Two tasks writing the same file would make the result depend on
		// execution order, and would race under parallel groups.
		for _, out := range specOutputs(spec) {
			if owner, ok := outputs[out]; ok {
				if owner == spec.Name {
					add(field+".sources", "two sources of task %q are both copied to %s", spec.Name, out)
				} else {
					add(field, "output %s is also written by task %q", out, owner)
				}
				continue
			}
			outputs[out] = spec.Name
		}
	}

	// Iterate groups in sorted order so messages are deterministic.
	groupNames := make([]string, 0, len(m.Groups))
	for name := range m.Groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	for _, name := range groupNames {
		group := m.Groups[name]
		field := "groups." + name

		if err := model.ValidateName(name); err != nil {
			add(field, "%v", err)
		}
		if taskNames[name] {
			add(field, "group name %q collides with a task of the same name", name)
		}
		if len(group.Tasks) == 0 {
			add(field+".tasks", "group %q has no members", name)
		}
		for j, member := range group.Tasks {
			if !taskNames[member] && !hasGroup(m, member) {
				add(fmt.Sprintf("%s.tasks[%d]", field, j), "unknown task or group %q", member)
			}
		}
	}

	if m.Default != "" && !taskNames[m.Default] && !hasGroup(m, m.Default) {
		add("default", "unknown task or group %q", m.Default)
	}

	return problems
}

func hasGroup(m *Manifest, name string) bool {
	_, ok := m.Groups[name]
	return ok
}

// specOutputs returns the destination paths of a task relative to the
// static root, used for overlap detection.
func specOutputs(spec TaskSpec) []string {
	if spec.Bundle != "" {
		return []string{filepath.Join(spec.Dest, spec.Bundle)}
	}
	outs := make([]string, 0, len(spec.Sources))
	for _, src := range spec.Sources {
		outs = append(outs, filepath.Join(spec.Dest, filepath.Base(src)))
	}
	return outs
}
