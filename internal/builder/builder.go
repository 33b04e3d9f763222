// Package builder wires a resolved manifest into a pipeline graph and
// exposes the vendor build operations (BundleScripts, BundleStyles,
// CopyFonts, CopyMaps, BuildVendor, BuildDefault).
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shinji-kodama/vendor-bundler/internal/bundle"
	"github.com/shinji-kodama/vendor-bundler/internal/manifest"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
	"github.com/shinji-kodama/vendor-bundler/internal/pipeline"
)

// Options tunes how a Builder registers groups.
type Options struct {
	// Parallel turns every series group of the manifest into a parallel
	// group. Tasks write disjoint files, so this only changes scheduling.
	Parallel bool
}

// Builder runs the tasks and groups of one manifest against one project root.
type Builder struct {
	manifest *manifest.Manifest
	root     string
	tasks    []model.Task
	graph    *pipeline.Graph
}

// New resolves m against root and registers every task and group.
// Cycles and dangling references are reported here, before anything runs.
func New(m *manifest.Manifest, root string, opts Options) (*Builder, error) {
	if err := m.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest", err)
	}
	tasks, err := m.Resolve(root)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest", err)
	}

	g := pipeline.NewGraph()
	for _, task := range tasks {
		if err := g.Task(task.Name, taskFunc(task)); err != nil {
			return nil, model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest", err)
		}
	}
	// Groups are registered in sorted order so listings are stable.
	names := make([]string, 0, len(m.Groups))
	for name := range m.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		group := m.Groups[name]
		register := g.Series
		if group.Parallel || opts.Parallel {
			register = g.Parallel
		}
		if err := register(name, group.Tasks...); err != nil {
			return nil, model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest", err)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitManifestInvalid, "invalid manifest", err)
	}

	return &Builder{manifest: m, root: root, tasks: tasks, graph: g}, nil
}

// taskFunc adapts a resolved task to the pipeline.
func taskFunc(task model.Task) pipeline.TaskFunc {
	return func(ctx context.Context) (*model.TaskResult, error) {
		return bundle.Run(ctx, task)
	}
}

// Root returns the project root the builder resolves paths against.
func (b *Builder) Root() string {
	return b.root
}

// Manifest returns the manifest the builder was created from.
func (b *Builder) Manifest() *manifest.Manifest {
	return b.manifest
}

// Tasks returns the resolved leaf tasks in manifest order.
func (b *Builder) Tasks() []model.Task {
	return append([]model.Task(nil), b.tasks...)
}

// Graph exposes the task graph for listings.
func (b *Builder) Graph() *pipeline.Graph {
	return b.graph
}

// DefaultTarget returns the target run when none is named.
func (b *Builder) DefaultTarget() string {
	return b.manifest.DefaultTargetName()
}

// Run executes a task or group and returns its report.
//
// The report is returned even on failure so callers can show what was
// completed before the error. Unknown targets yield a CLIError with
// ExitTaskNotFound.
func (b *Builder) Run(ctx context.Context, target string) (*model.BuildReport, error) {
	if !b.graph.Has(target) {
		return nil, model.WrapCLIError(model.ExitTaskNotFound,
			fmt.Sprintf("unknown task or group %q", target), pipeline.ErrTaskNotFound)
	}

	report := &model.BuildReport{
		BuildID:   uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
	}
	slog.Debug("Starting build", "build_id", report.BuildID, "target", target, "root", b.root)

	results, err := b.graph.Run(ctx, target)
	report.Tasks = results
	report.Duration = time.Since(report.StartedAt)
	if err != nil {
		return report, err
	}

	slog.Info("Build finished", "build_id", report.BuildID, "target", target,
		"files", report.FileCount(), "duration", report.Duration)
	return report, nil
}

// BundleScripts concatenates the vendor scripts into vendor/all.js.
func (b *Builder) BundleScripts(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, manifest.TaskScripts)
}

// BundleStyles concatenates the vendor stylesheets into vendor/all.css.
func (b *Builder) BundleStyles(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, manifest.TaskStyles)
}

// CopyFonts copies the icon fonts into vendor/fonts.
func (b *Builder) CopyFonts(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, manifest.TaskFonts)
}

// CopyMaps copies the source maps next to the bundles.
func (b *Builder) CopyMaps(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, manifest.TaskMaps)
}

// BuildVendor runs the four vendor tasks; it succeeds only if all do.
func (b *Builder) BuildVendor(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, manifest.GroupVendor)
}

// BuildDefault runs the manifest's default target, which is the vendor
// group in the built-in manifest.
func (b *Builder) BuildDefault(ctx context.Context) (*model.BuildReport, error) {
	return b.Run(ctx, b.DefaultTarget())
}
