// Package watch rebuilds vendor tasks when their source files change.
//
// The watcher subscribes to the directories containing the sources
// (more reliable than watching the files themselves, since package
// managers replace files rather than rewriting them), maps each event
// back to the tasks that read the file, and rebuilds those tasks after a
// debounce window.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// DefaultDebounce collapses bursts of events (e.g., an npm install
// touching many files) into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Runner runs a named task. *builder.Builder satisfies it.
type Runner interface {
	Run(ctx context.Context, target string) (*model.BuildReport, error)
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last event before a rebuild.
	// Zero means DefaultDebounce.
	Debounce time.Duration

	// OnBuild, when set, is called after every rebuild of a task.
	OnBuild func(task string, report *model.BuildReport, err error)
}

// Watcher monitors source files and triggers task rebuilds.
type Watcher struct {
	runner   Runner
	tasks    []model.Task
	owners   map[string][]string
	dirs     []string
	debounce time.Duration
	onBuild  func(string, *model.BuildReport, error)
}

// New prepares a watcher for tasks. Nothing is watched until Run.
func New(runner Runner, tasks []model.Task, opts Options) *Watcher {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	owners := make(map[string][]string)
	dirSet := make(map[string]bool)
	for _, task := range tasks {
		for _, src := range task.Sources {
			path := filepath.Clean(src)
			owners[path] = appendUnique(owners[path], task.Name)
			dirSet[filepath.Dir(path)] = true
		}
	}
	dirs := make([]string, 0, len(dirSet))
	for dir := range dirSet {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	return &Watcher{
		runner:   runner,
		tasks:    tasks,
		owners:   owners,
		dirs:     dirs,
		debounce: debounce,
		onBuild:  opts.OnBuild,
	}
}

// Dirs returns the directories the watcher subscribes to.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Owners returns the tasks that read path.
func (w *Watcher) Owners(path string) []string {
	return w.owners[filepath.Clean(path)]
}

// Run watches until ctx is cancelled. Rebuild failures are logged and
// reported through OnBuild; they do not stop the watcher.
//
// A directory that does not exist yet is skipped with a warning: its
// sources cannot change until it is created, and the task would fail
// anyway.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if cerr := fsw.Close(); cerr != nil {
			slog.Error("Error closing file watcher", "error", cerr)
		}
	}()

	watched := 0
	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			slog.Warn("Cannot watch source directory", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no source directory could be watched")
	}
	slog.Info("Watching sources", "dirs", watched, "tasks", len(w.tasks))

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			owners := w.Owners(event.Name)
			if len(owners) == 0 {
				continue
			}
			slog.Debug("Source changed", "path", event.Name, "op", event.Op.String(), "tasks", owners)
			for _, name := range owners {
				pending[name] = true
			}

			// Reset/start debounce timer
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Stop()
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.rebuild(ctx, pending)
			pending = make(map[string]bool)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

// rebuild runs the pending tasks in manifest order.
func (w *Watcher) rebuild(ctx context.Context, pending map[string]bool) {
	for _, task := range w.tasks {
		if !pending[task.Name] {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		report, err := w.runner.Run(ctx, task.Name)
		if err != nil {
			slog.Error("Rebuild failed", "task", task.Name, "error", err)
		}
		if w.onBuild != nil {
			w.onBuild(task.Name, report, err)
		}
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
