package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/vendor-bundler/internal/bundle"
	"github.com/shinji-kodama/vendor-bundler/internal/manifest"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// setupProject creates a project root containing every source file of the
// built-in manifest. Each file's content is a short marker derived from its
// path so concatenation order is visible in the output.
//
// Returns the project root and a map from relative source path to content.
func setupProject(t *testing.T) (string, map[string]string) {
	t.Helper()

	root := t.TempDir()
	contents := make(map[string]string)
	for _, spec := range manifest.Default().Tasks {
		for _, src := range spec.Sources {
			content := "/*" + filepath.Base(src) + "*/"
			path := filepath.Join(root, src)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			contents[src] = content
		}
	}
	return root, contents
}

// vendorDir returns the output directory of the built-in manifest.
func vendorDir(root string) string {
	return filepath.Join(root, manifest.DefaultStaticRoot, "vendor")
}

// expectedBundle concatenates the fixture contents of a task in order.
func expectedBundle(t *testing.T, contents map[string]string, task string) string {
	t.Helper()

	spec, ok := manifest.Default().Task(task)
	require.True(t, ok)
	var sb strings.Builder
	for _, src := range spec.Sources {
		sb.WriteString(contents[src])
	}
	return sb.String()
}

func newDefaultBuilder(t *testing.T, root string, opts Options) *Builder {
	t.Helper()

	b, err := New(manifest.Default(), root, opts)
	require.NoError(t, err)
	return b
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// TestBundleScripts verifies all.js is the ordered concatenation of the
// five vendor scripts.
func TestBundleScripts(t *testing.T) {
	root, contents := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	report, err := b.BundleScripts(context.Background())
	require.NoError(t, err)

	got := readFile(t, filepath.Join(vendorDir(root), "all.js"))
	assert.Equal(t, expectedBundle(t, contents, manifest.TaskScripts), got)
	assert.True(t, strings.HasPrefix(got, "/*bootstrap.bundle.min.js*/"))
	assert.True(t, strings.HasSuffix(got, "/*videojs.hotkeys.min.js*/"))

	require.Len(t, report.Tasks, 1)
	assert.Equal(t, manifest.TaskScripts, report.Target)
	assert.Equal(t, bundle.Digest([]byte(got)), report.Tasks[0].Outputs[0].Digest)
	assert.NotEmpty(t, report.BuildID)
}

// TestBundleStyles verifies all.css is the ordered concatenation of the
// four vendor stylesheets.
func TestBundleStyles(t *testing.T) {
	root, contents := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	_, err := b.BundleStyles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, expectedBundle(t, contents, manifest.TaskStyles),
		readFile(t, filepath.Join(vendorDir(root), "all.css")))
}

// TestBundleStyles_MissingSource removes video-js.min.css: the task fails
// with SourceUnreadable and all.css is not written.
func TestBundleStyles_MissingSource(t *testing.T) {
	root, _ := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "node_modules/video.js/dist/video-js.min.css")))
	b := newDefaultBuilder(t, root, Options{})

	_, err := b.BundleStyles(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSourceUnreadable))
	assert.Equal(t, model.ExitSourceUnreadable, model.ExitCodeFor(err))

	_, statErr := os.Stat(filepath.Join(vendorDir(root), "all.css"))
	assert.True(t, os.IsNotExist(statErr), "all.css must not be written")
}

// TestCopyFonts_Idempotent runs the copy twice and compares results.
func TestCopyFonts_Idempotent(t *testing.T) {
	root, contents := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	first, err := b.CopyFonts(context.Background())
	require.NoError(t, err)
	second, err := b.CopyFonts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Tasks[0].Outputs, second.Tasks[0].Outputs)
	assert.Equal(t,
		contents["node_modules/bootstrap-icons/font/fonts/bootstrap-icons.woff2"],
		readFile(t, filepath.Join(vendorDir(root), "fonts", "bootstrap-icons.woff2")))
}

// TestCopyMaps places the source maps alongside the bundles.
func TestCopyMaps(t *testing.T) {
	root, _ := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	_, err := b.CopyMaps(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(vendorDir(root), "bootstrap.min.css.map"))
	assert.FileExists(t, filepath.Join(vendorDir(root), "upchunk.js.map"))
}

// TestBuildDefault runs the whole vendor pipeline and checks the layout.
func TestBuildDefault(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "series"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			root, contents := setupProject(t)
			b := newDefaultBuilder(t, root, Options{Parallel: parallel})

			report, err := b.BuildDefault(context.Background())
			require.NoError(t, err)

			assert.Equal(t, manifest.DefaultTarget, report.Target)
			assert.Equal(t, 6, report.FileCount())

			names := make([]string, len(report.Tasks))
			for i, r := range report.Tasks {
				names[i] = r.Task
			}
			assert.Equal(t, []string{manifest.TaskScripts, manifest.TaskStyles, manifest.TaskFonts, manifest.TaskMaps}, names)

			dir := vendorDir(root)
			assert.Equal(t, expectedBundle(t, contents, manifest.TaskScripts), readFile(t, filepath.Join(dir, "all.js")))
			assert.Equal(t, expectedBundle(t, contents, manifest.TaskStyles), readFile(t, filepath.Join(dir, "all.css")))
			assert.FileExists(t, filepath.Join(dir, "fonts", "bootstrap-icons.woff"))
			assert.FileExists(t, filepath.Join(dir, "upchunk.js.map"))
		})
	}
}

// TestBuildVendor_AbortsAfterFailure checks that a failure in the scripts
// task stops the series: no later task writes anything.
func TestBuildVendor_AbortsAfterFailure(t *testing.T) {
	root, _ := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "node_modules/@mux/upchunk/dist/upchunk.js")))
	b := newDefaultBuilder(t, root, Options{})

	report, err := b.BuildVendor(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSourceUnreadable))
	assert.Empty(t, report.Tasks)

	_, statErr := os.Stat(vendorDir(root))
	assert.True(t, os.IsNotExist(statErr), "no vendor output may be produced")
}

// TestRun_UnknownTarget maps to ExitTaskNotFound.
func TestRun_UnknownTarget(t *testing.T) {
	root, _ := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	_, err := b.Run(context.Background(), "vendor-img")
	require.Error(t, err)
	assert.Equal(t, model.ExitTaskNotFound, model.ExitCodeFor(err))
}

// TestNew_RejectsCycles refuses a manifest whose groups loop.
func TestNew_RejectsCycles(t *testing.T) {
	m := manifest.Default()
	m.Groups["a"] = manifest.GroupSpec{Tasks: []string{"b"}}
	m.Groups["b"] = manifest.GroupSpec{Tasks: []string{"a"}}

	_, err := New(m, t.TempDir(), Options{})
	require.Error(t, err)
	assert.Equal(t, model.ExitManifestInvalid, model.ExitCodeFor(err))
}

// TestAccessors exposes the resolved view used by the CLI.
func TestAccessors(t *testing.T) {
	root, _ := setupProject(t)
	b := newDefaultBuilder(t, root, Options{})

	assert.Equal(t, root, b.Root())
	assert.Equal(t, manifest.DefaultTarget, b.DefaultTarget())
	assert.Len(t, b.Tasks(), 4)
	assert.Equal(t, []string{
		manifest.TaskScripts, manifest.TaskStyles, manifest.TaskFonts, manifest.TaskMaps,
		manifest.DefaultTarget, manifest.GroupVendor,
	}, b.Graph().Names())
	assert.Same(t, b.Manifest(), b.Manifest())
}
