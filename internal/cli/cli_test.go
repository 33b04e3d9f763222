package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/vendor-bundler/internal/bundle"
	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

const testManifest = `staticRoot: static
tasks:
  - name: js
    bundle: all.js
    dest: vendor
    sources:
      - src/a.js
      - src/b.js
  - name: fonts
    dest: vendor/fonts
    sources:
      - src/icons.woff
      - src/icons.ttf
groups:
  vendor:
    tasks: [js, fonts]
default: vendor
`

// setupProject creates a project root with sources and a vendor.yaml.
func setupProject(t *testing.T) string {
	t.Helper()
	t.Setenv(EnvConfig, "")

	root := t.TempDir()
	files := map[string]string{
		"src/a.js":       "A;",
		"src/b.js":       "B;",
		"src/icons.woff": "woff",
		"src/icons.ttf":  "ttf",
		"vendor.yaml":    testManifest,
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// executeCommand runs the root command with args and returns what it
// wrote to stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readOutput(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, "static", rel))
	require.NoError(t, err)
	return string(data)
}

// TestRootCommand_BuildsDefaultTarget runs the default target when no
// subcommand is given.
func TestRootCommand_BuildsDefaultTarget(t *testing.T) {
	root := setupProject(t)

	stdout, stderr, err := executeCommand(t, "--root", root)
	require.NoError(t, err)

	assert.Equal(t, "A;B;", readOutput(t, root, "vendor/all.js"))
	assert.Equal(t, "woff", readOutput(t, root, "vendor/fonts/icons.woff"))
	assert.Equal(t, "ttf", readOutput(t, root, "vendor/fonts/icons.ttf"))

	assert.Contains(t, stdout, "vendor: 2 task(s) completed")
	assert.Contains(t, stdout, filepath.Join("static", "vendor", "all.js"))
	assert.Contains(t, stdout, "3 file(s) written")
	assert.Contains(t, stderr, "Build finished")
}

// TestBuildCommand_Targets builds only the named targets.
func TestBuildCommand_Targets(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "--root", root, "build", "js")
	require.NoError(t, err)

	assert.Equal(t, "A;B;", readOutput(t, root, "vendor/all.js"))
	assert.NoFileExists(t, filepath.Join(root, "static", "vendor", "fonts", "icons.woff"))
	assert.Contains(t, stdout, "js: 1 task(s) completed")
}

// TestBuildCommand_Parallel produces the same outputs as a serial build.
func TestBuildCommand_Parallel(t *testing.T) {
	root := setupProject(t)

	_, _, err := executeCommand(t, "--root", root, "--parallel", "build", "vendor")
	require.NoError(t, err)

	assert.Equal(t, "A;B;", readOutput(t, root, "vendor/all.js"))
	assert.Equal(t, "woff", readOutput(t, root, "vendor/fonts/icons.woff"))
}

// TestBuildCommand_JSON reports outputs with sizes and digests.
func TestBuildCommand_JSON(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "--root", root, "--json", "build", "js", "fonts")
	require.NoError(t, err)

	var out buildOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, root, out.Root)
	assert.Equal(t, filepath.Join(root, "vendor.yaml"), out.Manifest)
	require.Len(t, out.Builds, 2)

	js := out.Builds[0]
	assert.Equal(t, "js", js.Target)
	assert.NotEmpty(t, js.BuildID)
	require.Len(t, js.Tasks, 1)
	require.Len(t, js.Tasks[0].Outputs, 1)
	assert.Equal(t, int64(4), js.Tasks[0].Outputs[0].Size)
	assert.Equal(t, bundle.Digest([]byte("A;B;")), js.Tasks[0].Outputs[0].Digest)

	assert.Equal(t, "fonts", out.Builds[1].Target)
	assert.Equal(t, 2, out.Builds[1].FileCount())
}

// TestBuildCommand_Errors maps failures to exit codes.
func TestBuildCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(t *testing.T, root string)
		args     []string
		wantCode model.ExitCode
	}{
		{
			name:     "unknown target",
			args:     []string{"build", "nope"},
			wantCode: model.ExitTaskNotFound,
		},
		{
			name: "missing source",
			prepare: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(filepath.Join(root, "src", "b.js")))
			},
			args:     []string{"build", "js"},
			wantCode: model.ExitSourceUnreadable,
		},
		{
			name: "unwritable destination",
			prepare: func(t *testing.T, root string) {
				// A regular file where the output directory should be.
				require.NoError(t, os.WriteFile(filepath.Join(root, "static"), []byte("x"), 0644))
			},
			args:     []string{"build", "js"},
			wantCode: model.ExitDestinationUnwritable,
		},
		{
			name: "unknown manifest field",
			prepare: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "vendor.yaml"),
					[]byte(testManifest+"minify: true\n"), 0644))
			},
			args:     []string{"build"},
			wantCode: model.ExitManifestInvalid,
		},
		{
			name: "group with unknown member",
			prepare: func(t *testing.T, root string) {
				require.NoError(t, os.WriteFile(filepath.Join(root, "vendor.yaml"),
					[]byte(strings.Replace(testManifest, "[js, fonts]", "[js, fonts, styles]", 1)), 0644))
			},
			args:     []string{"list"},
			wantCode: model.ExitManifestInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := setupProject(t)
			if tt.prepare != nil {
				tt.prepare(t, root)
			}

			_, _, err := executeCommand(t, append([]string{"--root", root}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, model.ExitCodeFor(err))
		})
	}
}

// TestBuildCommand_MissingSourceLeavesNoOutput checks that a failed
// bundle does not create its output file.
func TestBuildCommand_MissingSourceLeavesNoOutput(t *testing.T) {
	root := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "src", "a.js")))

	_, _, err := executeCommand(t, "--root", root, "build", "js")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSourceUnreadable))
	assert.NoFileExists(t, filepath.Join(root, "static", "vendor", "all.js"))
}

// TestBuildCommand_ConfigFlag uses an explicit manifest file.
func TestBuildCommand_ConfigFlag(t *testing.T) {
	root := setupProject(t)
	alt := filepath.Join(t.TempDir(), "alt.json")
	require.NoError(t, os.WriteFile(alt, []byte(`{
		// JSONC comments are allowed
		"staticRoot": "public",
		"tasks": [
			{"name": "js", "bundle": "bundle.js", "dest": "", "sources": ["src/b.js", "src/a.js"]},
		],
	}`), 0644))

	_, _, err := executeCommand(t, "--root", root, "--config", alt, "build", "js")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "public", "bundle.js"))
	require.NoError(t, err)
	assert.Equal(t, "B;A;", string(data))
}

// TestBuildCommand_ConfigEnv reads the manifest path from the environment
// and reports a missing default target as unknown.
func TestBuildCommand_ConfigEnv(t *testing.T) {
	root := setupProject(t)
	alt := filepath.Join(t.TempDir(), "alt.yml")
	require.NoError(t, os.WriteFile(alt, []byte("staticRoot: out\ntasks:\n  - name: js\n    bundle: b.js\n    dest: js\n    sources: [src/a.js]\n"), 0644))
	t.Setenv(EnvConfig, alt)

	_, _, err := executeCommand(t, "--root", root)
	require.Error(t, err)
	assert.Equal(t, model.ExitTaskNotFound, model.ExitCodeFor(err))

	_, _, err = executeCommand(t, "--root", root, "build", "js")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "out", "js", "b.js"))
}

// TestListCommand_JSON lists tasks in manifest order and groups with members.
func TestListCommand_JSON(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "--root", root, "--json", "list")
	require.NoError(t, err)

	var out listOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "vendor", out.Default)

	require.Len(t, out.Tasks, 2)
	assert.Equal(t, "js", out.Tasks[0].Name)
	assert.Equal(t, model.KindBundle, out.Tasks[0].Kind)
	assert.Equal(t, []string{filepath.Join("src", "a.js"), filepath.Join("src", "b.js")}, out.Tasks[0].Sources)
	assert.Equal(t, []string{filepath.Join("static", "vendor", "all.js")}, out.Tasks[0].Outputs)
	assert.Equal(t, "fonts", out.Tasks[1].Name)
	assert.Equal(t, model.KindCopy, out.Tasks[1].Kind)
	assert.Len(t, out.Tasks[1].Outputs, 2)

	require.Len(t, out.Groups, 1)
	assert.Equal(t, groupInfo{Name: "vendor", Mode: "series", Members: []string{"js", "fonts"}}, out.Groups[0])
}

// TestListCommand_Text marks the default target.
func TestListCommand_Text(t *testing.T) {
	root := setupProject(t)

	stdout, _, err := executeCommand(t, "--root", root, "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "TASK")
	assert.Contains(t, stdout, "GROUP")
	assert.Contains(t, stdout, "vendor *")
	assert.Contains(t, stdout, "js, fonts")
	assert.Contains(t, stdout, "(2 files)")
}

// TestListCommand_BuiltinManifest falls back to the built-in manifest
// when the project root has no manifest file.
func TestListCommand_BuiltinManifest(t *testing.T) {
	t.Setenv(EnvConfig, "")
	root := t.TempDir()

	stdout, _, err := executeCommand(t, "--root", root, "--json", "list")
	require.NoError(t, err)

	var out listOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, builtinManifest, out.Manifest)
	assert.Equal(t, "default", out.Default)

	var names []string
	for _, task := range out.Tasks {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"vendor-js", "vendor-css", "vendor-fonts", "vendor-map"}, names)
}

// TestConfigCommand prints the effective manifest.
func TestConfigCommand(t *testing.T) {
	t.Run("builtin as yaml", func(t *testing.T) {
		t.Setenv(EnvConfig, "")

		stdout, _, err := executeCommand(t, "--root", t.TempDir(), "config", "--builtin")
		require.NoError(t, err)
		assert.Contains(t, stdout, "staticRoot: muxltiproducer/static/muxltiproducer")
		assert.Contains(t, stdout, "name: vendor-js")
		assert.Contains(t, stdout, "bundle: all.js")
	})

	t.Run("project manifest as json", func(t *testing.T) {
		root := setupProject(t)

		stdout, _, err := executeCommand(t, "--root", root, "--json", "config")
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(stdout), &m))
		assert.Equal(t, "static", m["staticRoot"])
		assert.Equal(t, "vendor", m["default"])
	})
}

// TestInitScriptCommand renders to stdout or to a file.
func TestInitScriptCommand(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "init-script", "--selector", "video.player")
		require.NoError(t, err)
		assert.Contains(t, stdout, `d.querySelectorAll("video.player")`)
		assert.Contains(t, stdout, "function activateNavTab(elementId)")
	})

	t.Run("out file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "js", "init.js")

		stdout, _, err := executeCommand(t, "init-script", "--out", out)
		require.NoError(t, err)
		assert.Empty(t, stdout)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"seekStep":5`)
	})

	t.Run("invalid seek step", func(t *testing.T) {
		_, _, err := executeCommand(t, "init-script", "--seek-step", "0")
		require.Error(t, err)
		assert.Equal(t, model.ExitGeneralError, model.ExitCodeFor(err))
	})
}

// TestPrintError covers both output formats.
func TestPrintError(t *testing.T) {
	t.Cleanup(func() { jsonOutput = false })

	var buf bytes.Buffer
	jsonOutput = false
	printError(&buf, "unknown task or group \"x\"", errors.New("task not found"))
	assert.Equal(t, "Error: unknown task or group \"x\": task not found\n", buf.String())

	buf.Reset()
	jsonOutput = true
	printError(&buf, "build failed", nil)

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "build failed", got["error"]["message"])
	assert.NotContains(t, got["error"], "detail")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
		{3 << 40, "3072.0 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.n))
		})
	}
}

func TestDisplayPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "app")

	assert.Equal(t, filepath.Join("static", "all.js"), DisplayPath(root, filepath.Join(root, "static", "all.js")))
	assert.Equal(t, ".", DisplayPath(root, root))

	outside := filepath.Join(string(filepath.Separator), "opt", "vendor.js")
	assert.Equal(t, outside, DisplayPath(root, outside))
	sibling := filepath.Join(string(filepath.Separator), "srv", "app2", "x.js")
	assert.Equal(t, sibling, DisplayPath(root, sibling))
}

func TestFormatOutputs(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.TaskKind
		outputs []string
		want    string
	}{
		{"no outputs", model.KindCopy, nil, "-"},
		{"bundle", model.KindBundle, []string{"static/vendor/all.js"}, "static/vendor/all.js"},
		{"single copy", model.KindCopy, []string{"static/vendor/a.map"}, "static/vendor/a.map"},
		{"copies share a directory", model.KindCopy, []string{"static/fonts/a.woff", "static/fonts/a.ttf"}, "static/fonts/ (2 files)"},
		{"copies without directory", model.KindCopy, []string{"a.woff", "a.ttf"}, "./ (2 files)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOutputs(tt.kind, tt.outputs))
		})
	}
}
