package bundle

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/moby/sys/atomicwriter"
	"github.com/zeebo/blake3"

	"github.com/shinji-kodama/vendor-bundler/internal/model"
)

// filePerm is the permission of every written output. Vendor assets are
// served as static files, so they only need to be world-readable.
const filePerm os.FileMode = 0644

// dirPerm is used when creating missing output directories.
const dirPerm os.FileMode = 0755

// Run executes a single resolved task and returns what it wrote.
//
// The task is validated first so a malformed task never touches the
// filesystem. Timing covers reading and writing only.
func Run(ctx context.Context, task model.Task) (*model.TaskResult, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		outputs []model.OutputFile
		err     error
	)
	switch task.Kind {
	case model.KindBundle:
		var out model.OutputFile
		out, err = Concat(ctx, task.Name, task.Sources, filepath.Join(task.OutputDir, task.Output))
		outputs = []model.OutputFile{out}
	case model.KindCopy:
		outputs, err = CopyFiles(ctx, task.Name, task.Sources, task.OutputDir)
	}
	if err != nil {
		return nil, err
	}

	return &model.TaskResult{
		Task:     task.Name,
		Kind:     task.Kind,
		Outputs:  outputs,
		Duration: time.Since(start),
	}, nil
}

// Concat writes the byte concatenation of sources, in list order, to dest.
//
// No separator is inserted between files. If any source cannot be read,
// dest is left untouched and the returned error matches
// model.ErrSourceUnreadable.
func Concat(ctx context.Context, task string, sources []string, dest string) (model.OutputFile, error) {
	var buf bytes.Buffer
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return model.OutputFile{}, err
		}
		data, err := readSource(task, src)
		if err != nil {
			return model.OutputFile{}, err
		}
		buf.Write(data)
		slog.Debug("Appended source", "task", task, "path", src, "bytes", len(data))
	}

	return WriteFile(task, dest, buf.Bytes())
}

// CopyFiles copies every source unmodified into destDir under its base name.
//
// All sources are read before anything is written, so a missing source
// fails the task without producing any of its outputs. Running CopyFiles
// twice with the same inputs yields identical outputs.
func CopyFiles(ctx context.Context, task string, sources []string, destDir string) ([]model.OutputFile, error) {
	contents := make([][]byte, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readSource(task, src)
		if err != nil {
			return nil, err
		}
		contents[i] = data
	}

	outputs := make([]model.OutputFile, 0, len(sources))
	for i, src := range sources {
		dest := filepath.Join(destDir, filepath.Base(src))
		out, err := WriteFile(task, dest, contents[i])
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// WriteFile atomically replaces dest with data, creating the parent
// directory when needed, and returns the size and digest of what was
// written. Failures match model.ErrDestinationUnwritable.
func WriteFile(task, dest string, data []byte) (model.OutputFile, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return model.OutputFile{}, model.NewDestinationError(task, dir, err)
	}

	// Staged in a temp file next to dest, then renamed over it.
	if err := atomicwriter.WriteFile(dest, data, filePerm); err != nil {
		return model.OutputFile{}, model.NewDestinationError(task, dest, err)
	}
	slog.Debug("Wrote output", "task", task, "path", dest, "bytes", len(data))

	return model.OutputFile{
		Path:   dest,
		Size:   int64(len(data)),
		Digest: Digest(data),
	}, nil
}

// Digest returns the hex-encoded BLAKE3-256 hash of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// readSource reads one input file, classifying any failure as
// model.ErrSourceUnreadable.
func readSource(task, path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, model.NewSourceError(task, path, err)
	}
	if info.IsDir() {
		return nil, model.NewSourceError(task, path, errors.New("is a directory"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewSourceError(task, path, err)
	}
	return data, nil
}
