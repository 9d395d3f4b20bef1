package file

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/custodia-labs/policy-store/internal/core/domain"
	"github.com/custodia-labs/policy-store/internal/logger"
)

// AtomicWriter replaces files by write-to-temp then rename.
type AtomicWriter struct {
	rename  func(oldpath, newpath string) error
	sync    func(f *os.File) error
	syncDir func(dir string) error
}

// WriterOption configures an AtomicWriter.
type WriterOption func(*AtomicWriter)

// WithRename overrides the final rename step.
func WithRename(fn func(oldpath, newpath string) error) WriterOption {
	return func(w *AtomicWriter) { w.rename = fn }
}

// WithSync overrides the fsync of the temporary file.
func WithSync(fn func(f *os.File) error) WriterOption {
	return func(w *AtomicWriter) { w.sync = fn }
}

// WithSyncDir overrides the fsync of the parent directory after the rename.
func WithSyncDir(fn func(dir string) error) WriterOption {
	return func(w *AtomicWriter) { w.syncDir = fn }
}

// NewAtomicWriter creates a writer using os.Rename and File.Sync.
func NewAtomicWriter(opts ...WriterOption) *AtomicWriter {
	w := &AtomicWriter{
		rename:  os.Rename,
		sync:    (*os.File).Sync,
		syncDir: syncDir,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFile atomically replaces path with data. The parent directory must
// exist. On any failure the previous content of path is untouched and the
// temporary file is removed. Errors wrap domain.ErrIOFailure.
func (w *AtomicWriter) WriteFile(path string, data []byte, perm os.FileMode) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return domain.IOError("creating temp file", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.IOError("writing "+name, err)
	}
	if err := w.sync(tmp); err != nil {
		tmp.Close()
		return domain.IOError("syncing "+name, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.IOError("closing temp file", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return domain.IOError("setting permissions", err)
	}
	if err := w.rename(tmpPath, path); err != nil {
		return domain.IOError("renaming to "+name, err)
	}
	success = true

	// Persists the rename. Best effort: the new content is already in place.
	if err := w.syncDir(dir); err != nil {
		logger.Debug("directory sync failed", "dir", dir, "error", err)
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and atomically replaces
// path with it. An encoding failure returns before any file is created.
func (w *AtomicWriter) WriteJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return domain.IOError("encoding "+filepath.Base(path), err)
	}
	return w.WriteFile(path, data, perm)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
