package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// AferoStore implements Store on an afero filesystem: the OS filesystem in
// production and an in-memory one in tests.
type AferoStore struct {
	fs afero.Fs
}

// NewAferoStore creates a new AferoStore.
func NewAferoStore(fs afero.Fs) *AferoStore {
	return &AferoStore{fs: fs}
}

// Fs exposes the underlying filesystem.
func (s *AferoStore) Fs() afero.Fs {
	return s.fs
}

// Open opens a file for reading.
func (s *AferoStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// ReadFile reads a whole file.
func (s *AferoStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Create starts writing path. The content goes to a temporary file next to
// it and only replaces path when the Output is committed.
func (s *AferoStore) Create(ctx context.Context, path string) (*Output, error) {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := s.fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return &Output{fs: s.fs, file: f, tmp: tmp, path: path}, nil
}

// Output is a file being written.
type Output struct {
	fs   afero.Fs
	file afero.File
	tmp  string
	path string
	done bool
}

// Write implements io.Writer.
func (o *Output) Write(p []byte) (int, error) {
	return o.file.Write(p)
}

// Path returns the final path of the file.
func (o *Output) Path() string {
	return o.path
}

// Commit closes the file and moves it into place.
func (o *Output) Commit() error {
	if o.done {
		return nil
	}
	o.done = true
	if err := o.file.Close(); err != nil {
		_ = o.fs.Remove(o.tmp)
		return fmt.Errorf("failed to close %s: %w", o.path, err)
	}
	if err := o.fs.Rename(o.tmp, o.path); err != nil {
		_ = o.fs.Remove(o.tmp)
		return fmt.Errorf("failed to move %s into place: %w", o.path, err)
	}
	return nil
}

// Abort discards everything written. It is a no-op after Commit.
func (o *Output) Abort() error {
	if o.done {
		return nil
	}
	o.done = true
	_ = o.file.Close()
	if err := o.fs.Remove(o.tmp); err != nil {
		return fmt.Errorf("failed to remove %s: %w", o.tmp, err)
	}
	return nil
}
