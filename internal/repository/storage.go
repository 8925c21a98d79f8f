package repository

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Storage opens whole files on the controller's non-volatile store.
type Storage interface {
	OpenForRead(path string) (io.ReadCloser, error)
	// OpenForWrite starts a replacement of path. Close makes the new content
	// visible; until then readers see the previous file.
	OpenForWrite(path string) (io.WriteCloser, error)
}

// aborter is implemented by writers that can drop a replacement without
// touching the existing file.
type aborter interface {
	Abort() error
}

const pendingSuffix = ".tmp"

// AferoStorage implements Storage on any afero filesystem.
type AferoStorage struct {
	fs afero.Fs
}

func NewAferoStorage(fsys afero.Fs) *AferoStorage {
	return &AferoStorage{fs: fsys}
}

// NewOSStorage is backed by the host filesystem.
func NewOSStorage() *AferoStorage {
	return NewAferoStorage(afero.NewOsFs())
}

// OpenForRead returns ErrStateNotFound for a missing file and wraps every
// other failure with ErrStorageUnavailable.
func (s *AferoStorage) OpenForRead(path string) (io.ReadCloser, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, path, err)
	}
	return f, nil
}

func (s *AferoStorage) OpenForWrite(path string) (io.WriteCloser, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: mkdir %s: %v", ErrStorageUnavailable, dir, err)
		}
	}
	tmp := path + pendingSuffix
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, tmp, err)
	}
	return &pendingFile{File: f, fs: s.fs, tmp: tmp, path: path}, nil
}

// pendingFile writes beside its target and renames over it on Close, so an
// interrupted save never leaves a truncated state file.
type pendingFile struct {
	afero.File
	fs   afero.Fs
	tmp  string
	path string
}

func (p *pendingFile) Close() error {
	if err := p.File.Sync(); err != nil {
		_ = p.Abort()
		return fmt.Errorf("sync %s: %w", p.tmp, err)
	}
	if err := p.File.Close(); err != nil {
		_ = p.fs.Remove(p.tmp)
		return fmt.Errorf("close %s: %w", p.tmp, err)
	}
	if err := p.fs.Rename(p.tmp, p.path); err != nil {
		_ = p.fs.Remove(p.tmp)
		return fmt.Errorf("rename %s: %w", p.tmp, err)
	}
	return nil
}

func (p *pendingFile) Abort() error {
	_ = p.File.Close()
	return p.fs.Remove(p.tmp)
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
