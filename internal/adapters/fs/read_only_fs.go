package fs

import (
	"errors"
	iofs "io/fs"
	"strings"
)

var ErrReadOnly = errors.New("filesystem is read-only")

// ReadOnlyFileSystem serves project files from any io/fs.FS, such as an
// embedded directory of sample projects.
type ReadOnlyFileSystem struct {
	fs iofs.FS
}

func NewReadOnlyFileSystem(fsys iofs.FS) *ReadOnlyFileSystem {
	return &ReadOnlyFileSystem{fs: fsys}
}

func (fs *ReadOnlyFileSystem) ReadFile(path string) ([]byte, error) {
	return iofs.ReadFile(fs.fs, strings.TrimPrefix(path, "./"))
}

func (fs *ReadOnlyFileSystem) FileExists(path string) bool {
	_, err := iofs.Stat(fs.fs, strings.TrimPrefix(path, "./"))
	return err == nil
}

func (fs *ReadOnlyFileSystem) WriteFile(path string, data []byte, perm iofs.FileMode) error {
	return ErrReadOnly
}

func (fs *ReadOnlyFileSystem) MkdirAll(path string, perm iofs.FileMode) error {
	return ErrReadOnly
}
