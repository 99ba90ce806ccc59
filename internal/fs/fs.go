package fs

import (
	"io"
	"os"
)

// FS abstracts the filesystem operations needed by the repository readers.
// The scanner side only ever reads; the write operations exist so tests can
// assemble fixture repositories through the same interface.
type FS interface {
	Open(path string) (io.ReadSeekCloser, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.DirEntry, error)
	IsNotExist(err error) bool
	Exists(path string) bool
	IsDir(path string) bool
}
