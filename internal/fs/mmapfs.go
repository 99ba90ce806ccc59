package fs

import (
	"fmt"
	"io"

	"golang.org/x/exp/mmap"
)

// MmapFS serves file reads through memory mappings. Pack files routinely run
// into the hundreds of megabytes; mapping them avoids double-buffering every
// revision during a scan. All non-read operations fall through to OSFS.
type MmapFS struct {
	OSFS
}

func NewMmapFS() *MmapFS {
	return &MmapFS{}
}

func (m *MmapFS) Open(path string) (io.ReadSeekCloser, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap %q: %w", path, err)
	}
	return &mmapFile{
		SectionReader: io.NewSectionReader(r, 0, int64(r.Len())),
		r:             r,
	}, nil
}

func (m *MmapFS) ReadFile(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap %q: %w", path, err)
	}
	defer r.Close()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read mmap %q: %w", path, err)
	}
	return data, nil
}

type mmapFile struct {
	*io.SectionReader
	r *mmap.ReaderAt
}

func (f *mmapFile) Close() error { return f.r.Close() }
