package fs_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/xiaozhiob/subversion/internal/fs"
)

func TestMmapFS_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack")
	content := bytes.Repeat([]byte("0123456789"), 1000)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	m := fs.NewMmapFS()
	data, err := m.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("mmap read mismatch")
	}
}

func TestMmapFS_OpenSeek(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack")
	if err := os.WriteFile(path, []byte("abcdefgh"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := fs.NewMmapFS()
	f, err := m.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "efgh" {
		t.Fatalf("unexpected read %q", buf)
	}
}

func TestMmapFS_MissingFile(t *testing.T) {
	m := fs.NewMmapFS()
	if _, err := m.ReadFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
