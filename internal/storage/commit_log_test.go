package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Write(f, []byte("hello ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(f, []byte("world")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = f.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r.Close()

	got, err := Read(r, 6, 5)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "world" {
		t.Fatalf("read mismatch: got %q", got)
	}

	if _, err := Read(r, 8, 10); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF on short read, got %v", err)
	}
}

func TestWriteReportsFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("create: %v", err)
	}
	r, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if err := Write(r, []byte("x")); err == nil {
		t.Fatalf("expected write to a read-only handle to fail")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("failed write left %d bytes behind", info.Size())
	}
}
