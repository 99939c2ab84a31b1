package mmap

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOptionsHas(t *testing.T) {
	var o Options = Writable | Prefault
	if !o.Has(Writable) || o.Has(SequentialAccess) {
		t.Fatalf("Options.Has returned unexpected results for %v", o)
	}
}

func TestMmapAndMunmap(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	const size = 4096
	if err := f.Truncate(size); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	b, err := Mmap(f, 0, size, Writable)
	if err != nil {
		t.Fatalf("Mmap: %v", err)
	}
	if len(b) != size {
		t.Fatalf("len(mmap) = %d, wanted %d", len(b), size)
	}
	b[0] = 0x42
	if err := Fdatasync(f, b); err != nil {
		t.Fatalf("Fdatasync: %v", err)
	}
	if err := Munmap(b); err != nil {
		t.Fatalf("Munmap: %v", err)
	}
}

func TestOpen_accessHints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.bin")
	data := bytes.Repeat([]byte("0123456789abcdef"), 512)
	if err := WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	for _, opt := range []Options{0, SequentialAccess, RandomAccess, Prefault | RandomAccess} {
		r, err := Open(path, opt)
		if err != nil {
			t.Fatalf("Open(%v): %v", opt, err)
		}
		if !bytes.Equal(r.Bytes(), data) {
			t.Errorf("** Open(%v): mapped bytes differ", opt)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestMmap_PanicsOnNonZeroOffset(t *testing.T) {
	f := must(os.CreateTemp(t.TempDir(), "mmap_test_*"))
	defer f.Close()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_, _ = Mmap(f, 1, 1, 0)
}

func TestWriteFileThenOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	data := []byte("hello, mapped world")
	if err := WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	r, err := Open(path, SequentialAccess)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(r.Bytes(), data) {
		t.Fatalf("** got %q, wanted %q", r.Bytes(), data)
	}
	if r.Len() != len(data) {
		t.Fatalf("** got %d, wanted %d", r.Len(), len(data))
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if r.Bytes() != nil {
		t.Fatalf("Bytes after Close should be nil")
	}
}

func TestWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	ensure(WriteFile(path, []byte("first version"), 0o644))
	ensure(WriteFile(path, []byte("second"), 0o644))

	got := must(os.ReadFile(path))
	if string(got) != "second" {
		t.Fatalf("** got %q, wanted %q", got, "second")
	}
	entries := must(os.ReadDir(dir))
	if len(entries) != 1 {
		t.Fatalf("** got %d files, wanted 1 (temp files left behind?)", len(entries))
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	ensure(os.WriteFile(path, nil, 0o644))

	r, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if r.Len() != 0 {
		t.Fatalf("** got %d bytes, wanted 0", r.Len())
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), 0)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("** got %v, wanted ErrNotExist", err)
	}
}

func TestWritableRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rw.bin")
	ensure(os.WriteFile(path, []byte("abcd"), 0o644))

	r := must(Open(path, Writable))
	r.Bytes()[0] = 'X'
	ensure(r.Sync())
	ensure(r.Close())

	got := must(os.ReadFile(path))
	if string(got) != "Xbcd" {
		t.Fatalf("** got %q, wanted %q", got, "Xbcd")
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
