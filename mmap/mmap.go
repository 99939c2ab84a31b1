// Package mmap maps files into memory, so that finalized values can be read
// straight from disk without copying.
package mmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Options uint

const (
	// Writable opens the file for writing (otherwise, it's opened read-only).
	Writable Options = 1 << 0

	// SequentialAccess is a hint requesting aggressive read-ahead.
	// Incompatible with RandomAccess. Maps to MADV_SEQUENTIAL on Unix.
	SequentialAccess Options = 1 << 1

	// RandomAccess is a hint that read ahead is less useful than normally.
	// Incompatible with SequentialAccess. Maps to MADV_RANDOM on Unix.
	RandomAccess Options = 1 << 2

	// Prefault is a hint requesting the entire file to be loaded in memory
	// for fastest access. Maps to MAP_POPULATE on Linux.
	Prefault Options = 1 << 3
)

func (o Options) Has(v Options) bool {
	return o&v != 0
}

var ErrTooLarge = errors.New("file too large to map")

// Region is a whole file mapped into memory.
type Region struct {
	f    *os.File
	data []byte
	opt  Options
}

// Open maps the whole file at path. An empty file yields an empty region.
func Open(path string, opt Options) (*Region, error) {
	flag := os.O_RDONLY
	if opt.Has(Writable) {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := fi.Size()
	if size > MaxSize || int64(int(size)) != size {
		f.Close()
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, size)
	}

	r := &Region{f: f, opt: opt}
	if size > 0 {
		r.data, err = Mmap(f, 0, int(size), opt)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("mmap %s: %w", path, err)
		}
	}
	return r, nil
}

// Bytes returns the mapped memory. It must not be used after Close, and must
// not be modified unless the region is Writable.
func (r *Region) Bytes() []byte {
	return r.data
}

func (r *Region) Len() int {
	return len(r.data)
}

// Sync flushes modifications of a Writable region to disk.
func (r *Region) Sync() error {
	if !r.opt.Has(Writable) {
		return nil
	}
	return Fdatasync(r.f, r.data)
}

// Close unmaps the memory and closes the file. It is safe to call more than
// once.
func (r *Region) Close() error {
	if r.f == nil {
		return nil
	}
	var err error
	if r.data != nil {
		err = Munmap(r.data)
		r.data = nil
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	r.f = nil
	return err
}

// WriteFile atomically replaces the file at path with data: it writes a
// temporary file next to it, syncs it and renames it into place.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	ok := false
	defer func() {
		if !ok {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Chmod(perm); err != nil {
		return err
	}
	if err := Fdatasync(f, nil); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	ok = true
	return nil
}

// Mmap maps size bytes of f into memory.
func Mmap(f *os.File, offset, size int, opt Options) ([]byte, error) {
	if offset != 0 {
		panic("non-zero offset not yet supported")
	}
	return mmap(f, size, opt)
}

// Munmap unmaps the given slice from memory. The slice must have been returned
// by Mmap.
func Munmap(b []byte) error {
	return munmap(b)
}
