package mmap

import (
	"math"
	"os"
)

// MaxSize is the largest file Open will map: the 48-bit user address space
// on 64-bit platforms, and the int range elsewhere.
const MaxSize = min(math.MaxInt, 1<<48-1)

// Fdatasync flushes the data written to f, skipping metadata such as
// modification times where the platform allows it. mapping, if not nil, is
// a writable mapping of f that some platforms must flush separately.
//
// A failed sync leaves the page cache in an unknown state. Callers must treat
// the file as lost rather than retrying.
func Fdatasync(f *os.File, mapping []byte) error {
	return datasync(f, mapping)
}
