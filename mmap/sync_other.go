//go:build !linux && !openbsd

package mmap

import "os"

func datasync(f *os.File, _ []byte) error {
	return f.Sync()
}
