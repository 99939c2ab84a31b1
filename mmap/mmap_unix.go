//go:build unix

package mmap

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// advice maps access pattern options to madvise hints, first match wins.
var advice = []struct {
	opt  Options
	hint int
	name string
}{
	{SequentialAccess, unix.MADV_SEQUENTIAL, "MADV_SEQUENTIAL"},
	{RandomAccess, unix.MADV_RANDOM, "MADV_RANDOM"},
}

func mmap(f *os.File, size int, opt Options) ([]byte, error) {
	prot := unix.PROT_READ
	if opt.Has(Writable) {
		prot |= unix.PROT_WRITE
	}
	flags := unix.MAP_SHARED
	if opt.Has(Prefault) {
		flags |= mapPopulate
	}

	b, err := unix.Mmap(int(f.Fd()), 0, size, prot, flags)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	for _, a := range advice {
		if !opt.Has(a.opt) {
			continue
		}
		// ENOSYS only means the hint is ignored.
		if err := unix.Madvise(b, a.hint); err != nil && !errors.Is(err, unix.ENOSYS) {
			unix.Munmap(b)
			return nil, fmt.Errorf("madvise(%s): %w", a.name, err)
		}
		break
	}
	return b, nil
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
