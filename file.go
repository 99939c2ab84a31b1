package dart

import (
	"os"

	"github.com/andreyvit/dart/mmap"
)

// MappedValue is a finalized value read directly from a memory-mapped file.
// The value, and every value, string or byte slice obtained from it, is only
// valid until Close; Lift or Duplicate what must outlive it.
type MappedValue struct {
	Value

	region *mmap.Region
}

// LoadFile maps a file written by SaveFile and validates it in place.
func LoadFile(path string) (*MappedValue, error) {
	r, err := mmap.Open(path, mmap.RandomAccess)
	if err != nil {
		return nil, err
	}
	v, err := FromBytes(r.Bytes())
	if err != nil {
		r.Close()
		return nil, err
	}
	return &MappedValue{Value: v, region: r}, nil
}

// Close unmaps the file.
func (m *MappedValue) Close() error {
	m.Value = Value{}
	return m.region.Close()
}

// SaveFile atomically writes the buffer of a finalized value to path. Heap
// values fail with ErrState.
func SaveFile(path string, v Value) error {
	data, err := v.Bytes()
	if err != nil {
		return err
	}
	return mmap.WriteFile(path, data, 0o644)
}

// ReadFile reads a file written by SaveFile into memory.
func ReadFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Value{}, err
	}
	return FromBytes(data)
}
