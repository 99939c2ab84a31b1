// Package store keeps finalized values under string keys in named buckets.
//
// Values are stored as their buffer bytes verbatim and validated again on
// the way out, so a store never hands out a value that could crash a reader.
package store

import (
	"errors"

	"github.com/andreyvit/dart"
)

var (
	// ErrNotFound is returned by Get for a missing bucket or key.
	ErrNotFound = errors.New("not found")

	ErrClosed = errors.New("store is closed")
)

// Store is a keyed store of finalized values. Implementations are safe for
// concurrent use.
type Store interface {
	// Put stores a finalized value, replacing any previous one. Heap values
	// fail with dart.ErrState.
	Put(bucket, key string, v dart.Value) error

	// Get returns the value stored under key as a finalized value that does
	// not depend on the store.
	Get(bucket, key string) (dart.Value, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(bucket, key string) error

	// Keys lists the keys of a bucket in byte order.
	Keys(bucket string) ([]string, error)

	// Scan calls fn for every entry of a bucket in key order. An error from fn
	// stops the scan and is returned.
	Scan(bucket string, fn func(key string, v dart.Value) error) error

	// Stats reports the size of a bucket. A missing bucket has zero stats.
	Stats(bucket string) (Stats, error)

	Close() error
}

type Stats struct {
	Keys int

	// DataSize is the number of bytes in use by keys and values, DataAlloc the
	// number of bytes allocated for them.
	DataSize  int
	DataAlloc int
}

func valueBytes(v dart.Value) ([]byte, error) {
	return v.Bytes()
}
