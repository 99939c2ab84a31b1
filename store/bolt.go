package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unsafe"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/dart"
)

type Options struct {
	// Timeout for acquiring the database file lock. Zero waits forever.
	Timeout time.Duration

	// NoSync skips fsync after each commit. Only for tests and bulk loads.
	NoSync bool

	Mode   os.FileMode
	Logger *slog.Logger
}

type boltStore struct {
	bdb    *bbolt.DB
	logger *slog.Logger
}

// OpenBolt opens or creates a Bolt database file.
func OpenBolt(path string, o Options) (Store, error) {
	if o.Mode == 0 {
		o.Mode = 0o666
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	bdb, err := bbolt.Open(path, o.Mode, &bbolt.Options{
		Timeout: o.Timeout,
		NoSync:  o.NoSync,
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	o.Logger.LogAttrs(context.Background(), slog.LevelDebug, "store: opened", slog.String("path", path))
	return &boltStore{bdb: bdb, logger: o.Logger}, nil
}

func (s *boltStore) Put(bucket, key string, v dart.Value) error {
	data, err := valueBytes(v)
	if err != nil {
		return err
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func (s *boltStore) Get(bucket, key string) (dart.Value, error) {
	var v dart.Value
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return ErrNotFound
		}
		data := b.Get(unsafeBytesFromString(key))
		if data == nil {
			return ErrNotFound
		}
		var err error
		v, err = dart.FromBytesCopy(data)
		if err != nil {
			return fmt.Errorf("store: %s/%s: %w", bucket, key, err)
		}
		return nil
	})
	return v, err
}

func (s *boltStore) Delete(bucket, key string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *boltStore) Keys(bucket string) ([]string, error) {
	var keys []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func (s *boltStore) Scan(bucket string, fn func(key string, v dart.Value) error) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, data := c.First(); k != nil; k, data = c.Next() {
			v, err := dart.FromBytesCopy(data)
			if err != nil {
				return fmt.Errorf("store: %s/%s: %w", bucket, k, err)
			}
			if err := fn(string(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *boltStore) Stats(bucket string) (Stats, error) {
	var st Stats
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unsafeBytesFromString(bucket))
		if b == nil {
			return nil
		}
		bs := b.Stats()
		st = Stats{
			Keys:      bs.KeyN,
			DataSize:  bs.LeafInuse + bs.InlineBucketInuse,
			DataAlloc: bs.BranchAlloc + bs.LeafAlloc,
		}
		return nil
	})
	return st, err
}

func (s *boltStore) Close() error {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "store: closing", slog.String("path", s.bdb.Path()))
	return s.bdb.Close()
}

func unsafeBytesFromString(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
