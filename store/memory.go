package store

import (
	"bytes"
	"slices"
	"sort"
	"sync"

	"github.com/andreyvit/dart"
)

type memStore struct {
	mu      sync.RWMutex
	buckets map[string]*memBucket
	closed  bool
}

// NewMemory returns a transient in-memory Store, mostly for tests.
func NewMemory() Store {
	return &memStore{buckets: make(map[string]*memBucket)}
}

type memBucket struct {
	items []memKV // sorted by key
}

type memKV struct {
	key   []byte
	value []byte // never modified once stored
}

func (b *memBucket) find(key []byte) (int, bool) {
	i := sort.Search(len(b.items), func(i int) bool {
		return bytes.Compare(b.items[i].key, key) >= 0
	})
	return i, i < len(b.items) && bytes.Equal(b.items[i].key, key)
}

func (s *memStore) Put(bucket, key string, v dart.Value) error {
	data, err := valueBytes(v)
	if err != nil {
		return err
	}
	data = slices.Clone(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		b = &memBucket{}
		s.buckets[bucket] = b
	}
	k := []byte(key)
	if i, ok := b.find(k); ok {
		b.items[i].value = data
	} else {
		b.items = slices.Insert(b.items, i, memKV{key: k, value: data})
	}
	return nil
}

func (s *memStore) Get(bucket, key string) (dart.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return dart.Value{}, ErrClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		return dart.Value{}, ErrNotFound
	}
	i, ok := b.find([]byte(key))
	if !ok {
		return dart.Value{}, ErrNotFound
	}
	return dart.FromBytes(b.items[i].value)
}

func (s *memStore) Delete(bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		return nil
	}
	if i, ok := b.find([]byte(key)); ok {
		b.items = slices.Delete(b.items, i, i+1)
	}
	return nil
}

func (s *memStore) Keys(bucket string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	b := s.buckets[bucket]
	if b == nil {
		return nil, nil
	}
	keys := make([]string, len(b.items))
	for i, kv := range b.items {
		keys[i] = string(kv.key)
	}
	return keys, nil
}

func (s *memStore) Scan(bucket string, fn func(key string, v dart.Value) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	var items []memKV
	if b := s.buckets[bucket]; b != nil {
		items = slices.Clone(b.items)
	}
	s.mu.RUnlock()

	for _, kv := range items {
		v, err := dart.FromBytes(kv.value)
		if err != nil {
			return err
		}
		if err := fn(string(kv.key), v); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Stats(bucket string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}
	var st Stats
	if b := s.buckets[bucket]; b != nil {
		st.Keys = len(b.items)
		for _, kv := range b.items {
			st.DataSize += len(kv.key) + len(kv.value)
			st.DataAlloc += cap(kv.key) + cap(kv.value)
		}
	}
	return st, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}
