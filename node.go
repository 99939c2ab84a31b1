package dart

import (
	"sync"
	"sync/atomic"
)

// node is a heap-form aggregate. Objects keep keys and vals as parallel
// slices in insertion order plus an index for lookups by content; arrays only
// use vals.
//
// refs counts owning handles: values handed out by the API and parent slots.
// Safe nodes count atomically and guard keys/vals/index with mu; unsafe nodes
// skip both. A node whose kind is TypeInvalid has been released.
type node struct {
	mu    sync.RWMutex
	refs  int64
	kind  Type
	tier  Tier
	keys  []string
	vals  []Value
	index map[string]int
}

func newNode(kind Type, tier Tier) *node {
	n := &node{refs: 1, kind: kind, tier: tier}
	if kind == TypeObject {
		n.index = make(map[string]int)
	}
	return n
}

func (n *node) rlock() {
	if n.tier == Safe {
		n.mu.RLock()
	}
}

func (n *node) runlock() {
	if n.tier == Safe {
		n.mu.RUnlock()
	}
}

func (n *node) lock() {
	if n.tier == Safe {
		n.mu.Lock()
	}
}

func (n *node) unlock() {
	if n.tier == Safe {
		n.mu.Unlock()
	}
}

func (n *node) retain() {
	if n.tier == Safe {
		atomic.AddInt64(&n.refs, 1)
	} else {
		n.refs++
	}
}

func (n *node) refCount() int64 {
	if n.tier == Safe {
		return atomic.LoadInt64(&n.refs)
	} else {
		return n.refs
	}
}

// release drops one reference. At zero, the node gives up its children
// (freeing those that were exclusively owned) and becomes dead.
func (n *node) release() {
	var left int64
	if n.tier == Safe {
		left = atomic.AddInt64(&n.refs, -1)
	} else {
		n.refs--
		left = n.refs
	}
	if left > 0 {
		return
	}
	if left < 0 {
		panic("dart: node released more times than retained")
	}

	n.lock()
	vals := n.vals
	n.kind = TypeInvalid
	n.keys, n.vals, n.index = nil, nil, nil
	n.unlock()

	for _, v := range vals {
		if v.node != nil {
			v.node.release()
		}
	}
}

func (n *node) alive() bool {
	n.rlock()
	defer n.runlock()
	return n.kind != TypeInvalid
}

// view returns the node's keys and values for a read-only traversal. Safe
// nodes are copied, so the caller can walk them without holding the lock;
// unsafe ones are returned directly.
func (n *node) view() (keys []string, vals []Value, ok bool) {
	if n.tier != Safe {
		return n.keys, n.vals, n.kind != TypeInvalid
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.kind == TypeInvalid {
		return nil, nil, false
	}
	if n.keys != nil {
		keys = append([]string(nil), n.keys...)
	}
	vals = append([]Value(nil), n.vals...)
	return keys, vals, true
}

// snapshot is like view, but always copies and retains every child, so the
// result stays valid whatever happens to n afterwards.
func (n *node) snapshot() (keys []string, vals []Value, ok bool) {
	n.rlock()
	defer n.runlock()
	if n.kind == TypeInvalid {
		return nil, nil, false
	}
	if n.keys != nil {
		keys = append([]string(nil), n.keys...)
	}
	vals = append([]Value(nil), n.vals...)
	for _, v := range vals {
		if v.node != nil {
			v.node.retain()
		}
	}
	return keys, vals, true
}

func (n *node) size() (int, bool) {
	n.rlock()
	defer n.runlock()
	return len(n.vals), n.kind != TypeInvalid
}

// get returns a retained handle for the child at position i.
func (n *node) getAt(i int) Value {
	v := n.vals[i]
	if v.node != nil {
		v.node.retain()
	}
	return v
}

func (n *node) find(key string) (int, bool) {
	i, ok := n.index[key]
	return i, ok
}

// put stores an already-retained value under key, releasing any value it
// replaces.
func (n *node) put(key string, v Value) {
	if i, ok := n.index[key]; ok {
		old := n.vals[i]
		n.vals[i] = v
		releaseValue(old)
		return
	}
	n.index[key] = len(n.keys)
	n.keys = append(n.keys, key)
	n.vals = append(n.vals, v)
}

func (n *node) removeKey(key string) bool {
	i, ok := n.index[key]
	if !ok {
		return false
	}
	old := n.vals[i]
	delete(n.index, key)
	n.keys = append(n.keys[:i], n.keys[i+1:]...)
	n.vals = append(n.vals[:i], n.vals[i+1:]...)
	for j := i; j < len(n.keys); j++ {
		n.index[n.keys[j]] = j
	}
	releaseValue(old)
	return true
}

func (n *node) replaceAt(i int, v Value) {
	old := n.vals[i]
	n.vals[i] = v
	releaseValue(old)
}

func (n *node) insertAt(i int, v Value) {
	n.vals = append(n.vals, Value{})
	copy(n.vals[i+1:], n.vals[i:])
	n.vals[i] = v
}

func (n *node) removeAt(i int) Value {
	old := n.vals[i]
	n.vals = append(n.vals[:i], n.vals[i+1:]...)
	return old
}

func (n *node) resize(size int, fill Value) {
	cur := len(n.vals)
	if size < cur {
		dropped := n.vals[size:]
		for _, v := range dropped {
			releaseValue(v)
		}
		clear(dropped)
		n.vals = n.vals[:size]
		return
	}
	for cur < size {
		n.vals = append(n.vals, fill)
		cur++
	}
}

func (n *node) clearAll() {
	vals := n.vals
	n.vals = nil
	if n.kind == TypeObject {
		n.keys = nil
		n.index = make(map[string]int)
	}
	for _, v := range vals {
		releaseValue(v)
	}
}

// contains reports whether target is n or reachable from n.
func (n *node) contains(target *node) bool {
	if n == target {
		return true
	}
	_, vals, ok := n.view()
	if !ok {
		return false
	}
	for _, v := range vals {
		if v.node != nil && v.node.contains(target) {
			return true
		}
	}
	return false
}

func releaseValue(v Value) {
	if v.node != nil {
		v.node.release()
	}
}
