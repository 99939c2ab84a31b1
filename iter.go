package dart

import "iter"

// Iterator walks the children of an aggregate. It works on a snapshot taken
// when it is created (or reset): later mutations of a heap aggregate are not
// observed.
//
// The iterator owns a reference to every child it has not yet passed. Value
// returns a borrowed handle that stays valid until the next call to Next or
// Close; Retain it to keep it longer. An iterator that runs to the end needs
// no Close.
type Iterator struct {
	src   Value
	keys  []string
	vals  []Value
	pos   int
	owned bool
}

// Iter returns an iterator over an object's values (paired with keys) or an
// array's elements.
func (v Value) Iter() (*Iterator, error) {
	if err := v.aggregate("iterate"); err != nil {
		return nil, err
	}
	it := &Iterator{src: v}
	if err := it.load(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *Iterator) load() error {
	v := it.src
	it.pos = 0
	if v.fin {
		keys, vals, _ := v.entries()
		it.keys, it.vals, it.owned = keys, vals, false
		return nil
	}
	keys, vals, ok := v.node.snapshot()
	if !ok {
		it.keys, it.vals = nil, nil
		return errReleased("iterate")
	}
	it.keys, it.vals, it.owned = keys, vals, true
	return nil
}

// Done reports whether the iterator is exhausted.
func (it *Iterator) Done() bool {
	return it.pos >= len(it.vals)
}

// Next advances to the following child.
func (it *Iterator) Next() {
	if it.Done() {
		return
	}
	it.drop(it.pos)
	it.pos++
}

// Value returns the current child, or the zero Value when done.
func (it *Iterator) Value() Value {
	if it.Done() {
		return Value{}
	}
	return it.vals[it.pos]
}

// Key returns the current key of an object iterator, and "" otherwise.
func (it *Iterator) Key() string {
	if it.Done() || it.keys == nil {
		return ""
	}
	return it.keys[it.pos]
}

// Index returns the position of the current child.
func (it *Iterator) Index() int {
	return it.pos
}

// Reset releases what is left of the current snapshot and starts over on a
// fresh one.
func (it *Iterator) Reset() error {
	it.Close()
	return it.load()
}

// Close releases the children the iterator still holds and exhausts it.
func (it *Iterator) Close() {
	for i := it.pos; i < len(it.vals); i++ {
		it.drop(i)
	}
	it.pos = len(it.vals)
}

func (it *Iterator) drop(i int) {
	if it.owned {
		releaseValue(it.vals[i])
	}
	it.vals[i] = Value{}
}

// Items returns a sequence of an object's key/value pairs. It yields nothing
// for other values. Yielded values are borrowed as with Iterator.Value.
func (v Value) Items() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if v.Type() != TypeObject {
			return
		}
		it, err := v.Iter()
		if err != nil {
			return
		}
		defer it.Close()
		for ; !it.Done(); it.Next() {
			if !yield(it.Key(), it.Value()) {
				return
			}
		}
	}
}

// Elements returns a sequence of an array's elements with their indexes. It
// yields nothing for other values.
func (v Value) Elements() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		if v.Type() != TypeArray {
			return
		}
		it, err := v.Iter()
		if err != nil {
			return
		}
		defer it.Close()
		for ; !it.Done(); it.Next() {
			if !yield(it.Index(), it.Value()) {
				return
			}
		}
	}
}
