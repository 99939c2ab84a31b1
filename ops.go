package dart

import (
	"math"
	"strings"
)

// Insert, Update and Set policy:
//
// Objects: Insert and Update add the key or overwrite its value; Set only
// replaces the value of an existing key and fails with ErrLogic otherwise.
//
// Arrays: Insert(i, v) inserts before position i, shifting the tail, and
// i == size appends. Update(i, v) replaces element i, growing the array with
// nulls when i is past the end. Set(i, v) replaces element i and fails with
// ErrLogic when it does not exist.
//
// Negative array indexes count from the end (i + size) in every operation.

// Lookup returns the value at key (objects: a string or string Value) or index
// (arrays: any integer or integer Value). A missing object key yields null; an
// out-of-bounds index fails with ErrLogic.
func (v Value) Lookup(key any) (Value, error) {
	if err := v.aggregate("lookup"); err != nil {
		return Value{}, err
	}
	if v.typ == TypeObject {
		k, err := objectKey("lookup", key)
		if err != nil {
			return Value{}, err
		}
		return v.lookupKey(k)
	}
	i, err := arrayIndex("lookup", key)
	if err != nil {
		return Value{}, err
	}
	return v.lookupIndex(i)
}

// Field is Lookup for object keys.
func (v Value) Field(key string) (Value, error) {
	return v.Lookup(key)
}

// Index is Lookup for array indexes.
func (v Value) Index(i int) (Value, error) {
	return v.Lookup(i)
}

func (v Value) lookupKey(k string) (Value, error) {
	if v.fin {
		i := v.blk.findKey(k)
		if i < 0 {
			return v.null(), nil
		}
		return v.blk.child(i, v.tier), nil
	}
	n := v.node
	n.rlock()
	defer n.runlock()
	if n.kind == TypeInvalid {
		return Value{}, errReleased("lookup")
	}
	i, ok := n.find(k)
	if !ok {
		return v.null(), nil
	}
	return n.getAt(i), nil
}

func (v Value) lookupIndex(i int) (Value, error) {
	if v.fin {
		size := v.blk.count()
		j, ok := wrapIndex(i, size)
		if !ok {
			return Value{}, errIndex("lookup", i, size)
		}
		return v.blk.child(j, v.tier), nil
	}
	n := v.node
	n.rlock()
	defer n.runlock()
	if n.kind == TypeInvalid {
		return Value{}, errReleased("lookup")
	}
	size := len(n.vals)
	j, ok := wrapIndex(i, size)
	if !ok {
		return Value{}, errIndex("lookup", i, size)
	}
	return n.getAt(j), nil
}

// Has reports whether an object has the key, or an array has the index.
func (v Value) Has(key any) (bool, error) {
	if err := v.aggregate("has"); err != nil {
		return false, err
	}
	if v.typ == TypeObject {
		k, err := objectKey("has", key)
		if err != nil {
			return false, err
		}
		_, found := v.find(k)
		return found, nil
	}
	i, err := arrayIndex("has", key)
	if err != nil {
		return false, err
	}
	size, ok := v.count()
	if !ok {
		return false, errReleased("has")
	}
	_, ok = wrapIndex(i, size)
	return ok, nil
}

// Keys returns object keys: in insertion order for heap form, in an
// unspecified order for buffer form.
func (v Value) Keys() ([]string, error) {
	if err := v.expect("keys", TypeObject); err != nil {
		return nil, err
	}
	keys, _, ok := v.entries()
	if !ok {
		return nil, errReleased("keys")
	}
	if v.fin {
		for i, k := range keys {
			keys[i] = strings.Clone(k)
		}
	}
	return keys, nil
}

// Size returns the number of children of an aggregate, or the byte length of
// a string.
func (v Value) Size() (int, error) {
	if err := v.live("size"); err != nil {
		return 0, err
	}
	switch v.typ {
	case TypeObject, TypeArray:
		n, ok := v.count()
		if !ok {
			return 0, errReleased("size")
		}
		return n, nil
	case TypeString:
		return len(v.str), nil
	default:
		return 0, typeErrf("size", "%v has no size", v.typ)
	}
}

// IsEmpty reports whether Size is zero. It is false for values without a size.
func (v Value) IsEmpty() bool {
	n, err := v.Size()
	return err == nil && n == 0
}

func (v Value) Insert(key, val any) error {
	if err := v.mutable("insert"); err != nil {
		return err
	}
	if v.typ == TypeObject {
		return v.upsert("insert", key, val)
	}
	i, err := arrayIndex("insert", key)
	if err != nil {
		return err
	}
	child, err := v.child("insert", val)
	if err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		releaseValue(child)
		return errReleased("insert")
	}
	size := len(n.vals)
	j := i
	if j < 0 {
		j += size
	}
	if j < 0 || j > size {
		releaseValue(child)
		return errIndex("insert", i, size)
	}
	n.insertAt(j, child)
	return nil
}

func (v Value) Update(key, val any) error {
	if err := v.mutable("update"); err != nil {
		return err
	}
	if v.typ == TypeObject {
		return v.upsert("update", key, val)
	}
	i, err := arrayIndex("update", key)
	if err != nil {
		return err
	}
	child, err := v.child("update", val)
	if err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		releaseValue(child)
		return errReleased("update")
	}
	size := len(n.vals)
	j := i
	if j < 0 {
		j += size
	}
	if j < 0 || (j >= size && j >= MaxArraySize) {
		releaseValue(child)
		return errIndex("update", i, size)
	}
	if j >= size {
		n.resize(j+1, v.null())
	}
	n.replaceAt(j, child)
	return nil
}

func (v Value) Set(key, val any) error {
	if err := v.mutable("set"); err != nil {
		return err
	}
	if v.typ == TypeObject {
		k, err := objectKey("set", key)
		if err != nil {
			return err
		}
		child, err := v.child("set", val)
		if err != nil {
			return err
		}
		n := v.node
		n.lock()
		defer n.unlock()
		if n.kind == TypeInvalid {
			releaseValue(child)
			return errReleased("set")
		}
		i, ok := n.find(k)
		if !ok {
			releaseValue(child)
			return logicErrf("set", "no such key %q", k)
		}
		n.replaceAt(i, child)
		return nil
	}
	i, err := arrayIndex("set", key)
	if err != nil {
		return err
	}
	child, err := v.child("set", val)
	if err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		releaseValue(child)
		return errReleased("set")
	}
	size := len(n.vals)
	j, ok := wrapIndex(i, size)
	if !ok {
		releaseValue(child)
		return errIndex("set", i, size)
	}
	n.replaceAt(j, child)
	return nil
}

func (v Value) upsert(op string, key, val any) error {
	k, err := objectKey(op, key)
	if err != nil {
		return err
	}
	child, err := v.child(op, val)
	if err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		releaseValue(child)
		return errReleased(op)
	}
	n.put(k, child)
	return nil
}

// Erase removes a key or an element. Erasing a missing object key does
// nothing; erasing an out-of-bounds index fails with ErrLogic.
func (v Value) Erase(key any) error {
	if err := v.mutable("erase"); err != nil {
		return err
	}
	if v.typ == TypeObject {
		k, err := objectKey("erase", key)
		if err != nil {
			return err
		}
		n := v.node
		n.lock()
		defer n.unlock()
		if n.kind == TypeInvalid {
			return errReleased("erase")
		}
		n.removeKey(k)
		return nil
	}
	i, err := arrayIndex("erase", key)
	if err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		return errReleased("erase")
	}
	size := len(n.vals)
	j, ok := wrapIndex(i, size)
	if !ok {
		return errIndex("erase", i, size)
	}
	releaseValue(n.removeAt(j))
	return nil
}

// MaxArraySize is the largest length that Resize, Update and MakeArrayOf will
// pad an array to with nulls. Push and Insert are not limited by it.
const MaxArraySize = 1 << 24

// Resize changes the length of an array, appending nulls or releasing
// trailing elements.
func (v Value) Resize(size int) error {
	if err := v.expect("resize", TypeArray); err != nil {
		return err
	}
	if v.fin {
		return errFinalized("resize")
	}
	if size < 0 {
		return logicErrf("resize", "invalid size %d", size)
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		return errReleased("resize")
	}
	if size > len(n.vals) && size > MaxArraySize {
		return logicErrf("resize", "size %d exceeds %d", size, MaxArraySize)
	}
	n.resize(size, v.null())
	return nil
}

// Clear removes every key or element of an aggregate.
func (v Value) Clear() error {
	if err := v.mutable("clear"); err != nil {
		return err
	}
	n := v.node
	n.lock()
	defer n.unlock()
	if n.kind == TypeInvalid {
		return errReleased("clear")
	}
	n.clearAll()
	return nil
}

func (v Value) aggregate(op string) error {
	if err := v.live(op); err != nil {
		return err
	}
	if !v.typ.IsAggregate() {
		return typeErrf(op, "%v is not an aggregate", v.typ)
	}
	return nil
}

func (v Value) mutable(op string) error {
	if err := v.aggregate(op); err != nil {
		return err
	}
	if v.fin {
		return errFinalized(op)
	}
	return nil
}

func errFinalized(op string) error {
	return stateErrf(op, "finalized values are immutable")
}

func errIndex(op string, i, size int) error {
	return logicErrf(op, "index %d out of bounds for size %d", i, size)
}

func (v Value) null() Value {
	return Value{typ: TypeNull, tier: v.tier, fin: v.fin}
}

// child converts val into a value owned by v, refusing to create cycles.
func (v Value) child(op string, val any) (Value, error) {
	c, err := v.tier.childOf(op, val)
	if err != nil {
		return Value{}, err
	}
	if c.node != nil && c.node.contains(v.node) {
		releaseValue(c)
		return Value{}, logicErrf(op, "cannot insert an aggregate into itself")
	}
	return c, nil
}

// childOf converts x into an owned heap value of tier t. Values are retained,
// finalized values are lifted, and other Go values go through ValueOf.
func (t Tier) childOf(op string, x any) (Value, error) {
	if p, ok := x.(*Value); ok {
		if p == nil {
			return t.MakeNull(), nil
		}
		x = *p
	}
	v, ok := x.(Value)
	if !ok {
		return t.valueOf(op, x, 0)
	}
	if err := v.live(op); err != nil {
		return Value{}, err
	}
	if v.tier != t {
		return Value{}, typeErrf(op, "cannot mix %v and %v values in one tree", v.tier, t)
	}
	if v.fin {
		return lift(v, t), nil
	}
	return v.Retain(), nil
}

func wrapIndex(i, size int) (int, bool) {
	if i < 0 {
		i += size
	}
	if i < 0 || i >= size {
		return 0, false
	}
	return i, true
}

func objectKey(op string, key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case Value:
		if s, err := k.Str(); err == nil {
			return s, nil
		}
		return "", typeErrf(op, "object key must be a string, got %v", k.Type())
	}
	return "", typeErrf(op, "object key must be a string, got %T", key)
}

func arrayIndex(op string, key any) (int, error) {
	switch k := key.(type) {
	case int:
		return k, nil
	case int8:
		return int(k), nil
	case int16:
		return int(k), nil
	case int32:
		return int(k), nil
	case int64:
		return int64Index(op, k)
	case uint:
		return uint64Index(op, uint64(k))
	case uint8:
		return int(k), nil
	case uint16:
		return int(k), nil
	case uint32:
		return uint64Index(op, uint64(k))
	case uint64:
		return uint64Index(op, k)
	case Value:
		if i, err := k.Int(); err == nil {
			return int64Index(op, i)
		}
		return 0, typeErrf(op, "array index must be an integer, got %v", k.Type())
	}
	return 0, typeErrf(op, "array index must be an integer, got %T", key)
}

func int64Index(op string, i int64) (int, error) {
	if i > math.MaxInt || i < math.MinInt {
		return 0, logicErrf(op, "index %d out of range", i)
	}
	return int(i), nil
}

func uint64Index(op string, i uint64) (int, error) {
	if i > math.MaxInt {
		return 0, logicErrf(op, "index %d out of range", i)
	}
	return int(i), nil
}
