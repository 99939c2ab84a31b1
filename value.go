package dart

import (
	"math"
	"strings"
)

// Value is a JSON-compatible dynamically typed value in either heap form
// (mutable, a tree of refcounted nodes) or buffer form (finalized: a single
// immutable, relocatable byte block).
//
// A Value is a handle. Handles returned by this package own a reference to
// the node they point to; copying the struct does not, so use Retain to make
// another owning handle and Release to give one up. Memory is reclaimed by
// the garbage collector either way; releasing only makes ownership explicit
// and turns any later use of the handle into ErrState.
//
// The zero Value has TypeInvalid.
type Value struct {
	typ  Type
	tier Tier
	fin  bool
	node *node  // heap aggregates
	blk  block  // buffer aggregates, and buffer scalars that own a block
	str  string // strings
	bits uint64 // integers, decimals, booleans
}

// releasedNode marks handles that have been released.
var releasedNode = &node{kind: TypeInvalid, tier: Unsafe}

func (t Tier) MakeObject() Value {
	return Value{typ: TypeObject, tier: t, node: newNode(TypeObject, t)}
}

func (t Tier) MakeArray() Value {
	return Value{typ: TypeArray, tier: t, node: newNode(TypeArray, t)}
}

// MakeArrayOf returns an array of n elements, each equal to fill, which must
// be a scalar or null.
func (t Tier) MakeArrayOf(n int, fill any) (Value, error) {
	if n < 0 || n > MaxArraySize {
		return Value{}, logicErrf("make array", "invalid size %d", n)
	}
	f, err := t.childOf("make array", fill)
	if err != nil {
		return Value{}, err
	}
	if f.typ.IsAggregate() {
		releaseValue(f)
		return Value{}, typeErrf("make array", "fill value must be a scalar, got %v", f.typ)
	}
	v := t.MakeArray()
	v.node.resize(n, f)
	return v, nil
}

func (t Tier) MakeString(s string) Value {
	return Value{typ: TypeString, tier: t, str: s}
}

func (t Tier) MakeInteger(i int64) Value {
	return Value{typ: TypeInteger, tier: t, bits: uint64(i)}
}

func (t Tier) MakeDecimal(f float64) Value {
	return Value{typ: TypeDecimal, tier: t, bits: floatBits(f)}
}

func (t Tier) MakeBoolean(b bool) Value {
	return Value{typ: TypeBoolean, tier: t, bits: boolBits(b)}
}

func (t Tier) MakeNull() Value {
	return Value{typ: TypeNull, tier: t}
}

func MakeObject() Value                          { return Safe.MakeObject() }
func MakeArray() Value                           { return Safe.MakeArray() }
func MakeArrayOf(n int, fill any) (Value, error) { return Safe.MakeArrayOf(n, fill) }
func MakeString(s string) Value                  { return Safe.MakeString(s) }
func MakeInteger(i int64) Value                  { return Safe.MakeInteger(i) }
func MakeDecimal(f float64) Value                { return Safe.MakeDecimal(f) }
func MakeBoolean(b bool) Value                   { return Safe.MakeBoolean(b) }
func MakeNull() Value                            { return Safe.MakeNull() }

// Type returns the runtime type, or TypeInvalid for the zero Value and for
// released handles.
func (v Value) Type() Type {
	if v.node != nil && !v.node.alive() {
		return TypeInvalid
	}
	return v.typ
}

func (v Value) Tier() Tier        { return v.tier }
func (v Value) IsFinalized() bool { return v.fin }
func (v Value) IsObject() bool    { return v.Type() == TypeObject }
func (v Value) IsArray() bool     { return v.Type() == TypeArray }
func (v Value) IsAggregate() bool { return v.Type().IsAggregate() }
func (v Value) IsString() bool    { return v.Type() == TypeString }
func (v Value) IsInteger() bool   { return v.Type() == TypeInteger }
func (v Value) IsDecimal() bool   { return v.Type() == TypeDecimal }
func (v Value) IsBoolean() bool   { return v.Type() == TypeBoolean }
func (v Value) IsNull() bool      { return v.Type() == TypeNull }

// Retain returns a new owning handle to the same value.
func (v Value) Retain() Value {
	if v.node != nil && v.node != releasedNode {
		v.node.retain()
	}
	return v
}

// Release gives up this handle. Releasing the last handle of a heap aggregate
// releases it and every descendant no other handle refers to. Releasing an
// already released handle does nothing.
func (v *Value) Release() {
	if v.node == releasedNode {
		return
	}
	if v.node != nil {
		v.node.release()
	}
	*v = Value{typ: v.typ, tier: v.tier, fin: v.fin, node: releasedNode}
}

// RefCount returns the number of owning handles of a heap aggregate, and 0
// for everything else.
func (v Value) RefCount() int {
	if v.node == nil || v.node == releasedNode {
		return 0
	}
	return int(v.node.refCount())
}

func errReleased(op string) error {
	return stateErrf(op, "value has been released")
}

// live fails for released handles and the zero Value.
func (v Value) live(op string) error {
	if v.node != nil && !v.node.alive() {
		return errReleased(op)
	}
	if v.typ == TypeInvalid {
		return typeErrf(op, "invalid value")
	}
	return nil
}

// Unwrap returns the Go value of a scalar: string, int64, float64 or bool.
func (v Value) Unwrap() (any, error) {
	if err := v.live("unwrap"); err != nil {
		return nil, err
	}
	switch v.typ {
	case TypeString:
		return v.str, nil
	case TypeInteger:
		return int64(v.bits), nil
	case TypeDecimal:
		return math.Float64frombits(v.bits), nil
	case TypeBoolean:
		return v.bits != 0, nil
	default:
		return nil, typeErrf("unwrap", "cannot unwrap %v", v.typ)
	}
}

func (v Value) Str() (string, error) {
	if err := v.expect("unwrap", TypeString); err != nil {
		return "", err
	}
	return v.str, nil
}

func (v Value) Int() (int64, error) {
	if err := v.expect("unwrap", TypeInteger); err != nil {
		return 0, err
	}
	return int64(v.bits), nil
}

func (v Value) Float() (float64, error) {
	if err := v.expect("unwrap", TypeDecimal); err != nil {
		return 0, err
	}
	return math.Float64frombits(v.bits), nil
}

func (v Value) Bool() (bool, error) {
	if err := v.expect("unwrap", TypeBoolean); err != nil {
		return false, err
	}
	return v.bits != 0, nil
}

func (v Value) expect(op string, typ Type) error {
	if err := v.live(op); err != nil {
		return err
	}
	if v.typ != typ {
		return typeErrf(op, "%v is not a %v", v.typ, typ)
	}
	return nil
}

// Duplicate returns an independent deep copy. Heap values get fresh nodes;
// finalized values get a byte-identical copy of their buffer.
func (v Value) Duplicate() (Value, error) {
	if err := v.live("duplicate"); err != nil {
		return Value{}, err
	}
	if v.fin {
		if v.blk == nil {
			return v, nil
		}
		return blockValue(block(append([]byte(nil), v.blk...)), v.tier), nil
	}
	if v.node == nil {
		return v, nil
	}
	n, ok := deepCopy(v.node, v.typ)
	if !ok {
		return Value{}, errReleased("duplicate")
	}
	v.node = n
	return v, nil
}

func deepCopy(src *node, kind Type) (*node, bool) {
	keys, vals, ok := src.view()
	if !ok {
		return nil, false
	}
	dst := newNode(kind, src.tier)
	dst.vals = make([]Value, len(vals))
	for i, c := range vals {
		if c.node != nil {
			cn, ok := deepCopy(c.node, c.typ)
			if !ok {
				return nil, false
			}
			c.node = cn
		}
		dst.vals[i] = c
	}
	if dst.kind == TypeObject {
		dst.keys = append([]string(nil), keys...)
		for i, k := range dst.keys {
			dst.index[k] = i
		}
	}
	return dst, true
}

// Finalize returns the buffer form of v. Finalizing an already finalized
// value returns a handle sharing the same immutable bytes.
func (v Value) Finalize() (Value, error) {
	if err := v.live("finalize"); err != nil {
		if v.typ == TypeInvalid {
			return Value{}, stateErrf("finalize", "cannot finalize an invalid value")
		}
		return Value{}, err
	}
	if v.fin {
		if v.blk == nil {
			return blockValue(scalarBlock(v), v.tier), nil
		}
		return v, nil
	}
	data, err := pack(v)
	if err != nil {
		return Value{}, err
	}
	return blockValue(data, v.tier), nil
}

// Lift returns an editable heap copy of v. Strings are copied, so the result
// does not alias v's buffer.
func (v Value) Lift() (Value, error) {
	if err := v.live("lift"); err != nil {
		return Value{}, err
	}
	if !v.fin {
		return v.Duplicate()
	}
	return lift(v, v.tier), nil
}

func lift(v Value, tier Tier) Value {
	switch v.typ {
	case TypeObject:
		b := v.blk
		n := b.count()
		res := tier.MakeObject()
		res.node.keys = make([]string, n)
		res.node.vals = make([]Value, n)
		for i := range n {
			k := strings.Clone(b.key(i))
			res.node.keys[i] = k
			res.node.index[k] = i
			res.node.vals[i] = lift(b.child(i, tier), tier)
		}
		return res
	case TypeArray:
		b := v.blk
		n := b.count()
		res := tier.MakeArray()
		res.node.vals = make([]Value, n)
		for i := range n {
			res.node.vals[i] = lift(b.child(i, tier), tier)
		}
		return res
	default:
		return Value{typ: v.typ, tier: tier, str: strings.Clone(v.str), bits: v.bits}
	}
}

// Equal reports structural equality: same type and same scalar value, arrays
// with pairwise equal elements, objects with the same keys mapping to equal
// values in any order. Representation and tier do not matter. Decimals
// compare as float64, so NaN is not equal to itself.
func (v Value) Equal(other Value) bool {
	return equal(v, other)
}

func equal(a, b Value) bool {
	ta, tb := a.Type(), b.Type()
	if ta != tb {
		return false
	}
	switch ta {
	case TypeObject:
		keys, avals, ok := a.entries()
		if !ok {
			return false
		}
		if n, ok := b.count(); !ok || n != len(keys) {
			return false
		}
		for i, k := range keys {
			bv, found := b.find(k)
			if !found || !equal(avals[i], bv) {
				return false
			}
		}
		return true
	case TypeArray:
		_, avals, ok := a.entries()
		if !ok {
			return false
		}
		_, bvals, ok := b.entries()
		if !ok || len(avals) != len(bvals) {
			return false
		}
		for i := range avals {
			if !equal(avals[i], bvals[i]) {
				return false
			}
		}
		return true
	case TypeString:
		return a.str == b.str
	case TypeInteger, TypeBoolean:
		return a.bits == b.bits
	case TypeDecimal:
		return math.Float64frombits(a.bits) == math.Float64frombits(b.bits)
	default:
		return true
	}
}

// entries returns an aggregate's keys (objects only) and children without
// retaining them, for internal read-only traversals.
func (v Value) entries() (keys []string, vals []Value, ok bool) {
	if !v.fin {
		return v.node.view()
	}
	b := v.blk
	n := b.count()
	vals = make([]Value, n)
	if b.typ() == TypeObject {
		keys = make([]string, n)
	}
	for i := range n {
		if keys != nil {
			keys[i] = b.key(i)
		}
		vals[i] = b.child(i, v.tier)
	}
	return keys, vals, true
}

func (v Value) count() (int, bool) {
	if !v.fin {
		return v.node.size()
	}
	return v.blk.count(), true
}

// find looks up an object key without retaining the result.
func (v Value) find(key string) (Value, bool) {
	if v.fin {
		i := v.blk.findKey(key)
		if i < 0 {
			return Value{}, false
		}
		return v.blk.child(i, v.tier), true
	}
	n := v.node
	n.rlock()
	defer n.runlock()
	i, ok := n.find(key)
	if !ok {
		return Value{}, false
	}
	return n.vals[i], true
}

// String returns the JSON text of v, or an error marker if v cannot be
// serialized.
func (v Value) String() string {
	data, err := v.JSON()
	if err != nil {
		return "<error: " + err.Error() + ">"
	}
	return string(data)
}
