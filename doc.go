/*
Package dart implements a JSON-compatible document value with two
representations.

A Value starts out in heap form: a tree of reference-counted aggregate nodes
that can be built and edited in place. Finalize turns it into buffer form: a
single contiguous, immutable byte block that can be written to disk, sent over
the network, mapped back into memory and read without any parsing. Lift goes
the other way.

	obj := dart.MakeObject()
	obj.Insert("name", "dart")
	obj.Insert("tags", []any{"json", "binary"})
	fin, _ := obj.Finalize()
	data, _ := fin.Bytes()

	v, _ := dart.FromBytes(data) // validated, zero copy
	name, _ := v.Field("name")

# Representations

**Heap form.** Objects keep insertion order and a hash index; arrays are
slices. Scalars are stored inline in the Value itself, so only objects and
arrays allocate nodes.

**Buffer form.** Every aggregate is a complete, relocatable block: header,
a table of fixed-size slots, then out-of-line data (long strings and nested
blocks). Object entries are sorted by key hash, so key lookup is a binary
search. See layout.go for the exact format.

# Tiers

A heap tree is either Safe (atomic reference counts, a lock per aggregate) or
Unsafe (plain counters, confined to one goroutine). A tree never mixes tiers;
inserting a value of the other tier fails with ErrType.

# Ownership

Values returned by this package are owning handles. Retain makes another one,
Release gives one up; releasing the last handle of an aggregate releases its
children. Memory itself is always reclaimed by the garbage collector, so a
forgotten Release only costs what an ordinary Go reference would; a released
handle fails every later operation with ErrState.

# Errors

Every error matches exactly one of ErrType, ErrState, ErrLogic and ErrParse
with errors.Is. Failed operations leave their receiver unchanged.
*/
package dart
