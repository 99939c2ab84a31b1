package dart

import (
	"encoding/binary"
	"math"
	"sort"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Buffer form is a tree of blocks. Every finalized value, and every aggregate
// nested in one, is a complete block that can be handed out on its own:
//
//	block  -> header payload
//	header -> magic:8 version:8 type:8 flags:8 length:32 count:32 reserved:32
//
//	object -> entry*count data
//	  entry -> keyHash:32 keyOff:32 keyLen:32 slot
//	array  -> slot*count data
//	string -> bytes (count = byte length)
//	integer, decimal, boolean -> bits:64
//	null   -> (nothing)
//
//	slot -> type:8 inlineLen:8 flags:16 payload:64
//	  scalars store their bits in payload; null has zero payload;
//	  short strings (flagInline) keep up to 8 bytes in payload;
//	  long strings and nested blocks store off:32 len:32 in payload.
//
// All integers are little-endian and all offsets are relative to the start of
// the block that contains them, so blocks are relocatable. Object entries are
// sorted by (keyHash, key), which makes key lookup a binary search. The data
// area holds each entry's key and out-of-line payload in entry order with no
// gaps, and unused inline string bytes are zero, so a value has exactly one
// encoding.
const (
	blockMagic   byte = 0xDA
	blockVersion byte = 1

	headerSize      = 16
	slotSize        = 12
	objectEntrySize = 12 + slotSize
	arrayEntrySize  = slotSize
	scalarSize      = 8
	inlineMax       = 8

	slotFlagInline uint16 = 1

	maxBlockSize = math.MaxInt32
)

// block is a view of a single block within a finalized buffer.
type block []byte

func (b block) typ() Type   { return Type(b[2]) }
func (b block) length() int { return int(binary.LittleEndian.Uint32(b[4:])) }
func (b block) count() int  { return int(binary.LittleEndian.Uint32(b[8:])) }

func (b block) entrySize() int {
	if b.typ() == TypeObject {
		return objectEntrySize
	}
	return arrayEntrySize
}

func (b block) entry(i int) []byte {
	es := b.entrySize()
	off := headerSize + i*es
	return b[off : off+es]
}

func (b block) slot(i int) []byte {
	e := b.entry(i)
	if b.typ() == TypeObject {
		return e[12:]
	}
	return e
}

func (b block) keyHash(i int) uint32 {
	return binary.LittleEndian.Uint32(b.entry(i))
}

func (b block) keyBytes(i int) []byte {
	e := b.entry(i)
	off := binary.LittleEndian.Uint32(e[4:])
	n := binary.LittleEndian.Uint32(e[8:])
	return b[off : off+n]
}

func (b block) key(i int) string {
	return bytesToString(b.keyBytes(i))
}

// findKey returns the index of key's entry, or -1.
func (b block) findKey(key string) int {
	n := b.count()
	h := keyHash(key)
	i := sort.Search(n, func(i int) bool {
		eh := b.keyHash(i)
		if eh != h {
			return eh > h
		}
		return b.key(i) >= key
	})
	if i < n && b.keyHash(i) == h && b.key(i) == key {
		return i
	}
	return -1
}

// child materializes the value stored in slot i. Scalars are copied out into
// the returned Value; strings and nested blocks alias the buffer.
func (b block) child(i int, tier Tier) Value {
	return slotValue(b, b.slot(i), tier)
}

func slotValue(b block, s []byte, tier Tier) Value {
	typ := Type(s[0])
	payload := binary.LittleEndian.Uint64(s[4:])
	v := Value{typ: typ, tier: tier, fin: true}
	switch typ {
	case TypeObject, TypeArray:
		off, n := unpackOffLen(payload)
		v.blk = b[off : off+n]
	case TypeString:
		if binary.LittleEndian.Uint16(s[2:])&slotFlagInline != 0 {
			n := int(s[1])
			v.str = bytesToString(s[4 : 4+n])
		} else {
			off, n := unpackOffLen(payload)
			v.str = bytesToString(b[off : off+n])
		}
	case TypeInteger, TypeDecimal, TypeBoolean:
		v.bits = payload
	}
	return v
}

// blockValue wraps a complete block as a finalized value.
func blockValue(b block, tier Tier) Value {
	typ := b.typ()
	v := Value{typ: typ, tier: tier, fin: true, blk: b}
	switch typ {
	case TypeString:
		v.str = bytesToString(b[headerSize : headerSize+b.count()])
	case TypeInteger, TypeDecimal, TypeBoolean:
		v.bits = binary.LittleEndian.Uint64(b[headerSize:])
	}
	return v
}

func packOffLen(off, n int) uint64 {
	return uint64(uint32(off)) | uint64(uint32(n))<<32
}

func unpackOffLen(v uint64) (off, n int) {
	return int(uint32(v)), int(uint32(v >> 32))
}

func keyHash(key string) uint32 {
	return uint32(xxhash.Sum64String(key))
}

func putHeader(buf []byte, typ Type, length, count int) {
	buf[0] = blockMagic
	buf[1] = blockVersion
	buf[2] = byte(typ)
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:], uint32(length))
	binary.LittleEndian.PutUint32(buf[8:], uint32(count))
	binary.LittleEndian.PutUint32(buf[12:], 0)
}

func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
