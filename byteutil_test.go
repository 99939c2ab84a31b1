package dart

import (
	"encoding/binary"
	"testing"
)

func TestBytesBuilder_Basics(t *testing.T) {
	var bb bytesBuilder
	off := bb.Grow(3)
	eq(t, off, 0)
	deepEq(t, bb.Buf, []byte{0, 0, 0})

	bb.Write([]byte{1, 2})
	bb.WriteString("ab")
	ensure(bb.WriteByte(9))
	bb.AppendUint64(0x0102030405060708)
	bb.PutUint16(0, 0xBEEF)
	eq(t, bb.Len(), 3+2+2+1+8)

	want := []byte{0xEF, 0xBE, 0, 1, 2, 'a', 'b', 9}
	want = binary.LittleEndian.AppendUint64(want, 0x0102030405060708)
	deepEq(t, bb.Buf, want)
}

func TestBytesBuilder_GrowZeroesReusedMemory(t *testing.T) {
	bb := bytesBuilder{Buf: []byte{1, 2, 3, 4}[:1]}
	off := bb.Grow(3)
	eq(t, off, 1)
	deepEq(t, bb.Buf, []byte{1, 0, 0, 0})
}

func TestEnsureCapacity(t *testing.T) {
	buf := ensureCapacity(nil, 1)
	eq(t, cap(buf), 16)
	buf = append(buf, 7)
	buf = ensureCapacity(buf, 100)
	eq(t, cap(buf), 128)
	deepEq(t, buf, []byte{7})
}
