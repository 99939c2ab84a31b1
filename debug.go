package dart

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const indentStep = "  "

// Dump describes the block structure of a finalized value, one block or slot
// per line, with offsets relative to the start of the buffer. Heap values fail
// with ErrState.
func (v Value) Dump() (string, error) {
	data, err := v.Bytes()
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	dumpBlock(&buf, "", block(data), 0)
	return buf.String(), nil
}

func dumpBlock(w *strings.Builder, indent string, b block, base int) {
	typ := b.typ()
	fmt.Fprintf(w, "%s@%d %v block length=%d count=%d", indent, base, typ, b.length(), b.count())
	switch typ {
	case TypeObject, TypeArray:
		w.WriteByte('\n')
	default:
		fmt.Fprintf(w, ": %s\n", scalarText(blockValue(b, Unsafe)))
		return
	}

	indent += indentStep
	for i := range b.count() {
		off := base + headerSize + i*b.entrySize()
		fmt.Fprintf(w, "%s@%d [%d]", indent, off, i)
		if typ == TypeObject {
			fmt.Fprintf(w, " %q hash=%08x", b.key(i), b.keyHash(i))
		}
		s := b.slot(i)
		styp := Type(s[0])
		switch styp {
		case TypeObject, TypeArray:
			o, n := unpackOffLen(binary.LittleEndian.Uint64(s[4:]))
			fmt.Fprintf(w, " %v -> @%d\n", styp, base+o)
			dumpBlock(w, indent+indentStep, b[o:o+n], base+o)
		case TypeString:
			if binary.LittleEndian.Uint16(s[2:])&slotFlagInline != 0 {
				fmt.Fprintf(w, " string inline: %s\n", scalarText(slotValue(b, s, Unsafe)))
			} else {
				o, n := unpackOffLen(binary.LittleEndian.Uint64(s[4:]))
				fmt.Fprintf(w, " string @%d+%d: %s\n", base+o, n, scalarText(slotValue(b, s, Unsafe)))
			}
		default:
			fmt.Fprintf(w, " %v: %s\n", styp, scalarText(slotValue(b, s, Unsafe)))
		}
	}
}

func scalarText(v Value) string {
	switch v.typ {
	case TypeString:
		return strconv.Quote(v.str)
	case TypeInteger:
		return strconv.FormatInt(int64(v.bits), 10)
	case TypeDecimal:
		return strconv.FormatFloat(math.Float64frombits(v.bits), 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.bits != 0)
	case TypeNull:
		return "null"
	default:
		return v.typ.String()
	}
}
