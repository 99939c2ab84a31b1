package dart

import "encoding/binary"

// MaxDepth is the deepest nesting accepted when decoding JSON or binary data.
const MaxDepth = 10000

// validate checks that data is a well-formed block tree in the exact layout
// pack produces, so that block accessors never need bounds checks of their
// own. Every byte belongs to exactly one block, so the cost is linear.
func validate(data []byte) error {
	return validateBlock(data, data, 0, 0)
}

func validateBlock(data, b []byte, base, depth int) error {
	if depth > MaxDepth {
		return dataErrf(data, base, nil, "nesting deeper than %d", MaxDepth)
	}
	if len(b) < headerSize {
		return dataErrf(data, base, nil, "truncated header: %d bytes", len(b))
	}
	if b[0] != blockMagic {
		return dataErrf(data, base, nil, "invalid magic %02x", b[0])
	}
	if b[1] != blockVersion {
		return dataErrf(data, base+1, nil, "unsupported version %d", b[1])
	}
	typ := Type(b[2])
	if !typ.valid() {
		return dataErrf(data, base+2, nil, "invalid type %d", b[2])
	}
	if b[3] != 0 || binary.LittleEndian.Uint32(b[12:]) != 0 {
		return dataErrf(data, base+3, nil, "reserved header bits set")
	}
	length := uint64(binary.LittleEndian.Uint32(b[4:]))
	if length != uint64(len(b)) {
		return dataErrf(data, base+4, nil, "block length %d does not match available %d bytes", length, len(b))
	}
	count := uint64(binary.LittleEndian.Uint32(b[8:]))

	switch typ {
	case TypeString:
		if headerSize+count != length {
			return dataErrf(data, base+8, nil, "string of %d bytes in a block of %d", count, length)
		}
		return nil
	case TypeInteger, TypeDecimal, TypeBoolean:
		if count != 0 || length != headerSize+scalarSize {
			return dataErrf(data, base+4, nil, "malformed %v block", typ)
		}
		if typ == TypeBoolean && binary.LittleEndian.Uint64(b[headerSize:]) > 1 {
			return dataErrf(data, base+headerSize, nil, "invalid boolean")
		}
		return nil
	case TypeNull:
		if count != 0 || length != headerSize {
			return dataErrf(data, base+4, nil, "malformed null block")
		}
		return nil
	}

	blk := block(b)
	es := uint64(blk.entrySize())
	tableEnd := headerSize + count*es
	if tableEnd > length {
		return dataErrf(data, base+8, nil, "%d entries do not fit in %d bytes", count, length)
	}

	// The data area is a back-to-back sequence of each entry's key bytes and
	// out-of-line payload, in entry order. Regions therefore never overlap,
	// which keeps validation linear in the size of the buffer.
	next := tableEnd
	var prevHash uint32
	var prevKey string
	for i := 0; i < int(count); i++ {
		entryOff := base + headerSize + i*int(es)
		if typ == TypeObject {
			e := blk.entry(i)
			h := binary.LittleEndian.Uint32(e)
			keyOff := uint64(binary.LittleEndian.Uint32(e[4:]))
			keyLen := uint64(binary.LittleEndian.Uint32(e[8:]))
			if keyOff != next || keyOff+keyLen > length {
				return dataErrf(data, entryOff, nil, "key %d misplaced or out of bounds", i)
			}
			next += keyLen
			key := bytesToString(b[keyOff : keyOff+keyLen])
			if keyHash(key) != h {
				return dataErrf(data, entryOff, nil, "key %d hash mismatch", i)
			}
			if i > 0 && (h < prevHash || (h == prevHash && key <= prevKey)) {
				return dataErrf(data, entryOff, nil, "key %d out of order or duplicated", i)
			}
			prevHash, prevKey = h, key
		}
		if err := validateSlot(data, blk, blk.slot(i), base, entryOff, &next, length, depth); err != nil {
			return err
		}
	}
	if next != length {
		return dataErrf(data, base+int(next), nil, "%d unused bytes at the end of %v block", length-next, typ)
	}
	return nil
}

func validateSlot(data []byte, b block, s []byte, base, off int, next *uint64, length uint64, depth int) error {
	typ := Type(s[0])
	inlineLen := s[1]
	flags := binary.LittleEndian.Uint16(s[2:])
	payload := binary.LittleEndian.Uint64(s[4:])
	if !typ.valid() {
		return dataErrf(data, off, nil, "invalid slot type %d", s[0])
	}
	if typ == TypeString && flags == slotFlagInline {
		if inlineLen > inlineMax {
			return dataErrf(data, off, nil, "inline string of %d bytes", inlineLen)
		}
		for _, c := range s[4+int(inlineLen):] {
			if c != 0 {
				return dataErrf(data, off, nil, "garbage after inline string")
			}
		}
		return nil
	}
	if flags != 0 || inlineLen != 0 {
		return dataErrf(data, off, nil, "invalid slot flags")
	}

	switch typ {
	case TypeObject, TypeArray, TypeString:
		o, n := unpackOffLen(payload)
		if uint64(o) != *next || uint64(o)+uint64(n) > length {
			return dataErrf(data, off, nil, "%v payload misplaced or out of bounds", typ)
		}
		*next += uint64(n)
		if typ == TypeString {
			if n <= inlineMax {
				return dataErrf(data, off, nil, "string of %d bytes stored out of line", n)
			}
			return nil
		}
		child := b[o : o+n]
		if err := validateBlock(data, child, base+o, depth+1); err != nil {
			return err
		}
		if block(child).typ() != typ {
			return dataErrf(data, base+o+2, nil, "slot says %v, block says %v", typ, block(child).typ())
		}
	case TypeBoolean:
		if payload > 1 {
			return dataErrf(data, off, nil, "invalid boolean")
		}
	case TypeNull:
		if payload != 0 {
			return dataErrf(data, off, nil, "invalid null")
		}
	}
	return nil
}
