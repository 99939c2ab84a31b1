package dart

import (
	"math"
	"sort"
)

type packer struct {
	bb bytesBuilder
}

// pack flattens v into a single finalized buffer. The result is an exact-size
// slice owned by the caller.
func pack(v Value) ([]byte, error) {
	p := packer{bytesBuilder{packBufPool.Get().([]byte)}}
	defer func() { releasePackBuf(p.bb.Buf) }()

	if err := p.appendBlock(v); err != nil {
		return nil, err
	}
	return append([]byte(nil), p.bb.Buf...), nil
}

// appendBlock appends a complete block for v at the end of the buffer.
func (p *packer) appendBlock(v Value) error {
	if v.fin && v.blk != nil {
		p.bb.Write(v.blk)
		return nil
	}

	start := p.bb.Grow(headerSize)
	var count int
	switch v.typ {
	case TypeObject:
		keys, vals, ok := v.node.view()
		if !ok {
			return errReleased("finalize")
		}
		count = len(keys)
		if err := p.appendObject(start, keys, vals); err != nil {
			return err
		}
	case TypeArray:
		_, vals, ok := v.node.view()
		if !ok {
			return errReleased("finalize")
		}
		count = len(vals)
		if err := p.appendArray(start, vals); err != nil {
			return err
		}
	case TypeString:
		count = len(v.str)
		p.bb.WriteString(v.str)
	case TypeInteger, TypeDecimal, TypeBoolean:
		p.bb.AppendUint64(v.bits)
	case TypeNull:
		// header only
	default:
		return stateErrf("finalize", "cannot represent a value of type %v", v.typ)
	}

	length := p.bb.Len() - start
	if length > maxBlockSize || count > maxBlockSize {
		return stateErrf("finalize", "cannot represent a %v of %d bytes", v.typ, length)
	}
	putHeader(p.bb.Buf[start:], v.typ, length, count)
	return nil
}

func (p *packer) appendObject(start int, keys []string, vals []Value) error {
	n := len(keys)
	order := orderPool.Get().([]int)
	defer func() { releaseOrder(order) }()
	hashes := make([]uint32, n)
	for i, k := range keys {
		order = append(order, i)
		hashes[i] = keyHash(k)
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if hashes[ia] != hashes[ib] {
			return hashes[ia] < hashes[ib]
		}
		return keys[ia] < keys[ib]
	})

	table := p.bb.Grow(n * objectEntrySize)
	for j, i := range order {
		e := table + j*objectEntrySize
		keyOff := p.bb.Len() - start
		p.bb.WriteString(keys[i])
		p.bb.PutUint32(e, hashes[i])
		p.bb.PutUint32(e+4, uint32(keyOff))
		p.bb.PutUint32(e+8, uint32(len(keys[i])))
		if err := p.fillSlot(start, e+12, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (p *packer) appendArray(start int, vals []Value) error {
	table := p.bb.Grow(len(vals) * arrayEntrySize)
	for i, v := range vals {
		if err := p.fillSlot(start, table+i*arrayEntrySize, v); err != nil {
			return err
		}
	}
	return nil
}

// fillSlot encodes v into the slot at absolute offset s, appending any
// out-of-line data. start is the absolute offset of the containing block.
func (p *packer) fillSlot(start, s int, v Value) error {
	if p.bb.Len()-start > maxBlockSize {
		return stateErrf("finalize", "cannot represent an aggregate over %d bytes", maxBlockSize)
	}
	p.bb.Buf[s] = byte(v.typ)
	switch v.typ {
	case TypeObject, TypeArray:
		off := p.bb.Len()
		if err := p.appendBlock(v); err != nil {
			return err
		}
		p.bb.PutUint64(s+4, packOffLen(off-start, p.bb.Len()-off))
	case TypeString:
		if len(v.str) <= inlineMax {
			p.bb.Buf[s+1] = byte(len(v.str))
			p.bb.PutUint16(s+2, slotFlagInline)
			copy(p.bb.Buf[s+4:s+4+inlineMax], v.str)
		} else {
			off := p.bb.Len()
			p.bb.WriteString(v.str)
			p.bb.PutUint64(s+4, packOffLen(off-start, len(v.str)))
		}
	case TypeInteger, TypeDecimal, TypeBoolean:
		p.bb.PutUint64(s+4, v.bits)
	case TypeNull:
		// zero payload
	default:
		return stateErrf("finalize", "cannot represent a value of type %v", v.typ)
	}
	return nil
}

// scalarBlock encodes a standalone block for a scalar value that was read out
// of an aggregate and therefore has no block of its own.
func scalarBlock(v Value) []byte {
	var bb bytesBuilder
	bb.Grow(headerSize)
	count := 0
	switch v.typ {
	case TypeString:
		count = len(v.str)
		bb.WriteString(v.str)
	case TypeInteger, TypeDecimal, TypeBoolean:
		bb.AppendUint64(v.bits)
	}
	putHeader(bb.Buf, v.typ, bb.Len(), count)
	return bb.Buf
}

func boolBits(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}
