package dart

// Bytes returns the buffer of a finalized value. The slice is shared with v
// and every handle derived from it and must not be modified.
func (v Value) Bytes() ([]byte, error) {
	if err := v.live("bytes"); err != nil {
		return nil, err
	}
	if !v.fin {
		return nil, stateErrf("bytes", "value is not finalized")
	}
	if v.blk == nil {
		return scalarBlock(v), nil
	}
	return v.blk, nil
}

// FromBytes validates b and returns a finalized value over it without
// copying. b must not be modified while the value or anything derived from it
// is in use. Malformed input fails with a *DataError matching ErrParse.
func FromBytes(b []byte) (Value, error) {
	return Safe.FromBytes(b)
}

func (t Tier) FromBytes(b []byte) (Value, error) {
	if err := validate(b); err != nil {
		return Value{}, err
	}
	return blockValue(block(b[:len(b):len(b)]), t), nil
}

// FromBytesCopy is FromBytes on a private copy of b.
func FromBytesCopy(b []byte) (Value, error) {
	return Safe.FromBytes(append([]byte(nil), b...))
}
