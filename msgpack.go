package dart

import (
	"bytes"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// MarshalMsgpack encodes v as MessagePack. Objects become maps, in insertion
// order for heap form.
func MarshalMsgpack(v Value) ([]byte, error) {
	bb := bytesBuilder{}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	err := v.EncodeMsgpack(enc)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

// UnmarshalMsgpack decodes a MessagePack value into safe heap form.
func UnmarshalMsgpack(data []byte) (Value, error) {
	return Safe.UnmarshalMsgpack(data)
}

func (t Tier) UnmarshalMsgpack(data []byte) (Value, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	v, err := t.decodeMsgpack(dec, 0)
	msgpack.PutDecoder(dec)
	if err != nil {
		return Value{}, err
	}
	if r.Len() != 0 {
		v.Release()
		return Value{}, dataErrf(data, len(data)-r.Len(), nil, "trailing data after msgpack value")
	}
	return v, nil
}

// EncodeMsgpack implements msgpack.CustomEncoder. The zero Value encodes as
// nil.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if v.typ == TypeInvalid && v.node == nil {
		return enc.EncodeNil()
	}
	if err := v.live("encode"); err != nil {
		return err
	}
	return encodeMsgpack(enc, v)
}

func encodeMsgpack(enc *msgpack.Encoder, v Value) error {
	switch v.typ {
	case TypeObject:
		keys, vals, ok := v.entries()
		if !ok {
			return errReleased("encode")
		}
		if err := enc.EncodeMapLen(len(keys)); err != nil {
			return err
		}
		for i, k := range keys {
			if err := enc.EncodeString(k); err != nil {
				return err
			}
			if err := encodeMsgpack(enc, vals[i]); err != nil {
				return err
			}
		}
		return nil
	case TypeArray:
		_, vals, ok := v.entries()
		if !ok {
			return errReleased("encode")
		}
		if err := enc.EncodeArrayLen(len(vals)); err != nil {
			return err
		}
		for _, c := range vals {
			if err := encodeMsgpack(enc, c); err != nil {
				return err
			}
		}
		return nil
	case TypeString:
		return enc.EncodeString(v.str)
	case TypeInteger:
		return enc.EncodeInt(int64(v.bits))
	case TypeDecimal:
		return enc.EncodeFloat64(math.Float64frombits(v.bits))
	case TypeBoolean:
		return enc.EncodeBool(v.bits != 0)
	case TypeNull:
		return enc.EncodeNil()
	default:
		return typeErrf("encode", "cannot encode %v", v.typ)
	}
}

// DecodeMsgpack implements msgpack.CustomDecoder, replacing v with a safe
// heap value.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	nv, err := Safe.decodeMsgpack(dec, 0)
	if err != nil {
		return err
	}
	if v.node != nil {
		v.Release()
	}
	*v = nv
	return nil
}

func (t Tier) decodeMsgpack(dec *msgpack.Decoder, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, parseErrf(nil, "msgpack nesting deeper than %d", MaxDepth)
	}
	c, err := dec.PeekCode()
	if err != nil {
		return Value{}, parseErrf(err, "invalid msgpack")
	}
	switch {
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		n, err := dec.DecodeMapLen()
		if err != nil {
			return Value{}, parseErrf(err, "invalid msgpack map")
		}
		obj := t.MakeObject()
		for range n {
			k, err := dec.DecodeString()
			if err != nil {
				obj.Release()
				return Value{}, parseErrf(err, "invalid msgpack map key")
			}
			child, err := t.decodeMsgpack(dec, depth+1)
			if err != nil {
				obj.Release()
				return Value{}, err
			}
			obj.node.put(k, child)
		}
		return obj, nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return Value{}, parseErrf(err, "invalid msgpack array")
		}
		arr := t.MakeArray()
		for range n {
			child, err := t.decodeMsgpack(dec, depth+1)
			if err != nil {
				arr.Release()
				return Value{}, err
			}
			arr.node.vals = append(arr.node.vals, child)
		}
		return arr, nil
	}
	x, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return Value{}, parseErrf(err, "invalid msgpack")
	}
	v, err := t.valueOf("decode", x, depth)
	if err != nil {
		return Value{}, parseErrf(nil, "unsupported msgpack value: %v", err)
	}
	return v, nil
}
