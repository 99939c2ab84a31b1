package dart

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type ParseOptions struct {
	// Finalize returns the result in buffer form.
	Finalize bool

	// Tier of the heap values built while parsing. Defaults to Safe.
	Tier Tier

	// MaxDepth limits nesting of objects and arrays. Defaults to MaxDepth.
	MaxDepth int
}

// ParseJSON parses a single JSON value into heap form.
func ParseJSON(data []byte) (Value, error) {
	return ParseJSONWith(data, ParseOptions{})
}

func ParseJSONString(s string) (Value, error) {
	return ParseJSONWith([]byte(s), ParseOptions{})
}

// ParseJSONWith parses a single JSON value. Object keys keep their document
// order, and a repeated key keeps its first position and its last value.
// Numbers written without a fraction or exponent that fit in int64 become
// integers; all other numbers become decimals.
func ParseJSONWith(data []byte, opt ParseOptions) (Value, error) {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = MaxDepth
	}
	if !json.Valid(data) {
		return Value{}, syntaxError(data)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &jsonParser{dec: dec, tier: opt.Tier, maxDepth: opt.MaxDepth}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, parseErrf(err, "invalid JSON")
	}
	v, err := p.value(tok, 0)
	if err != nil {
		return Value{}, err
	}
	if tok, err := dec.Token(); err != io.EOF {
		v.Release()
		if err != nil {
			return Value{}, parseErrf(err, "trailing data")
		}
		return Value{}, parseErrf(nil, "trailing data: %v", tok)
	}

	if opt.Finalize {
		fv, err := v.Finalize()
		v.Release()
		return fv, err
	}
	return v, nil
}

// syntaxError produces a readable error for data that failed validation.
func syntaxError(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return parseErrf(nil, "empty input")
	}
	var x any
	err := json.Unmarshal(data, &x)
	if err == nil {
		err = errors.New("malformed JSON")
	}
	return parseErrf(err, "invalid JSON")
}

type jsonParser struct {
	dec      *json.Decoder
	tier     Tier
	maxDepth int
}

func (p *jsonParser) value(tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if depth >= p.maxDepth {
			return Value{}, parseErrf(nil, "nesting deeper than %d", p.maxDepth)
		}
		switch t {
		case '{':
			return p.object(depth + 1)
		case '[':
			return p.array(depth + 1)
		}
		return Value{}, parseErrf(nil, "unexpected %v", t)
	case string:
		return p.tier.MakeString(t), nil
	case json.Number:
		v, ok := p.tier.number(string(t))
		if !ok {
			return Value{}, parseErrf(nil, "number %s out of range", t)
		}
		return v, nil
	case float64:
		return p.tier.MakeDecimal(t), nil
	case bool:
		return p.tier.MakeBoolean(t), nil
	case nil:
		return p.tier.MakeNull(), nil
	}
	return Value{}, parseErrf(nil, "unexpected token %v", tok)
}

func (p *jsonParser) object(depth int) (Value, error) {
	obj := p.tier.MakeObject()
	for {
		tok, err := p.dec.Token()
		if err != nil {
			obj.Release()
			return Value{}, parseErrf(err, "invalid JSON")
		}
		if d, ok := tok.(json.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			obj.Release()
			return Value{}, parseErrf(nil, "expected object key, got %v", tok)
		}
		tok, err = p.dec.Token()
		if err != nil {
			obj.Release()
			return Value{}, parseErrf(err, "invalid JSON")
		}
		child, err := p.value(tok, depth)
		if err != nil {
			obj.Release()
			return Value{}, err
		}
		obj.node.put(key, child)
	}
}

func (p *jsonParser) array(depth int) (Value, error) {
	arr := p.tier.MakeArray()
	for {
		tok, err := p.dec.Token()
		if err != nil {
			arr.Release()
			return Value{}, parseErrf(err, "invalid JSON")
		}
		if d, ok := tok.(json.Delim); ok && d == ']' {
			return arr, nil
		}
		child, err := p.value(tok, depth)
		if err != nil {
			arr.Release()
			return Value{}, err
		}
		arr.node.vals = append(arr.node.vals, child)
	}
}

// number classifies a JSON number literal.
func (t Tier) number(s string) (Value, bool) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return t.MakeInteger(i), true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, false
	}
	return t.MakeDecimal(f), true
}

// JSON returns the JSON text of v. Heap objects keep insertion order; buffer
// objects come out in storage order. Decimals always carry a fraction or an
// exponent; NaN and infinities fail with ErrType.
func (v Value) JSON() ([]byte, error) {
	return v.AppendJSON(nil)
}

func (v Value) AppendJSON(buf []byte) ([]byte, error) {
	if err := v.live("serialize"); err != nil {
		return buf, err
	}
	return appendJSON(buf, v)
}

func appendJSON(buf []byte, v Value) ([]byte, error) {
	var err error
	switch v.typ {
	case TypeObject:
		keys, vals, ok := v.entries()
		if !ok {
			return buf, errReleased("serialize")
		}
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = appendJSONString(buf, k); err != nil {
				return buf, err
			}
			buf = append(buf, ':')
			if buf, err = appendJSON(buf, vals[i]); err != nil {
				return buf, err
			}
		}
		return append(buf, '}'), nil
	case TypeArray:
		_, vals, ok := v.entries()
		if !ok {
			return buf, errReleased("serialize")
		}
		buf = append(buf, '[')
		for i, c := range vals {
			if i > 0 {
				buf = append(buf, ',')
			}
			if buf, err = appendJSON(buf, c); err != nil {
				return buf, err
			}
		}
		return append(buf, ']'), nil
	case TypeString:
		return appendJSONString(buf, v.str)
	case TypeInteger:
		return strconv.AppendInt(buf, int64(v.bits), 10), nil
	case TypeDecimal:
		return appendDecimal(buf, math.Float64frombits(v.bits))
	case TypeBoolean:
		return strconv.AppendBool(buf, v.bits != 0), nil
	case TypeNull:
		return append(buf, "null"...), nil
	default:
		return buf, typeErrf("serialize", "cannot serialize %v", v.typ)
	}
}

func appendDecimal(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return buf, typeErrf("serialize", "%v has no JSON representation", f)
	}
	n := len(buf)
	buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	if !bytes.ContainsAny(buf[n:], ".e") {
		buf = append(buf, ".0"...)
	}
	return buf, nil
}

func appendJSONString(buf []byte, s string) ([]byte, error) {
	b, err := json.MarshalWithOption(s, json.DisableHTMLEscape())
	if err != nil {
		return buf, typeErrf("serialize", "cannot encode string: %v", err)
	}
	return append(buf, b...), nil
}

// MarshalJSON implements json.Marshaler. The zero Value marshals as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.typ == TypeInvalid && v.node == nil {
		return []byte("null"), nil
	}
	return v.JSON()
}

// UnmarshalJSON implements json.Unmarshaler, replacing v with a safe heap
// value.
func (v *Value) UnmarshalJSON(data []byte) error {
	nv, err := ParseJSON(data)
	if err != nil {
		return err
	}
	if v.node != nil {
		v.Release()
	}
	*v = nv
	return nil
}

// MustParseJSON is ParseJSONString that panics on error, for literals in
// tests and initializers.
func MustParseJSON(s string) Value {
	return must(ParseJSONString(s))
}
