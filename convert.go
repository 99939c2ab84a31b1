package dart

import (
	"math"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ValueOf converts a Go value into a safe heap value. It accepts nil, bool,
// every integer and float type, string, []byte (as a string), json.Number,
// []any, map[string]any and Value. Map keys are inserted in sorted order.
func ValueOf(x any) (Value, error) {
	return Safe.ValueOf(x)
}

func (t Tier) ValueOf(x any) (Value, error) {
	return t.childOf("convert", x)
}

func (t Tier) valueOf(op string, x any, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, logicErrf(op, "nesting deeper than %d", MaxDepth)
	}
	switch x := x.(type) {
	case nil:
		return t.MakeNull(), nil
	case Value:
		return t.childOf(op, x)
	case *Value:
		return t.childOf(op, x)
	case bool:
		return t.MakeBoolean(x), nil
	case int:
		return t.MakeInteger(int64(x)), nil
	case int8:
		return t.MakeInteger(int64(x)), nil
	case int16:
		return t.MakeInteger(int64(x)), nil
	case int32:
		return t.MakeInteger(int64(x)), nil
	case int64:
		return t.MakeInteger(x), nil
	case uint:
		return t.unsigned(op, uint64(x))
	case uint8:
		return t.MakeInteger(int64(x)), nil
	case uint16:
		return t.MakeInteger(int64(x)), nil
	case uint32:
		return t.MakeInteger(int64(x)), nil
	case uint64:
		return t.unsigned(op, x)
	case float32:
		return t.MakeDecimal(float64(x)), nil
	case float64:
		return t.MakeDecimal(x), nil
	case string:
		return t.MakeString(x), nil
	case []byte:
		return t.MakeString(string(x)), nil
	case json.Number:
		v, ok := t.number(string(x))
		if !ok {
			return Value{}, logicErrf(op, "invalid number %q", x)
		}
		return v, nil
	case []any:
		arr := t.MakeArray()
		arr.node.vals = make([]Value, 0, len(x))
		for _, e := range x {
			c, err := t.valueOf(op, e, depth+1)
			if err != nil {
				arr.Release()
				return Value{}, err
			}
			arr.node.vals = append(arr.node.vals, c)
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := t.MakeObject()
		for _, k := range keys {
			c, err := t.valueOf(op, x[k], depth+1)
			if err != nil {
				obj.Release()
				return Value{}, err
			}
			obj.node.put(k, c)
		}
		return obj, nil
	}
	return Value{}, typeErrf(op, "cannot convert %T", x)
}

func (t Tier) unsigned(op string, u uint64) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, logicErrf(op, "%d overflows int64", u)
	}
	return t.MakeInteger(int64(u)), nil
}

// ToAny converts v into plain Go values: map[string]any, []any, string,
// int64, float64, bool and nil for null. Strings are copied.
func (v Value) ToAny() (any, error) {
	if err := v.live("convert"); err != nil {
		return nil, err
	}
	switch v.typ {
	case TypeObject:
		keys, vals, ok := v.entries()
		if !ok {
			return nil, errReleased("convert")
		}
		m := make(map[string]any, len(keys))
		for i, k := range keys {
			e, err := vals[i].ToAny()
			if err != nil {
				return nil, err
			}
			m[cloneString(k, v.fin)] = e
		}
		return m, nil
	case TypeArray:
		_, vals, ok := v.entries()
		if !ok {
			return nil, errReleased("convert")
		}
		a := make([]any, len(vals))
		for i, c := range vals {
			e, err := c.ToAny()
			if err != nil {
				return nil, err
			}
			a[i] = e
		}
		return a, nil
	case TypeNull:
		return nil, nil
	case TypeString:
		return cloneString(v.str, v.fin), nil
	default:
		return v.Unwrap()
	}
}

func cloneString(s string, fin bool) string {
	if fin {
		return strings.Clone(s)
	}
	return s
}
