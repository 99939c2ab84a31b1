package dart

import (
	"errors"
	"strings"
	"testing"
)

func TestError_kinds(t *testing.T) {
	kinds := []error{ErrType, ErrState, ErrLogic, ErrParse}
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"type", MakeArray().Insert("k", 1), ErrType},
		{"state", fin(`{}`).Insert("k", 1), ErrState},
		{"logic", MakeObject().Set("k", 1), ErrLogic},
		{"parse", func() error { _, err := ParseJSONString(`{`); return err }(), ErrParse},
		{"data", func() error { _, err := FromBytes([]byte{1, 2, 3}); return err }(), ErrParse},
		{"unwrap", func() error { _, err := MakeNull().Unwrap(); return err }(), ErrType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range kinds {
				if a, e := errors.Is(tt.err, k), k == tt.kind; a != e {
					t.Errorf("** errors.Is(%v, %v) = %v, wanted %v", tt.err, k, a, e)
				}
			}
		})
	}
}

func TestError_message(t *testing.T) {
	err := MakeObject().Set("x", 1)
	eq(t, err.Error(), `dart: set: logic error: no such key "x"`)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("** err = %T, wanted *Error", err)
	}
	eq(t, e.Op, "set")
	eq(t, e.Kind, ErrLogic)
}

func TestError_wrapsCause(t *testing.T) {
	inner := errors.New("inner")
	err := parseErrf(inner, "bad %s", "input")
	if !errors.Is(err, inner) || !errors.Is(err, ErrParse) {
		t.Fatalf("** %v does not match both inner and ErrParse", err)
	}
	eq(t, err.Error(), "dart: parse: parse error: bad input: inner")
}

func TestDataError_ErrorAndUnwrap(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		inner := errors.New("inner")
		err := dataErrf([]byte{0xAA, 0xBB}, 1, inner, "oops")
		var de *DataError
		if !errors.As(err, &de) {
			t.Fatalf("err = %T, wanted *DataError", err)
		}
		if !errors.Is(err, inner) || !errors.Is(err, ErrParse) {
			t.Fatalf("errors.Is(err, inner/ErrParse) = false, wanted true")
		}
		s := err.Error()
		if !strings.Contains(s, "oops") || !strings.Contains(s, "inner") || !strings.Contains(s, "(2) aabb") {
			t.Fatalf("err.Error() = %q, wanted message with oops/inner/(2) aabb", s)
		}
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		s := dataErrf(data, 0, nil, "oops").Error()
		if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") {
			t.Fatalf("err.Error() = %q, wanted message with (200) and ...", s)
		}
	})
}
