package dart

import (
	"errors"
	"reflect"
	"testing"
)

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func deepEq[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func isErr(t testing.TB, err, kind error) {
	if !errors.Is(err, kind) {
		t.Helper()
		t.Fatalf("** got error %v, wanted %v", err, kind)
	}
}

func valEq(t testing.TB, a, e Value) {
	if !a.Equal(e) {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

// fin parses JSON straight into buffer form.
func fin(s string) Value {
	return must(ParseJSONWith([]byte(s), ParseOptions{Finalize: true}))
}

func TestMust(t *testing.T) {
	eq(t, must(1, nil), 1)

	defer func() {
		if recover() == nil {
			t.Fatalf("** ensure did not panic")
		}
	}()
	ensure(errors.New("boom"))
}
