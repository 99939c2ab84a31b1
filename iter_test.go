package dart

import "testing"

func TestIterator_object(t *testing.T) {
	obj := MustParseJSON(`{"b":1,"a":2,"c":3}`)
	it := must(obj.Iter())
	var keys []string
	var vals []int64
	for ; !it.Done(); it.Next() {
		keys = append(keys, it.Key())
		vals = append(vals, must(it.Value().Int()))
	}
	deepEq(t, keys, []string{"b", "a", "c"})
	deepEq(t, vals, []int64{1, 2, 3})
	eq(t, it.Value().Type(), TypeInvalid)
	eq(t, it.Key(), "")
}

func TestIterator_array(t *testing.T) {
	it := must(MustParseJSON(`[10,20]`).Iter())
	eq(t, it.Index(), 0)
	eq(t, it.Key(), "")
	eq(t, must(it.Value().Int()), int64(10))
	it.Next()
	eq(t, it.Index(), 1)
	eq(t, must(it.Value().Int()), int64(20))
	it.Next()
	eq(t, it.Done(), true)
	it.Next()
	eq(t, it.Done(), true)
}

func TestIterator_empty(t *testing.T) {
	for _, v := range []Value{MakeObject(), MakeArray(), fin(`{}`), fin(`[]`)} {
		eq(t, must(v.Iter()).Done(), true)
	}
}

func TestIterator_scalar(t *testing.T) {
	_, err := MakeString("s").Iter()
	isErr(t, err, ErrType)
}

func TestIterator_snapshot(t *testing.T) {
	arr := MustParseJSON(`[{"k":1},2]`)
	it := must(arr.Iter())

	ensure(arr.Clear())
	ensure(arr.Push("new"))

	first := it.Value()
	eq(t, must(must(first.Field("k")).Int()), int64(1))
	it.Next()
	eq(t, must(it.Value().Int()), int64(2))
	it.Next()
	eq(t, it.Done(), true)

	ensure(it.Reset())
	eq(t, must(it.Value().Str()), "new")
	it.Next()
	eq(t, it.Done(), true)
}

func TestIterator_holdsChildren(t *testing.T) {
	arr := MustParseJSON(`[[1]]`)
	it := must(arr.Iter())
	peek := it.Value()
	eq(t, peek.RefCount(), 2)

	arr.Release()
	eq(t, peek.Type(), TypeArray)

	it.Close()
	eq(t, peek.Type(), TypeInvalid)
	eq(t, it.Done(), true)
}

func TestIterator_resetAfterRelease(t *testing.T) {
	arr := MustParseJSON(`[1]`)
	it := must(arr.Iter())
	peek := arr
	arr.Release()
	isErr(t, it.Reset(), ErrState)
	eq(t, peek.Type(), TypeInvalid)
	eq(t, it.Done(), true)
}

func TestIterator_buffer(t *testing.T) {
	f := fin(`{"x":1,"y":[true],"z":"zzz"}`)
	got := map[string]string{}
	for k, v := range f.Items() {
		got[k] = v.String()
	}
	deepEq(t, got, map[string]string{"x": "1", "y": "[true]", "z": `"zzz"`})
}

func TestItems_breakEarly(t *testing.T) {
	obj := MustParseJSON(`{"a":[1],"b":[2],"c":[3]}`)
	var keys []string
	for k := range obj.Items() {
		keys = append(keys, k)
		if k == "b" {
			break
		}
	}
	deepEq(t, keys, []string{"a", "b"})
	c := must(obj.Field("c"))
	eq(t, c.RefCount(), 2)
}

func TestElements(t *testing.T) {
	arr := MustParseJSON(`["a","b","c"]`)
	var idx []int
	var vals []string
	for i, v := range arr.Elements() {
		idx = append(idx, i)
		vals = append(vals, must(v.Str()))
	}
	deepEq(t, idx, []int{0, 1, 2})
	deepEq(t, vals, []string{"a", "b", "c"})

	for range MustParseJSON(`{"a":1}`).Elements() {
		t.Fatalf("** Elements yielded for an object")
	}
	for range arr.Items() {
		t.Fatalf("** Items yielded for an array")
	}

	var sum int64
	for _, v := range fin(`[1,2,3]`).Elements() {
		sum += must(v.Int())
	}
	eq(t, sum, int64(6))
}
