package dart

import (
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestValue_zero(t *testing.T) {
	var v Value
	eq(t, v.Type(), TypeInvalid)
	eq(t, v.IsFinalized(), false)

	_, err := v.Size()
	isErr(t, err, ErrType)
	_, err = v.Lookup("k")
	isErr(t, err, ErrType)
	_, err = v.Unwrap()
	isErr(t, err, ErrType)
	_, err = v.JSON()
	isErr(t, err, ErrType)
	_, err = v.Finalize()
	isErr(t, err, ErrState)
}

func TestScalars(t *testing.T) {
	tests := []struct {
		v    Value
		typ  Type
		want any
	}{
		{MakeString("hello"), TypeString, "hello"},
		{MakeString("a\x00b"), TypeString, "a\x00b"},
		{MakeInteger(-42), TypeInteger, int64(-42)},
		{MakeDecimal(2.5), TypeDecimal, 2.5},
		{MakeBoolean(true), TypeBoolean, true},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			eq(t, tt.v.Type(), tt.typ)
			eq(t, tt.v.Type().IsScalar(), true)
			eq(t, must(tt.v.Unwrap()), tt.want)

			f := must(tt.v.Finalize())
			eq(t, f.IsFinalized(), true)
			eq(t, must(f.Unwrap()), tt.want)
			valEq(t, f, tt.v)
		})
	}

	eq(t, must(MakeString("x").Str()), "x")
	eq(t, must(MakeInteger(7).Int()), int64(7))
	eq(t, must(MakeDecimal(0.5).Float()), 0.5)
	eq(t, must(MakeBoolean(false).Bool()), false)

	_, err := MakeInteger(1).Str()
	isErr(t, err, ErrType)
	_, err = MakeString("1").Int()
	isErr(t, err, ErrType)
}

func TestUnwrap_nonScalars(t *testing.T) {
	for _, v := range []Value{MakeObject(), MakeArray(), MakeNull(), fin(`{}`), fin(`[]`), fin(`null`)} {
		_, err := v.Unwrap()
		isErr(t, err, ErrType)
	}
}

func TestDuplicate_scalarsAreIndependent(t *testing.T) {
	for _, v := range []Value{MakeString("s"), MakeInteger(1), MakeDecimal(1.5), MakeBoolean(true), MakeNull()} {
		before := v.String()
		d := must(v.Duplicate())
		valEq(t, d, v)

		arr := MakeArray()
		ensure(arr.Push(d))
		ensure(arr.Set(0, "changed"))
		eq(t, v.String(), before)
		eq(t, d.String(), before)
	}
}

func TestDuplicate_heap(t *testing.T) {
	orig := MustParseJSON(`{"a":[1,2],"b":{"c":true}}`)
	dup := must(orig.Duplicate())
	valEq(t, dup, orig)
	eq(t, dup.RefCount(), 1)

	a := must(dup.Field("a"))
	ensure(a.Push(3))
	ensure(dup.Erase("b"))

	eq(t, orig.String(), `{"a":[1,2],"b":{"c":true}}`)
	eq(t, dup.String(), `{"a":[1,2,3]}`)
}

func TestDuplicate_buffer(t *testing.T) {
	f := fin(`{"a":[1,2],"b":"some longer string"}`)
	d := must(f.Duplicate())
	eq(t, d.IsFinalized(), true)
	valEq(t, d, f)

	fb, db := must(f.Bytes()), must(d.Bytes())
	deepEq(t, db, fb)
	if &fb[0] == &db[0] {
		t.Fatalf("** duplicate shares the buffer")
	}
}

func TestEqual(t *testing.T) {
	a, b := MakeObject(), MakeObject()
	eq(t, a.Equal(b), true)
	ensure(a.Insert("k", "v"))
	eq(t, a.Equal(b), false)
	ensure(b.Insert("k", "v"))
	eq(t, a.Equal(b), true)

	valEq(t, MustParseJSON(`{"a":1,"b":2}`), MustParseJSON(`{"b":2,"a":1}`))
	valEq(t, MustParseJSON(`{"a":[1,{"x":null}]}`), fin(`{"a":[1,{"x":null}]}`))
	valEq(t, Unsafe.MakeInteger(1), MakeInteger(1))

	eq(t, MakeInteger(1).Equal(MakeDecimal(1)), false)
	eq(t, MustParseJSON(`[1,2]`).Equal(MustParseJSON(`[2,1]`)), false)
	eq(t, MustParseJSON(`[1,2]`).Equal(MustParseJSON(`[1,2,3]`)), false)
	eq(t, MustParseJSON(`{"a":1}`).Equal(MustParseJSON(`{"a":1,"b":1}`)), false)
	eq(t, MakeNull().Equal(MakeNull()), true)
	eq(t, MakeNull().Equal(Value{}), false)

	nan := MakeDecimal(math.NaN())
	eq(t, nan.Equal(nan), false)
}

func TestFinalizeLift(t *testing.T) {
	tree := MustParseJSON(`{"a":1,"b":[true,null,2.5,"a long string value"],"c":{"d":{},"e":[]},"":"empty key"}`)
	f := must(tree.Finalize())
	eq(t, f.IsFinalized(), true)
	eq(t, tree.IsFinalized(), false)
	valEq(t, f, tree)

	l := must(f.Lift())
	eq(t, l.IsFinalized(), false)
	valEq(t, l, tree)
	ensure(l.Insert("new", 1))
	eq(t, l.Equal(tree), false)

	// source stays editable
	ensure(tree.Insert("z", 0))

	// finalizing a buffer value shares its bytes
	f2 := must(f.Finalize())
	fb, f2b := must(f.Bytes()), must(f2.Bytes())
	eq(t, &fb[0], &f2b[0])
}

func TestLift_copiesStrings(t *testing.T) {
	f := fin(`{"key":"a value longer than inline"}`)
	data := must(f.Bytes())
	l := must(f.Lift())
	clear(data)
	eq(t, must(must(l.Field("key")).Str()), "a value longer than inline")
	deepEq(t, must(l.Keys()), []string{"key"})
}

func TestLift_heapIsDeepCopy(t *testing.T) {
	h := MustParseJSON(`{"a":[1]}`)
	l := must(h.Lift())
	ensure(must(l.Field("a")).Push(2))
	eq(t, h.String(), `{"a":[1]}`)
}

func TestFinalized_isImmutable(t *testing.T) {
	obj := fin(`{"a":1}`)
	arr := fin(`[1,2]`)
	for name, err := range map[string]error{
		"insert":  obj.Insert("b", 1),
		"update":  obj.Update("a", 2),
		"set":     obj.Set("a", 2),
		"erase":   obj.Erase("a"),
		"clear":   obj.Clear(),
		"resize":  arr.Resize(5),
		"push":    arr.Push(3),
		"unshift": arr.Unshift(0),
		"arr set": arr.Set(0, 3),
	} {
		if err == nil {
			t.Fatalf("** %s succeeded on a finalized value", name)
		}
		isErr(t, err, ErrState)
	}
	_, err := arr.Pop()
	isErr(t, err, ErrState)
	eq(t, obj.String(), `{"a":1}`)
	eq(t, arr.String(), `[1,2]`)
}

func TestRefCount_lookupsRetain(t *testing.T) {
	obj := MakeObject()
	child := MakeArray()
	ensure(obj.Insert("c", child))
	eq(t, child.RefCount(), 2)

	c := must(obj.Lookup("c"))
	eq(t, child.RefCount(), 3)
	c.Release()
	eq(t, child.RefCount(), 2)
	c.Release() // no-op
	eq(t, child.RefCount(), 2)

	r := child.Retain()
	eq(t, child.RefCount(), 3)
	r.Release()

	obj.Release()
	eq(t, obj.Type(), TypeInvalid)
	_, err := obj.Lookup("c")
	isErr(t, err, ErrState)

	// a shared child outlives its parent
	eq(t, child.RefCount(), 1)
	ensure(child.Push(1))
	eq(t, child.String(), `[1]`)
}

func TestRefCount_releaseCascades(t *testing.T) {
	root := MakeObject()
	inner := MakeObject()
	leaf := MakeArray()
	ensure(inner.Insert("leaf", leaf))
	ensure(root.Insert("inner", inner))
	innerPeek, leafPeek := inner, leaf
	inner.Release()
	leaf.Release()
	eq(t, innerPeek.RefCount(), 1)
	eq(t, leafPeek.RefCount(), 1)

	root.Release()
	eq(t, innerPeek.Type(), TypeInvalid)
	eq(t, leafPeek.Type(), TypeInvalid)
	isErr(t, leafPeek.Push(1), ErrState)
}

func TestRefCount_scalarsAndBuffers(t *testing.T) {
	eq(t, MakeInteger(1).RefCount(), 0)
	eq(t, fin(`{}`).RefCount(), 0)
	eq(t, must(MakeObject().Duplicate()).RefCount(), 1)
}

func TestTier_mixing(t *testing.T) {
	s := MakeObject()
	isErr(t, s.Insert("k", Unsafe.MakeInteger(1)), ErrType)
	isErr(t, s.Insert("k", Unsafe.MakeArray()), ErrType)
	eq(t, s.IsEmpty(), true)

	u := Unsafe.MakeArray()
	isErr(t, u.Push(MakeObject()), ErrType)
	isErr(t, u.Push(Unsafe.MakeInteger(1), MakeInteger(2)), ErrType)
	eq(t, u.IsEmpty(), true)

	ensure(u.Push([]any{1, "x"}, map[string]any{"k": true}))
	for _, c := range u.Elements() {
		eq(t, c.Tier(), Unsafe)
	}
	eq(t, u.String(), `[[1,"x"],{"k":true}]`)
}

func TestTier_unsafeTree(t *testing.T) {
	v := must(ParseJSONWith([]byte(`{"a":[1,2,{"b":null}]}`), ParseOptions{Tier: Unsafe}))
	eq(t, v.Tier(), Unsafe)
	a := must(v.Field("a"))
	eq(t, a.Tier(), Unsafe)
	eq(t, a.RefCount(), 2)
	ensure(a.Push(3))

	f := must(v.Finalize())
	eq(t, f.Tier(), Unsafe)
	l := must(f.Lift())
	eq(t, l.Tier(), Unsafe)
	valEq(t, l, v)
}

func TestInsert_finalizedValueIsLifted(t *testing.T) {
	obj := MakeObject()
	ensure(obj.Insert("f", fin(`[1,2]`)))
	c := must(obj.Field("f"))
	eq(t, c.IsFinalized(), false)
	ensure(c.Push(3))
	eq(t, obj.String(), `{"f":[1,2,3]}`)
}

func TestInsert_cycles(t *testing.T) {
	a, b := MakeArray(), MakeArray()
	ensure(a.Push(b))
	isErr(t, b.Push(a), ErrLogic)
	isErr(t, a.Push(a), ErrLogic)
	isErr(t, b.Insert(0, a), ErrLogic)
	eq(t, a.String(), `[[]]`)

	o := MakeObject()
	isErr(t, o.Insert("self", o), ErrLogic)
	eq(t, o.IsEmpty(), true)
}

func TestMakeArrayOf(t *testing.T) {
	eq(t, must(MakeArrayOf(3, "x")).String(), `["x","x","x"]`)
	eq(t, must(MakeArrayOf(0, nil)).String(), `[]`)
	eq(t, must(Unsafe.MakeArrayOf(2, nil)).Tier(), Unsafe)

	_, err := MakeArrayOf(-1, nil)
	isErr(t, err, ErrLogic)
	_, err = MakeArrayOf(2, []any{})
	isErr(t, err, ErrType)
}

func TestString(t *testing.T) {
	eq(t, fmt.Sprint(MustParseJSON(`{"a":[1,"x"]}`)), `{"a":[1,"x"]}`)
	eq(t, MakeDecimal(math.Inf(1)).String()[:7], "<error:")
}

func TestSafe_concurrentReaders(t *testing.T) {
	obj := MustParseJSON(`{"shared":{"n":1}}`)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				c := must(obj.Field("shared"))
				n := must(c.Field("n"))
				if must(n.Int()) != 1 {
					panic("wrong value")
				}
				c.Release()
				if w == 0 {
					ensure(obj.Insert(fmt.Sprint("k", i), i))
				}
			}
		}()
	}
	wg.Wait()
	shared := must(obj.Field("shared"))
	eq(t, shared.RefCount(), 2)
	eq(t, must(obj.Size()), 201)
}
