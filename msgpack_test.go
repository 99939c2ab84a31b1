package dart

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestMsgpack_roundTrip(t *testing.T) {
	for _, doc := range []string{
		`null`,
		`{"a":1,"b":[true,null,2.5,"s"],"c":{"d":-1000000000000}}`,
		`[[],{},"",0]`,
	} {
		heap := MustParseJSON(doc)
		data := must(MarshalMsgpack(heap))
		valEq(t, must(UnmarshalMsgpack(data)), heap)

		fdata := must(MarshalMsgpack(fin(doc)))
		valEq(t, must(UnmarshalMsgpack(fdata)), heap)
	}
}

func TestMsgpack_keepsHeapOrder(t *testing.T) {
	v := must(UnmarshalMsgpack(must(MarshalMsgpack(MustParseJSON(`{"z":1,"a":2}`)))))
	deepEq(t, must(v.Keys()), []string{"z", "a"})
}

func TestMsgpack_fromGoValues(t *testing.T) {
	data := must(msgpack.Marshal(map[string]any{
		"list":  []any{1, "two", 3.5, nil, false},
		"bytes": []byte("raw"),
		"f32":   float32(0.5),
		"big":   uint64(1 << 40),
	}))
	v := must(UnmarshalMsgpack(data))
	valEq(t, v, MustParseJSON(`{"list":[1,"two",3.5,null,false],"bytes":"raw","f32":0.5,"big":1099511627776}`))
}

func TestMsgpack_structField(t *testing.T) {
	type envelope struct {
		ID   int
		Body Value
	}
	in := envelope{ID: 7, Body: MustParseJSON(`{"k":["v"]}`)}
	data := must(msgpack.Marshal(&in))

	var out envelope
	ensure(msgpack.Unmarshal(data, &out))
	eq(t, out.ID, 7)
	valEq(t, out.Body, in.Body)
}

func TestMsgpack_errors(t *testing.T) {
	data := must(MarshalMsgpack(MakeInteger(1)))
	_, err := UnmarshalMsgpack(append(data, 0xc0))
	isErr(t, err, ErrParse)

	_, err = UnmarshalMsgpack(must(msgpack.Marshal(map[int]string{1: "a"})))
	isErr(t, err, ErrParse)

	_, err = UnmarshalMsgpack(nil)
	isErr(t, err, ErrParse)

	_, err = UnmarshalMsgpack(must(msgpack.Marshal(uint64(1 << 63))))
	isErr(t, err, ErrParse)

	_, err = MarshalMsgpack(Value{})
	if err != nil {
		t.Fatalf("** zero value: %v", err)
	}
}
