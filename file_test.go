package dart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.dart")
	v := fin(`{"name":"dart","list":[1,2.5,"a string stored out of line"],"nested":{"ok":true}}`)
	ensure(SaveFile(path, v))

	m := must(LoadFile(path))
	eq(t, m.IsFinalized(), true)
	valEq(t, m.Value, v)
	name := must(m.Field("name"))
	eq(t, must(name.Str()), "dart")
	l := must(m.Lift())
	ensure(m.Close())
	eq(t, m.Type(), TypeInvalid)
	valEq(t, l, v)

	r := must(ReadFile(path))
	valEq(t, r, v)
}

func TestSaveFile_heapFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.dart")
	isErr(t, SaveFile(path, MakeObject()), ErrState)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("** file exists after a failed save: %v", err)
	}
}

func TestLoadFile_invalid(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage")
	ensure(os.WriteFile(garbage, []byte("not a dart buffer at all"), 0o644))
	_, err := LoadFile(garbage)
	isErr(t, err, ErrParse)

	empty := filepath.Join(dir, "empty")
	ensure(os.WriteFile(empty, nil, 0o644))
	_, err = LoadFile(empty)
	isErr(t, err, ErrParse)

	_, err = LoadFile(filepath.Join(dir, "missing"))
	if !os.IsNotExist(err) {
		t.Fatalf("** got %v, wanted a not-exist error", err)
	}
}
