package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/andreyvit/dart"
)

func tagged(tag string) func(string, ...any) string {
	return func(format string, a ...any) string {
		return "<" + tag + ">" + fmt.Sprintf(format, a...)
	}
}

var testPalette = &palette{key: tagged("k"), str: tagged("s"), num: tagged("n"), lit: tagged("l")}

func TestPrinter_plain(t *testing.T) {
	v := dart.MustParseJSON(`{"a":[1,2.5,"x"],"b":{}}`)
	var buf bytes.Buffer
	if err := newPrinter(nil, false).write(&buf, v); err != nil {
		t.Fatal(err)
	}
	if a, e := buf.String(), `{"a":[1,2.5,"x"],"b":{}}`+"\n"; a != e {
		t.Errorf("** got %s, wanted %s", a, e)
	}
}

func TestPrinter_colored(t *testing.T) {
	v := dart.MustParseJSON(`{"a":[1,true,null],"b":"x","c":[]}`)
	var buf bytes.Buffer
	if err := newPrinter(testPalette, false).write(&buf, v); err != nil {
		t.Fatal(err)
	}
	e := `{<k>"a":[<n>1,<l>true,<l>null],<k>"b":<s>"x",<k>"c":[]}` + "\n"
	if a := buf.String(); a != e {
		t.Errorf("** got %s, wanted %s", a, e)
	}
}

func TestPrinter_coloredIndent(t *testing.T) {
	v := dart.MustParseJSON(`{"a":[1,2],"b":{}}`)
	var buf bytes.Buffer
	if err := newPrinter(testPalette, true).write(&buf, v); err != nil {
		t.Fatal(err)
	}
	e := "{\n  <k>\"a\": [\n    <n>1,\n    <n>2\n  ],\n  <k>\"b\": {}\n}\n"
	if a := buf.String(); a != e {
		t.Errorf("** got:\n%s\nwanted:\n%s", a, e)
	}
}

func TestDescend(t *testing.T) {
	v := dart.MustParseJSON(`{"users":[{"name":"ann"},{"name":"bob"}]}`)
	fv, err := v.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	c, err := descend(fv, []string{"users", "-1", "name"})
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := c.Str(); s != "bob" {
		t.Errorf("** got %q, wanted bob", s)
	}

	_, err = descend(fv, []string{"users", "x"})
	if err == nil {
		t.Errorf("** expected an error for a non-numeric index")
	}
	_, err = descend(fv, []string{"users", "5"})
	if !errors.Is(err, dart.ErrLogic) {
		t.Errorf("** got %v, wanted ErrLogic", err)
	}
}
