package main

import (
	"bytes"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"

	"github.com/andreyvit/dart"
)

type palette struct {
	key, str, num, lit func(format string, a ...any) string
}

// newPalette builds the output colors. force overrides color.NoColor, which
// is set when stdout is not a terminal.
func newPalette(force bool) *palette {
	mk := func(c *color.Color) func(string, ...any) string {
		if force {
			c.EnableColor()
		}
		return c.SprintfFunc()
	}
	return &palette{
		key: mk(color.New(color.FgBlue)),
		str: mk(color.New(color.FgGreen)),
		num: mk(color.New(color.FgCyan)),
		lit: mk(color.New(color.FgMagenta)),
	}
}

type printer struct {
	indent string
	colors *palette
}

func newPrinter(colors *palette, indent bool) *printer {
	p := &printer{colors: colors}
	if indent {
		p.indent = "  "
	}
	return p
}

// write prints v followed by a newline.
func (p *printer) write(w io.Writer, v dart.Value) error {
	buf, err := p.appendValue(nil, v)
	if err != nil {
		return err
	}
	buf = append(buf, '\n')
	_, err = w.Write(buf)
	return err
}

func (p *printer) appendValue(buf []byte, v dart.Value) ([]byte, error) {
	if p.colors == nil {
		data, err := v.JSON()
		if err != nil {
			return buf, err
		}
		if p.indent == "" {
			return append(buf, data...), nil
		}
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", p.indent); err != nil {
			return buf, err
		}
		return append(buf, out.Bytes()...), nil
	}
	return p.appendColored(buf, v, 0)
}

func (p *printer) appendColored(buf []byte, v dart.Value, depth int) ([]byte, error) {
	var err error
	switch v.Type() {
	case dart.TypeObject:
		if v.IsEmpty() {
			return append(buf, "{}"...), nil
		}
		buf = append(buf, '{')
		i := 0
		for k, c := range v.Items() {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = p.newline(buf, depth+1)
			ks, err := dart.MakeString(k).JSON()
			if err != nil {
				return buf, err
			}
			buf = append(buf, p.colors.key("%s", ks)...)
			buf = append(buf, ':')
			if p.indent != "" {
				buf = append(buf, ' ')
			}
			if buf, err = p.appendColored(buf, c, depth+1); err != nil {
				return buf, err
			}
			i++
		}
		buf = p.newline(buf, depth)
		return append(buf, '}'), nil
	case dart.TypeArray:
		if v.IsEmpty() {
			return append(buf, "[]"...), nil
		}
		buf = append(buf, '[')
		for i, c := range v.Elements() {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = p.newline(buf, depth+1)
			if buf, err = p.appendColored(buf, c, depth+1); err != nil {
				return buf, err
			}
		}
		buf = p.newline(buf, depth)
		return append(buf, ']'), nil
	}

	data, err := v.JSON()
	if err != nil {
		return buf, err
	}
	paint := p.colors.lit
	switch v.Type() {
	case dart.TypeString:
		paint = p.colors.str
	case dart.TypeInteger, dart.TypeDecimal:
		paint = p.colors.num
	}
	return append(buf, paint("%s", data)...), nil
}

func (p *printer) newline(buf []byte, depth int) []byte {
	if p.indent == "" {
		return buf
	}
	buf = append(buf, '\n')
	for range depth {
		buf = append(buf, p.indent...)
	}
	return buf
}
