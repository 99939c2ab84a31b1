package journaltest

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/andreyvit/dart/journal"
)

var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestJournal is a journal in a temporary directory, with a manual clock and
// logs routed to the test.
type TestJournal struct {
	*journal.Journal

	T   testing.TB
	Dir string

	opt journal.Options
	now time.Time
}

func Open(t testing.TB, o journal.Options) *TestJournal {
	j := &TestJournal{
		T:   t,
		Dir: t.TempDir(),
		now: Start,
	}
	o.FileName = "j*.wal"
	o.Now = func() time.Time { return j.now }
	o.Logger = Logger(t)
	j.opt = o
	j.Journal = must(journal.Open(j.Dir, o))
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Error(err)
		}
	})
	return j
}

// Reopen closes the journal and opens it again, running recovery.
func (j *TestJournal) Reopen() {
	j.T.Helper()
	if err := j.Close(); err != nil {
		j.T.Fatalf("Close: %v", err)
	}
	jj, err := journal.Open(j.Dir, j.opt)
	if err != nil {
		j.T.Fatalf("Open: %v", err)
	}
	j.Journal = jj
}

// Logger returns a debug-level slog logger that writes to t.Log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
	}))
}

func (j *TestJournal) Eq(fileName string, expected ...string) {
	j.T.Helper()
	BytesEq(j.T, j.Data(fileName), Expand(expected...))
}

func (j *TestJournal) Put(fileName string, expected ...string) {
	ensure(os.WriteFile(filepath.Join(j.Dir, fileName), Expand(expected...), 0o644))
}

func (j *TestJournal) Data(fileName string) []byte {
	b, err := os.ReadFile(filepath.Join(j.Dir, fileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		j.T.Fatalf("when reading %v: %v", fileName, err)
	}
	return b
}

func (j *TestJournal) Now() time.Time {
	return j.now
}

func (j *TestJournal) Advance(d time.Duration) {
	j.now = j.now.Add(d)
}

func (j *TestJournal) FileNames() []string {
	var names []string
	for _, env := range must(os.ReadDir(j.Dir)) {
		names = append(names, env.Name())
	}
	slices.Sort(names)
	return names
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	msg := string(buf)
	origLen := len(msg)
	msg = strings.TrimSuffix(msg, "\n")
	c.t.Log(msg)
	return origLen, nil
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

// Expand builds bytes from a whitespace-separated fixture notation:
//
//	DE_AD     hex bytes, '_' separates them
//	'text     literal ASCII
//	#300      uvarint
//	X*N       X repeated N times
//	X..Y      X, zeros, then Y, to 4 bytes
//	X...Y     same, to 8 bytes
//	X/note    note is ignored
func Expand(fixtures ...string) []byte {
	var b []byte
	for _, fixture := range fixtures {
		for _, elem := range strings.Fields(fixture) {
			var err error
			b, err = appendElem(b, elem)
			if err != nil {
				panic(fmt.Errorf("%w in element %q", err, elem))
			}
		}
	}
	return b
}

func appendElem(b []byte, elem string) ([]byte, error) {
	elem, _, _ = strings.Cut(elem, "/")
	if elem == "" {
		return b, nil
	}
	elem, countStr, repeated := strings.Cut(elem, "*")
	count := 1
	if repeated {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return nil, fmt.Errorf("invalid repeat count %q", countStr)
		}
		count = n
	}

	width := 0
	left, right, ok := strings.Cut(elem, "...")
	if ok {
		width = 8
	} else if left, right, ok = strings.Cut(elem, ".."); ok {
		width = 4
	}
	lb, err := decodeChunk(left)
	if err != nil {
		return nil, err
	}
	rb, err := decodeChunk(right)
	if err != nil {
		return nil, err
	}
	pad := max(0, width-len(lb)-len(rb))

	for range count {
		b = append(b, lb...)
		b = append(b, make([]byte, pad)...)
		b = append(b, rb...)
	}
	return b, nil
}

func decodeChunk(s string) ([]byte, error) {
	if dec, ok := strings.CutPrefix(s, "#"); ok {
		v, err := strconv.ParseUint(dec, 10, 64)
		if err != nil {
			return nil, err
		}
		return binary.AppendUvarint(nil, v), nil
	}
	if text, ok := strings.CutPrefix(s, "'"); ok {
		return []byte(text), nil
	}
	var out []byte
	for _, group := range strings.Split(s, "_") {
		if n := len(group); n%2 == 1 {
			group = group[:n-1] + "0" + group[n-1:]
		}
		d, err := hex.DecodeString(group)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
	}
	return out, nil
}

// HexDump formats b eight bytes per line, marking the byte at mark with '>'.
// Pass a negative mark to disable it.
func HexDump(b []byte, mark int) string {
	var buf strings.Builder
	for off := 0; off == 0 || off < len(b); off += 8 {
		fmt.Fprintf(&buf, "%08x", off)
		if len(b) == 0 {
			buf.WriteByte('\n')
			break
		}
		line := b[off:min(off+8, len(b))]
		for i, c := range line {
			sep := byte(' ')
			if off+i == mark {
				sep = '>'
			}
			fmt.Fprintf(&buf, "%c%02x", sep, c)
		}
		buf.WriteString(strings.Repeat("   ", 8-len(line)))
		buf.WriteString("  |")
		for _, c := range line {
			if c < 32 || c > 126 {
				c = '.'
			}
			buf.WriteByte(c)
		}
		buf.WriteString("|\n")
	}
	return buf.String()
}

// BytesEq reports a hex dump of both sides when a and e differ.
func BytesEq(t testing.TB, a, e []byte) bool {
	if bytes.Equal(a, e) {
		return true
	}
	off := min(len(a), len(e))
	for i := range off {
		if a[i] != e[i] {
			off = i
			break
		}
	}
	t.Helper()
	t.Errorf("** got:\n%v\nwanted:\n%v\nfirst difference at 0x%x (%d)", HexDump(a, off), HexDump(e, off), off, off)
	return false
}
