package journal

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestParseName(t *testing.T) {
	seq, ts, id, err := parseSegmentName("123-20230101T000000-11223344aabbccdd")
	if err != nil {
		t.Fatal(err)
	}
	if e := uint32(123); seq != e {
		t.Errorf("seq = %v, expected %v", seq, e)
	}
	if e := uint32(1672531200); ts != e {
		t.Errorf("ts = %v, expected %v", ts, e)
	}
	if e := uint64(0x11223344_aabbccdd); id != e {
		t.Errorf("id = %x, expected %x", id, e)
	}
}

func TestParseNameWithAffixes(t *testing.T) {
	j := &Journal{fileNamePrefix: "x", fileNameSuffix: ".wal"}
	seq, _, _, err := j.parseSegmentName("x000000000007-20230101T000000-0000000000000001.wal")
	if err != nil {
		t.Fatal(err)
	}
	if seq != 7 {
		t.Errorf("seq = %v, expected 7", seq)
	}
	if _, _, _, err := j.parseSegmentName("y000000000007-20230101T000000-0000000000000001.wal"); err == nil {
		t.Errorf("expected an error for a foreign prefix")
	}
}

func TestFormatName(t *testing.T) {
	name := formatSegmentName("x", "y", 123, 1672531200, 0x11223344_aabbccdd)
	exp := "x000000000123-20230101T000000-11223344aabbccddy"
	if name != exp {
		t.Errorf("name = %q, expected %q", name, exp)
	}
}

func TestParseRecord(t *testing.T) {
	rec := appendRecordHeader(nil, 5, 42)
	rec = append(rec, "hello"...)
	rec = binary.LittleEndian.AppendUint64(rec, xxhash.Sum64(rec))
	data := append([]byte("pfx"), rec...)

	payload, delta, next, err := parseRecord(data, 3)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "hello" || delta != 42 || next != len(data) {
		t.Errorf("got (%q, %d, %d), expected (hello, 42, %d)", payload, delta, next, len(data))
	}

	for n := 3; n < len(data); n++ {
		if _, _, _, err := parseRecord(data[:n], 3); err != ErrCorrupted {
			t.Errorf("prefix of %d bytes: err = %v, expected ErrCorrupted", n, err)
		}
	}

	flipped := append([]byte(nil), data...)
	flipped[5] ^= 1
	if _, _, _, err := parseRecord(flipped, 3); err != ErrCorrupted {
		t.Errorf("flipped payload: err = %v, expected ErrCorrupted", err)
	}
}

func TestSegmentHeaderSize(t *testing.T) {
	if n := binary.Size(segmentHeader{}); n != segmentHeaderSize {
		t.Errorf("binary.Size(segmentHeader) = %d, expected %d", n, segmentHeaderSize)
	}
}
