// Package journal stores finalized values in append-only segment files.
//
// Every record is a complete dart buffer, so reading a journal back costs one
// validation pass per record and no parsing. Records are checksummed
// individually; a torn or corrupted tail of the last segment (e.g. after a
// crash between Append and Commit) is logged and cut off when the journal is
// opened again.
//
// Segment files are named prefix + segment:12 "-" timestamp "-" firstRecord:16x
// + suffix, where the prefix and suffix come from Options.FileName.
//
// File format:
//
//   - file = segmentHeader record*
//   - segmentHeader = magic:64 version:8 pad:8 flags:16 pad:32 segment:32 timestamp:32 firstRecord:64 invariant:8*32 reserved:64*7 checksum:64
//   - record = (size<<1):uvarint timestampDelta:uvarint data checksum:64
//
// Both checksums are xxhash64 of the preceding bytes of the header or record.
package journal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/andreyvit/dart"
	"github.com/andreyvit/dart/mmap"
)

var (
	ErrIncompatible       = errors.New("incompatible journal")
	ErrUnsupportedVersion = errors.New("unsupported journal version")
	ErrCorrupted          = errors.New("corrupted journal segment")
	ErrClosed             = errors.New("journal is closed")
)

type Options struct {
	Context     context.Context
	FileName    string // e.g. "values-*.wal"
	MaxFileSize int64  // new segment after this size
	DebugName   string
	Now         func() time.Time

	// Invariant is stored in every segment header; segments written with a
	// different invariant are rejected with ErrIncompatible.
	Invariant [32]byte

	Logger *slog.Logger
}

const DefaultMaxFileSize = 4 * 1024 * 1024

const (
	magic          = 0x54414c4e52554f4a // "JOURNLAT" as little-endian uint64
	version0 uint8 = 0
)

const segmentHeaderSize = 16 * 8

type segmentHeader struct {
	Magic          uint64
	Version        uint8
	_              uint8
	Flags          uint16
	_              uint32
	SegmentOrdinal uint32
	Timestamp      uint32
	FirstRecord    uint64
	Invariant      [32]byte
	_              [7]uint64
	Checksum       uint64
}

const (
	recordFlagShift = 1
	checksumSize    = 8
	timestampFmt    = "20060102T150405"
)

// Record is a single journal entry.
type Record struct {
	Seq   uint64
	Time  time.Time
	Value dart.Value
}

// Journal is a directory of segment files. Append, Commit, Rotate and Close
// are safe for concurrent use. Scan must not run concurrently with Append.
type Journal struct {
	context        context.Context
	maxFileSize    int64
	fileNamePrefix string
	fileNameSuffix string
	debugName      string
	dir            string
	now            func() time.Time
	logger         *slog.Logger
	invariant      [32]byte

	writeLock sync.Mutex
	writeErr  error
	closed    bool
	writeSeg  uint32
	nextRec   uint64
	segWriter *segmentWriter
}

// Open opens the journal in dir, creating the directory if needed. It
// recovers the last segment: a segment with a corrupted header is deleted,
// and a corrupted tail is truncated. New records always go into a new
// segment.
func Open(dir string, o Options) (*Journal, error) {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.FileName == "" {
		o.FileName = "*"
	}
	prefix, suffix, _ := strings.Cut(o.FileName, "*")
	if o.DebugName == "" {
		o.DebugName = "journal"
	}
	if o.MaxFileSize == 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	j := &Journal{
		context:        o.Context,
		maxFileSize:    o.MaxFileSize,
		fileNamePrefix: prefix,
		fileNameSuffix: suffix,
		debugName:      o.DebugName,
		dir:            dir,
		now:            o.Now,
		logger:         o.Logger,
		invariant:      o.Invariant,
		nextRec:        1,
	}

	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, err
	}
	if err := j.recover(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) String() string {
	return j.debugName
}

// NextSeq returns the sequence number the next appended record will get.
func (j *Journal) NextSeq() uint64 {
	j.writeLock.Lock()
	defer j.writeLock.Unlock()
	return j.nextRec
}

func (j *Journal) recover() error {
	names, err := j.segmentNames()
	if err != nil {
		return err
	}
	for len(names) > 0 {
		name := names[len(names)-1]
		seg, _, _, err := j.parseSegmentName(name)
		if err != nil {
			return err
		}

		var h segmentHeader
		count, good, size, err := j.checkSegment(name, seg, &h)
		if err == ErrCorrupted {
			j.logger.LogAttrs(j.context, slog.LevelWarn, "journal: deleting corrupted file", slog.String("jrnl", j.debugName), slog.String("file", name), slog.Int64("size", size))
			if err := os.Remove(filepath.Join(j.dir, name)); err != nil {
				return fmt.Errorf("journal: failed to delete corrupted file: %w", err)
			}
			names = names[:len(names)-1]
			continue
		} else if err != nil {
			return err
		}

		if int64(good) < size {
			j.logger.LogAttrs(j.context, slog.LevelWarn, "journal: truncating corrupted tail", slog.String("jrnl", j.debugName), slog.String("file", name), slog.Int64("size", size), slog.Int("valid", good))
			if err := os.Truncate(filepath.Join(j.dir, name), int64(good)); err != nil {
				return fmt.Errorf("journal: failed to truncate corrupted file: %w", err)
			}
		}
		j.writeSeg = h.SegmentOrdinal
		j.nextRec = h.FirstRecord + uint64(count)
		return nil
	}
	return nil
}

// checkSegment counts the valid records of a segment and finds where they
// end.
func (j *Journal) checkSegment(name string, seg uint32, h *segmentHeader) (count, good int, size int64, err error) {
	r, err := mmap.Open(filepath.Join(j.dir, name), mmap.SequentialAccess)
	if err != nil {
		return 0, 0, 0, err
	}
	defer r.Close()
	data := r.Bytes()
	size = int64(len(data))

	if err := j.readHeader(data, h, seg); err != nil {
		return 0, 0, size, err
	}
	off := segmentHeaderSize
	for off < len(data) {
		_, _, next, err := parseRecord(data, off)
		if err != nil {
			break
		}
		count++
		off = next
	}
	return count, off, size, nil
}

// Scan calls fn for every record in order. Values are private copies that
// outlive the scan. A corrupted tail of the last segment is skipped with a
// warning; corruption anywhere else fails with ErrCorrupted. An error from fn
// stops the scan and is returned as is.
func (j *Journal) Scan(fn func(rec Record) error) error {
	names, err := j.segmentNames()
	if err != nil {
		return err
	}
	for i, name := range names {
		last := (i == len(names)-1)
		if err := j.scanSegment(name, last, fn); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) scanSegment(name string, last bool, fn func(rec Record) error) error {
	seg, _, _, err := j.parseSegmentName(name)
	if err != nil {
		return err
	}
	r, err := mmap.Open(filepath.Join(j.dir, name), mmap.SequentialAccess)
	if err != nil {
		return err
	}
	defer r.Close()
	data := r.Bytes()

	var h segmentHeader
	if err := j.readHeader(data, &h, seg); err != nil {
		if err == ErrCorrupted && last {
			j.logger.LogAttrs(j.context, slog.LevelWarn, "journal: skipping corrupted file", slog.String("jrnl", j.debugName), slog.String("file", name))
			return nil
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	seq := h.FirstRecord
	ts := h.Timestamp
	off := segmentHeaderSize
	for off < len(data) {
		if err := j.context.Err(); err != nil {
			return err
		}
		payload, tsDelta, next, err := parseRecord(data, off)
		if err != nil {
			if last {
				j.logger.LogAttrs(j.context, slog.LevelWarn, "journal: skipping corrupted tail", slog.String("jrnl", j.debugName), slog.String("file", name), slog.Int("off", off), slog.Any("err", err))
				return nil
			}
			return fmt.Errorf("%s at %d: %w", name, off, err)
		}
		v, err := dart.FromBytesCopy(payload)
		if err != nil {
			return fmt.Errorf("%s at %d: %w", name, off, err)
		}
		ts += tsDelta
		if err := fn(Record{Seq: seq, Time: time.Unix(int64(ts), 0).UTC(), Value: v}); err != nil {
			return err
		}
		seq++
		off = next
	}
	return nil
}

// Append writes a finalized value and returns its sequence number. The
// record is durable only after Commit. Heap values fail with dart.ErrState.
func (j *Journal) Append(v dart.Value) (uint64, error) {
	data, err := v.Bytes()
	if err != nil {
		return 0, err
	}

	j.writeLock.Lock()
	defer j.writeLock.Unlock()

	if j.closed {
		return 0, ErrClosed
	}
	if j.writeErr != nil {
		return 0, j.writeErr
	}

	ts := j.timestamp()
	if j.segWriter != nil && j.segWriter.size >= j.maxFileSize {
		if err := j.rotate_locked(); err != nil {
			return 0, err
		}
	}
	if j.segWriter == nil {
		sw, err := j.startSegment(j.writeSeg+1, ts, j.nextRec)
		if err != nil {
			return 0, j.fail(err)
		}
		j.writeSeg++
		j.segWriter = sw
	}

	if err := j.segWriter.writeRecord(ts, data); err != nil {
		return 0, j.fail(err)
	}
	seq := j.nextRec
	j.nextRec++
	return seq, nil
}

// Commit makes every appended record durable.
func (j *Journal) Commit() error {
	j.writeLock.Lock()
	defer j.writeLock.Unlock()
	if j.writeErr != nil {
		return j.writeErr
	}
	if j.segWriter == nil {
		return nil
	}
	return j.fail(j.segWriter.commit())
}

// Rotate commits and closes the current segment; the next Append starts a new
// one.
func (j *Journal) Rotate() error {
	j.writeLock.Lock()
	defer j.writeLock.Unlock()
	if j.writeErr != nil {
		return j.writeErr
	}
	return j.rotate_locked()
}

func (j *Journal) rotate_locked() error {
	if j.segWriter == nil {
		return nil
	}
	if err := j.segWriter.commit(); err != nil {
		return j.fail(err)
	}
	err := j.segWriter.close()
	j.segWriter = nil
	return j.fail(err)
}

// Close commits pending records and closes the journal.
func (j *Journal) Close() error {
	j.writeLock.Lock()
	defer j.writeLock.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.writeErr != nil {
		return j.writeErr
	}
	return j.rotate_locked()
}

func (j *Journal) timestamp() uint32 {
	v := j.now().Unix()
	if v < 0 {
		panic("time travel disallowed")
	}
	u := uint64(v)
	if u&0xFFFF_FFFF_0000_0000 != 0 {
		panic("time travel disallowed both ways")
	}
	return uint32(u)
}

// fail makes write errors sticky: after the first one, the journal refuses
// further writes.
func (j *Journal) fail(err error) error {
	if err == nil {
		return nil
	}

	j.logger.LogAttrs(j.context, slog.LevelError, "journal: failed", slog.String("jrnl", j.debugName), slog.Any("err", err))

	if j.segWriter != nil {
		j.segWriter.close()
		j.segWriter = nil
	}
	if j.writeErr == nil {
		j.writeErr = err
	}
	return err
}

// segmentNames lists segment files in order.
func (j *Journal) segmentNames() ([]string, error) {
	ents, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range ents {
		if !ent.Type().IsRegular() {
			continue
		}
		name := ent.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasPrefix(name, j.fileNamePrefix) || !strings.HasSuffix(name, j.fileNameSuffix) {
			continue
		}
		if _, _, _, err := j.parseSegmentName(name); err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil // os.ReadDir sorts by name
}

func (j *Journal) readHeader(data []byte, h *segmentHeader, expectedSeg uint32) error {
	if len(data) < segmentHeaderSize {
		return ErrCorrupted
	}
	buf := data[:segmentHeaderSize]
	n, err := binary.Decode(buf, binary.LittleEndian, h)
	if err != nil {
		panic(err)
	}
	if n != len(buf) {
		panic("internal size mismatch")
	}

	if h.Magic != magic {
		return ErrCorrupted
	}
	checksum := xxhash.Sum64(buf[:segmentHeaderSize-checksumSize])
	if checksum != h.Checksum {
		return ErrCorrupted
	}
	if expectedSeg != h.SegmentOrdinal {
		return ErrCorrupted
	}
	if h.Version > version0 {
		return ErrUnsupportedVersion
	}
	if h.Invariant != j.invariant {
		return ErrIncompatible
	}
	return nil
}

type segmentWriter struct {
	f     *os.File
	seg   uint32
	ts    uint32
	size  int64
	dirty bool
	buf   []byte
}

func (j *Journal) startSegment(seg, ts uint32, firstRec uint64) (*segmentWriter, error) {
	name := formatSegmentName(j.fileNamePrefix, j.fileNameSuffix, seg, ts, firstRec)

	f, err := os.OpenFile(filepath.Join(j.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return nil, err
	}

	var ok bool
	defer closeAndDeleteUnlessOK(f, &ok)

	sw := &segmentWriter{
		f:    f,
		seg:  seg,
		ts:   ts,
		size: segmentHeaderSize,
	}

	var hbuf [segmentHeaderSize]byte
	fillSegmentHeader(hbuf[:], j, seg, ts, firstRec)

	_, err = f.Write(hbuf[:])
	if err != nil {
		return nil, err
	}
	sw.dirty = true

	j.logger.LogAttrs(j.context, slog.LevelDebug, "journal: new segment", slog.String("jrnl", j.debugName), slog.String("file", name))
	ok = true
	return sw, nil
}

func (sw *segmentWriter) writeRecord(ts uint32, data []byte) error {
	var tsDelta uint32
	if ts > sw.ts {
		tsDelta = ts - sw.ts
		sw.ts = ts
	}

	b := appendRecordHeader(sw.buf[:0], len(data), tsDelta)
	b = append(b, data...)
	b = binary.LittleEndian.AppendUint64(b, xxhash.Sum64(b))
	sw.buf = b

	sw.dirty = true
	_, err := sw.f.Write(b)
	if err != nil {
		return err
	}
	sw.size += int64(len(b))
	return nil
}

func (sw *segmentWriter) commit() error {
	if !sw.dirty {
		return nil
	}
	sw.dirty = false
	return mmap.Fdatasync(sw.f, nil)
}

func (sw *segmentWriter) close() error {
	if sw.f == nil {
		return nil
	}
	err := sw.f.Close()
	sw.f = nil
	return err
}

func closeAndDeleteUnlessOK(f *os.File, ok *bool) {
	if *ok {
		return
	}
	f.Close()
	os.Remove(f.Name())
}

func fillSegmentHeader(buf []byte, j *Journal, seg, ts uint32, firstRec uint64) {
	h := segmentHeader{
		Magic:          magic,
		Version:        version0,
		SegmentOrdinal: seg,
		Timestamp:      ts,
		FirstRecord:    firstRec,
		Invariant:      j.invariant,
	}

	n, err := binary.Encode(buf[:], binary.LittleEndian, h)
	if err != nil {
		panic(err)
	}
	if n != len(buf) {
		panic("internal size mismatch")
	}

	binary.LittleEndian.PutUint64(buf[segmentHeaderSize-checksumSize:], xxhash.Sum64(buf[:segmentHeaderSize-checksumSize]))
}

func appendRecordHeader(b []byte, size int, tsDelta uint32) []byte {
	b = binary.AppendUvarint(b, uint64(size)<<recordFlagShift)
	b = binary.AppendUvarint(b, uint64(tsDelta))
	return b
}

// parseRecord decodes the record at data[off:], returning its payload and the
// offset of the following record.
func parseRecord(data []byte, off int) (payload []byte, tsDelta uint32, next int, err error) {
	start := off
	sizeAndFlags, n := binary.Uvarint(data[off:])
	if n <= 0 {
		return nil, 0, 0, ErrCorrupted
	}
	off += n
	if sizeAndFlags&(1<<recordFlagShift-1) != 0 {
		return nil, 0, 0, ErrCorrupted
	}
	size := sizeAndFlags >> recordFlagShift

	delta, n := binary.Uvarint(data[off:])
	if n <= 0 || delta > 0xFFFF_FFFF {
		return nil, 0, 0, ErrCorrupted
	}
	off += n

	if size > uint64(len(data)-off) || uint64(len(data)-off)-size < checksumSize {
		return nil, 0, 0, ErrCorrupted
	}
	end := off + int(size)
	if xxhash.Sum64(data[start:end]) != binary.LittleEndian.Uint64(data[end:]) {
		return nil, 0, 0, ErrCorrupted
	}
	return data[off:end], uint32(delta), end + checksumSize, nil
}

func formatSegmentName(prefix, suffix string, seq, ts uint32, id uint64) string {
	t := time.Unix(int64(uint64(ts)), 0).UTC()
	return fmt.Sprintf("%s%012d-%s-%016x%s", prefix, seq, t.Format(timestampFmt), id, suffix)
}

func (j *Journal) parseSegmentName(name string) (seq, ts uint32, id uint64, err error) {
	s, ok := strings.CutPrefix(name, j.fileNamePrefix)
	if ok {
		s, ok = strings.CutSuffix(s, j.fileNameSuffix)
	}
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid segment file name %q", name)
	}
	return parseSegmentName(s)
}

func parseSegmentName(name string) (seq, ts uint32, id uint64, err error) {
	seqStr, rem, ok := strings.Cut(name, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid segment file name %q", name)
	}
	v, err := strconv.ParseUint(seqStr, 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid segment file name %q (invalid segment number)", name)
	}
	seq = uint32(v)

	tsStr, idStr, ok := strings.Cut(rem, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid segment file name %q", name)
	}
	t, err := time.ParseInLocation(timestampFmt, tsStr, time.UTC)
	if err != nil {
		return seq, 0, 0, fmt.Errorf("invalid segment file name %q (invalid timestamp)", name)
	}
	ts = uint32(t.Unix())

	id, err = strconv.ParseUint(idStr, 16, 64)
	if err != nil {
		return seq, 0, 0, fmt.Errorf("invalid segment file name %q (invalid record identifier)", name)
	}
	return
}
