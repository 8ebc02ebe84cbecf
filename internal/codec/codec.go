// Package codec implements the fixed little-endian binary record layouts
// used by the index's sub-databases: posting lists, position lists, time
// records, id sets, and url entries. Every decode validates buffer length
// and monotonicity before returning a value, surfacing index.ErrCorruption
// (via the Corrupt sentinel) on truncation or non-ascending ids.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Corrupt is returned by every Decode* function when the input buffer is
// truncated or violates the strictly-ascending-id invariant. Callers at the
// index layer wrap this into index.ErrCorruption.
var Corrupt = errors.New("codec: corrupt record")

// PostingList is the sorted, strictly-ascending, unique set of document ids
// associated with a term.
type PostingList struct {
	IDs []uint64
}

// EncodePostingList writes a u32 count followed by count little-endian u64
// ids. An empty list must never be persisted by callers (see PostingDB);
// EncodePostingList itself has no opinion on that and will happily encode
// zero ids.
func EncodePostingList(p PostingList) []byte {
	buf := make([]byte, 4+8*len(p.IDs))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(p.IDs)))
	off := 4
	for _, id := range p.IDs {
		binary.LittleEndian.PutUint64(buf[off:off+8], id)
		off += 8
	}
	return buf
}

// DecodePostingList parses the layout written by EncodePostingList,
// rejecting truncated buffers and non-strictly-ascending id sequences.
func DecodePostingList(buf []byte) (PostingList, error) {
	if len(buf) < 4 {
		return PostingList{}, fmt.Errorf("posting list: %w", Corrupt)
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	want := 4 + 8*int(count)
	if len(buf) != want {
		return PostingList{}, fmt.Errorf("posting list: truncated: %w", Corrupt)
	}
	ids := make([]uint64, count)
	off := 4
	var prev uint64
	for i := uint32(0); i < count; i++ {
		id := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		if i > 0 && id <= prev {
			return PostingList{}, fmt.Errorf("posting list: non-monotonic ids: %w", Corrupt)
		}
		ids[i] = id
		prev = id
	}
	return PostingList{IDs: ids}, nil
}

// PositionRecord is one (id, positions) entry inside a PositionList.
type PositionRecord struct {
	ID        uint64
	Positions []uint32
}

// PositionList is the per-term sequence of position records, sorted by id.
type PositionList struct {
	Records []PositionRecord
}

// EncodePositionList writes a u32 record count, then for each record:
// u64 id, u32 position count, and that many little-endian u32 positions.
func EncodePositionList(p PositionList) []byte {
	size := 4
	for _, r := range p.Records {
		size += 8 + 4 + 4*len(r.Positions)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(p.Records)))
	off := 4
	for _, r := range p.Records {
		binary.LittleEndian.PutUint64(buf[off:off+8], r.ID)
		off += 8
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(r.Positions)))
		off += 4
		for _, pos := range r.Positions {
			binary.LittleEndian.PutUint32(buf[off:off+4], pos)
			off += 4
		}
	}
	return buf
}

// DecodePositionList parses the layout written by EncodePositionList,
// rejecting truncation and non-strictly-ascending record ids or positions.
func DecodePositionList(buf []byte) (PositionList, error) {
	if len(buf) < 4 {
		return PositionList{}, fmt.Errorf("position list: %w", Corrupt)
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	off := 4
	records := make([]PositionRecord, count)
	var prevID uint64
	for i := uint32(0); i < count; i++ {
		if len(buf)-off < 12 {
			return PositionList{}, fmt.Errorf("position list: truncated header: %w", Corrupt)
		}
		id := binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
		posCount := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if i > 0 && id <= prevID {
			return PositionList{}, fmt.Errorf("position list: non-monotonic ids: %w", Corrupt)
		}
		prevID = id

		if len(buf)-off < 4*int(posCount) {
			return PositionList{}, fmt.Errorf("position list: truncated positions: %w", Corrupt)
		}
		var positions []uint32
		if posCount > 0 {
			positions = make([]uint32, posCount)
		}
		var prevPos uint32
		for j := uint32(0); j < posCount; j++ {
			pos := binary.LittleEndian.Uint32(buf[off : off+4])
			off += 4
			if j > 0 && pos <= prevPos {
				return PositionList{}, fmt.Errorf("position list: non-monotonic positions: %w", Corrupt)
			}
			positions[j] = pos
			prevPos = pos
		}
		records[i] = PositionRecord{ID: id, Positions: positions}
	}
	if off != len(buf) {
		return PositionList{}, fmt.Errorf("position list: trailing bytes: %w", Corrupt)
	}
	return PositionList{Records: records}, nil
}

// TimeInfo is the fixed 16-byte (mtime, ctime) record.
type TimeInfo struct {
	MTime int64
	CTime int64
}

const timeInfoSize = 16

// EncodeTimeInfo writes a fixed 16-byte record: i64 mtime, i64 ctime.
func EncodeTimeInfo(t TimeInfo) []byte {
	buf := make([]byte, timeInfoSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.MTime))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(t.CTime))
	return buf
}

// DecodeTimeInfo parses the layout written by EncodeTimeInfo.
func DecodeTimeInfo(buf []byte) (TimeInfo, error) {
	if len(buf) != timeInfoSize {
		return TimeInfo{}, fmt.Errorf("time info: %w", Corrupt)
	}
	return TimeInfo{
		MTime: int64(binary.LittleEndian.Uint64(buf[0:8])),
		CTime: int64(binary.LittleEndian.Uint64(buf[8:16])),
	}, nil
}

// IdSet is a sorted, unique set of terms, used for DocumentTermsDB values.
type IdSet struct {
	Terms [][]byte
}

// EncodeIdSet writes a u32 count followed by count length-prefixed byte
// strings. Callers are responsible for sorting and deduplicating Terms
// before encoding; EncodeIdSet does not re-validate ordering.
func EncodeIdSet(s IdSet) []byte {
	size := 4
	for _, t := range s.Terms {
		size += 4 + len(t)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(s.Terms)))
	off := 4
	for _, t := range s.Terms {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(t)))
		off += 4
		copy(buf[off:off+len(t)], t)
		off += len(t)
	}
	return buf
}

// DecodeIdSet parses the layout written by EncodeIdSet, rejecting
// truncated buffers and non-ascending (or duplicate) terms.
func DecodeIdSet(buf []byte) (IdSet, error) {
	if len(buf) < 4 {
		return IdSet{}, fmt.Errorf("id set: %w", Corrupt)
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	off := 4
	terms := make([][]byte, count)
	var prev []byte
	for i := uint32(0); i < count; i++ {
		if len(buf)-off < 4 {
			return IdSet{}, fmt.Errorf("id set: truncated length: %w", Corrupt)
		}
		l := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if len(buf)-off < int(l) {
			return IdSet{}, fmt.Errorf("id set: truncated term: %w", Corrupt)
		}
		term := make([]byte, l)
		copy(term, buf[off:off+int(l)])
		off += int(l)
		if i > 0 && bytesCompare(term, prev) <= 0 {
			return IdSet{}, fmt.Errorf("id set: non-monotonic terms: %w", Corrupt)
		}
		terms[i] = term
		prev = term
	}
	if off != len(buf) {
		return IdSet{}, fmt.Errorf("id set: trailing bytes: %w", Corrupt)
	}
	return IdSet{Terms: terms}, nil
}

func bytesCompare(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// UrlEntry is the record stored under a document id in DocumentUrlDB: its
// parent directory id, filename component, mtime, and a "dirty" flag set
// when the crawler observed the mtime changed but has not re-indexed yet.
type UrlEntry struct {
	ParentID   uint64
	Filename   []byte
	MTime      int64
	MTimeDirty bool
}

// EncodeUrlEntry writes: u64 parent_id, u32-length-prefixed filename,
// i64 mtime, u8 mtime-dirty flag.
func EncodeUrlEntry(u UrlEntry) []byte {
	buf := make([]byte, 8+4+len(u.Filename)+8+1)
	binary.LittleEndian.PutUint64(buf[0:8], u.ParentID)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(u.Filename)))
	off := 12
	copy(buf[off:off+len(u.Filename)], u.Filename)
	off += len(u.Filename)
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(u.MTime))
	off += 8
	if u.MTimeDirty {
		buf[off] = 1
	}
	return buf
}

// DecodeUrlEntry parses the layout written by EncodeUrlEntry.
func DecodeUrlEntry(buf []byte) (UrlEntry, error) {
	if len(buf) < 8+4 {
		return UrlEntry{}, fmt.Errorf("url entry: %w", Corrupt)
	}
	parentID := binary.LittleEndian.Uint64(buf[0:8])
	l := binary.LittleEndian.Uint32(buf[8:12])
	off := 12
	if len(buf)-off < int(l)+8+1 {
		return UrlEntry{}, fmt.Errorf("url entry: truncated: %w", Corrupt)
	}
	filename := make([]byte, l)
	copy(filename, buf[off:off+int(l)])
	off += int(l)
	mtime := int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	dirty := buf[off] != 0
	off++
	if off != len(buf) {
		return UrlEntry{}, fmt.Errorf("url entry: trailing bytes: %w", Corrupt)
	}
	return UrlEntry{ParentID: parentID, Filename: filename, MTime: mtime, MTimeDirty: dirty}, nil
}

// VersionStamp is the fixed-length on-disk header record described in the
// external interface: the literal token "BALOO\0" followed by a u32 major
// and u32 minor version. The token is a wire-compatibility constant, not a
// reference to any internal naming; it must be written byte-exact for
// readers of existing index files to recognize the store.
type VersionStamp struct {
	Major uint32
	Minor uint32
}

const versionToken = "BALOO\x00"
const VersionStampSize = len(versionToken) + 4 + 4

// EncodeVersionStamp writes the fixed version-stamp record.
func EncodeVersionStamp(v VersionStamp) []byte {
	buf := make([]byte, VersionStampSize)
	copy(buf, versionToken)
	off := len(versionToken)
	binary.LittleEndian.PutUint32(buf[off:off+4], v.Major)
	binary.LittleEndian.PutUint32(buf[off+4:off+8], v.Minor)
	return buf
}

// DecodeVersionStamp parses the version-stamp record, rejecting anything
// that doesn't start with the expected token.
func DecodeVersionStamp(buf []byte) (VersionStamp, error) {
	if len(buf) != VersionStampSize {
		return VersionStamp{}, fmt.Errorf("version stamp: %w", Corrupt)
	}
	if string(buf[:len(versionToken)]) != versionToken {
		return VersionStamp{}, fmt.Errorf("version stamp: bad token: %w", Corrupt)
	}
	off := len(versionToken)
	return VersionStamp{
		Major: binary.LittleEndian.Uint32(buf[off : off+4]),
		Minor: binary.LittleEndian.Uint32(buf[off+4 : off+8]),
	}, nil
}
