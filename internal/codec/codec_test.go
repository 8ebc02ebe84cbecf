package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostingListRoundTrip(t *testing.T) {
	p := PostingList{IDs: []uint64{1, 3, 5, 7, 1 << 40}}
	buf := EncodePostingList(p)
	got, err := DecodePostingList(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPostingListEmpty(t *testing.T) {
	p := PostingList{}
	got, err := DecodePostingList(EncodePostingList(p))
	require.NoError(t, err)
	assert.Empty(t, got.IDs)
}

func TestPostingListRejectsTruncation(t *testing.T) {
	buf := EncodePostingList(PostingList{IDs: []uint64{1, 2, 3}})
	_, err := DecodePostingList(buf[:len(buf)-1])
	require.ErrorIs(t, err, Corrupt)
}

func TestPostingListRejectsNonMonotonic(t *testing.T) {
	buf := EncodePostingList(PostingList{IDs: []uint64{5, 3}})
	_, err := DecodePostingList(buf)
	require.ErrorIs(t, err, Corrupt)
}

func TestPositionListRoundTrip(t *testing.T) {
	p := PositionList{Records: []PositionRecord{
		{ID: 1, Positions: []uint32{0, 4, 9}},
		{ID: 2, Positions: nil},
		{ID: 10, Positions: []uint32{1}},
	}}
	got, err := DecodePositionList(EncodePositionList(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPositionListRejectsNonMonotonicPositions(t *testing.T) {
	buf := EncodePositionList(PositionList{Records: []PositionRecord{
		{ID: 1, Positions: []uint32{5, 5}},
	}})
	_, err := DecodePositionList(buf)
	require.ErrorIs(t, err, Corrupt)
}

func TestPositionListRejectsTruncation(t *testing.T) {
	buf := EncodePositionList(PositionList{Records: []PositionRecord{
		{ID: 1, Positions: []uint32{1, 2, 3}},
	}})
	for cut := 1; cut < len(buf); cut++ {
		_, err := DecodePositionList(buf[:len(buf)-cut])
		require.Error(t, err)
	}
}

func TestTimeInfoRoundTrip(t *testing.T) {
	ti := TimeInfo{MTime: 1700000000, CTime: -5}
	got, err := DecodeTimeInfo(EncodeTimeInfo(ti))
	require.NoError(t, err)
	assert.Equal(t, ti, got)
}

func TestIdSetRoundTrip(t *testing.T) {
	s := IdSet{Terms: [][]byte{[]byte("a"), []byte("ab"), []byte("abc"), []byte("power")}}
	got, err := DecodeIdSet(EncodeIdSet(s))
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestIdSetRejectsNonMonotonic(t *testing.T) {
	buf := EncodeIdSet(IdSet{Terms: [][]byte{[]byte("b"), []byte("a")}})
	_, err := DecodeIdSet(buf)
	require.ErrorIs(t, err, Corrupt)
}

func TestUrlEntryRoundTrip(t *testing.T) {
	u := UrlEntry{ParentID: 42, Filename: []byte("report.pdf"), MTime: 123, MTimeDirty: true}
	got, err := DecodeUrlEntry(EncodeUrlEntry(u))
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestVersionStampRoundTrip(t *testing.T) {
	v := VersionStamp{Major: 2, Minor: 1}
	got, err := DecodeVersionStamp(EncodeVersionStamp(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestVersionStampRejectsBadToken(t *testing.T) {
	buf := EncodeVersionStamp(VersionStamp{Major: 1})
	buf[0] = 'X'
	_, err := DecodeVersionStamp(buf)
	require.ErrorIs(t, err, Corrupt)
}

func TestRandomTruncationYieldsCorruption(t *testing.T) {
	buf := EncodePostingList(PostingList{IDs: []uint64{1, 2, 3, 4, 5}})
	for n := 0; n < len(buf); n++ {
		_, err := DecodePostingList(buf[:n])
		require.ErrorIs(t, err, Corrupt)
	}
}
