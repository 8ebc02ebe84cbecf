package index

import (
	"encoding/binary"
	"fmt"

	"github.com/cuemby/findex/internal/codec"
	"github.com/cuemby/findex/internal/kvstore"
)

// Bucket names for the index's sub-databases. One bbolt top-level bucket
// per sub-DB, each keyed and valued by the binary records defined in
// package codec instead of JSON.
var (
	bucketPosting          = []byte("posting")
	bucketPosition         = []byte("position")
	bucketDocTermsContent  = []byte("doc_terms_content")
	bucketDocTermsXattr    = []byte("doc_terms_xattr")
	bucketDocTermsFilename = []byte("doc_terms_filename")
	bucketDocURL           = []byte("doc_url")
	bucketDocURLNames      = []byte("names") // nested: (parent_id,filename) -> id
	bucketDocTime          = []byte("doc_time")
	bucketDocData          = []byte("doc_data")
	bucketPhaseOne         = []byte("phase_one")
	bucketFailed           = []byte("failed")
	bucketMTime            = []byte("mtime")
	bucketMeta             = []byte("meta")
)

var metaVersionKey = []byte("version")

func docKey(id DocID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

func decodeDocKey(k []byte) DocID {
	return DocID(binary.BigEndian.Uint64(k))
}

func mtimeKey(mtime int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(mtime))
	return buf
}

func decodeMTimeKey(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}

// TermVariant selects which of the three DocumentTermsDB instances a term
// set belongs to. The posting/position indexes themselves do not
// distinguish variant: a term contributed by two variants for the
// same document still has one entry in PostingDB.
type TermVariant int

const (
	VariantContent TermVariant = iota
	VariantXattr
	VariantFilename
)

// --- PostingDB / PositionDB ---

func postingGet(b *kvstore.Bucket, term []byte) (codec.PostingList, error) {
	v := b.Get(term)
	if v == nil {
		return codec.PostingList{}, nil
	}
	pl, err := codec.DecodePostingList(v)
	if err != nil {
		return codec.PostingList{}, fmt.Errorf("%w: posting %q: %v", ErrCorruption, term, err)
	}
	return pl, nil
}

func postingPut(b *kvstore.Bucket, term []byte, pl codec.PostingList) error {
	if len(pl.IDs) == 0 {
		return b.Delete(term)
	}
	return b.Put(term, codec.EncodePostingList(pl))
}

func positionGet(b *kvstore.Bucket, term []byte) (codec.PositionList, error) {
	v := b.Get(term)
	if v == nil {
		return codec.PositionList{}, nil
	}
	pl, err := codec.DecodePositionList(v)
	if err != nil {
		return codec.PositionList{}, fmt.Errorf("%w: position %q: %v", ErrCorruption, term, err)
	}
	return pl, nil
}

func positionPut(b *kvstore.Bucket, term []byte, pl codec.PositionList) error {
	if len(pl.Records) == 0 {
		return b.Delete(term)
	}
	return b.Put(term, codec.EncodePositionList(pl))
}

// --- DocumentTermsDB (three variants) ---

func docTermsGet(b *kvstore.Bucket, id DocID) (codec.IdSet, bool, error) {
	v := b.Get(docKey(id))
	if v == nil {
		return codec.IdSet{}, false, nil
	}
	s, err := codec.DecodeIdSet(v)
	if err != nil {
		return codec.IdSet{}, false, fmt.Errorf("%w: doc terms %d: %v", ErrCorruption, id, err)
	}
	return s, true, nil
}

func docTermsPut(b *kvstore.Bucket, id DocID, terms []string) error {
	if len(terms) == 0 {
		return b.Delete(docKey(id))
	}
	sorted := append([]string(nil), terms...)
	sortStrings(sorted)
	s := codec.IdSet{Terms: make([][]byte, len(sorted))}
	for i, t := range sorted {
		s.Terms[i] = []byte(t)
	}
	return b.Put(docKey(id), codec.EncodeIdSet(s))
}

func docTermsDelete(b *kvstore.Bucket, id DocID) error {
	return b.Delete(docKey(id))
}

// --- DocumentUrlDB ---

func urlPut(b *kvstore.Bucket, id DocID, entry codec.UrlEntry) error {
	if err := b.Put(docKey(id), codec.EncodeUrlEntry(entry)); err != nil {
		return err
	}
	names, err := b.NestedBucket(bucketDocURLNames)
	if err != nil {
		return err
	}
	return names.Put(reverseNameKey(DocID(entry.ParentID), entry.Filename), docKey(id))
}

func urlGet(b *kvstore.Bucket, id DocID) (codec.UrlEntry, bool, error) {
	v := b.Get(docKey(id))
	if v == nil {
		return codec.UrlEntry{}, false, nil
	}
	u, err := codec.DecodeUrlEntry(v)
	if err != nil {
		return codec.UrlEntry{}, false, fmt.Errorf("%w: url entry %d: %v", ErrCorruption, id, err)
	}
	return u, true, nil
}

func urlDelete(b *kvstore.Bucket, id DocID) error {
	entry, ok, err := urlGet(b, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := b.Delete(docKey(id)); err != nil {
		return err
	}
	names, err := b.NestedBucket(bucketDocURLNames)
	if err != nil {
		return err
	}
	return names.Delete(reverseNameKey(DocID(entry.ParentID), entry.Filename))
}

func urlLookupID(b *kvstore.Bucket, parentID DocID, filename []byte) (DocID, bool) {
	names := b.GetNestedBucket(bucketDocURLNames)
	v := names.Get(reverseNameKey(parentID, filename))
	if v == nil {
		return 0, false
	}
	return decodeDocKey(v), true
}

func reverseNameKey(parentID DocID, filename []byte) []byte {
	key := make([]byte, 8+len(filename))
	binary.BigEndian.PutUint64(key[:8], uint64(parentID))
	copy(key[8:], filename)
	return key
}

// --- DocumentTimeDB ---

func timeGet(b *kvstore.Bucket, id DocID) (codec.TimeInfo, bool, error) {
	v := b.Get(docKey(id))
	if v == nil {
		return codec.TimeInfo{}, false, nil
	}
	ti, err := codec.DecodeTimeInfo(v)
	if err != nil {
		return codec.TimeInfo{}, false, fmt.Errorf("%w: time info %d: %v", ErrCorruption, id, err)
	}
	return ti, true, nil
}

func timePut(b *kvstore.Bucket, id DocID, ti codec.TimeInfo) error {
	return b.Put(docKey(id), codec.EncodeTimeInfo(ti))
}

func timeDelete(b *kvstore.Bucket, id DocID) error {
	return b.Delete(docKey(id))
}

// --- DocumentDataDB ---

func dataPut(b *kvstore.Bucket, id DocID, data []byte) error {
	if len(data) == 0 {
		return b.Delete(docKey(id))
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return b.Put(docKey(id), cp)
}

func dataDelete(b *kvstore.Bucket, id DocID) error {
	return b.Delete(docKey(id))
}

// --- MTimeDB (mtime -> posting list of ids) ---

func mtimeAdd(b *kvstore.Bucket, mtime int64, id DocID) error {
	key := mtimeKey(mtime)
	pl, err := postingGet(b, key)
	if err != nil {
		return err
	}
	pl.IDs = sortedInsert(pl.IDs, uint64(id))
	return postingPut(b, key, pl)
}

func mtimeRemove(b *kvstore.Bucket, mtime int64, id DocID) error {
	key := mtimeKey(mtime)
	pl, err := postingGet(b, key)
	if err != nil {
		return err
	}
	pl.IDs = removeFirst(pl.IDs, uint64(id))
	return postingPut(b, key, pl)
}

// --- DocumentIdDB (phase-one queue / failed set) ---

func idSetAdd(b *kvstore.Bucket, id DocID) error {
	return b.Put(docKey(id), []byte{1})
}

func idSetRemove(b *kvstore.Bucket, id DocID) error {
	return b.Delete(docKey(id))
}

func idSetContains(b *kvstore.Bucket, id DocID) bool {
	return b.Get(docKey(id)) != nil
}

func idSetSize(b *kvstore.Bucket) int {
	n := 0
	_ = b.Range(nil, func(k, v []byte) error {
		n++
		return nil
	})
	return n
}

// idSetFetch returns up to n ids from the set in ascending order.
func idSetFetch(b *kvstore.Bucket, n int) []DocID {
	var out []DocID
	_ = b.Range(nil, func(k, v []byte) error {
		if len(out) >= n {
			return errStopRange
		}
		out = append(out, decodeDocKey(k))
		return nil
	})
	return out
}

var errStopRange = fmt.Errorf("index: stop range")

func sortStrings(s []string) {
	// Small helper kept local: insertion sort is fine, term sets per
	// document are small (dozens to low hundreds of terms).
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
