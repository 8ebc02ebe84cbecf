package index

import (
	"fmt"
	"path"

	"github.com/cuemby/findex/internal/codec"
	"github.com/cuemby/findex/internal/index/iter"
	"github.com/cuemby/findex/internal/kvstore"
)

// ReadTransaction is a snapshot-scoped read handle: every lookup it
// serves observes the database as of the moment it was opened, regardless
// of writes committed afterward.
type ReadTransaction struct {
	rtx     *kvstore.ReadTx
	buckets readBuckets
}

type readBuckets struct {
	posting, position                    *kvstore.Bucket
	content, xattr, filename             *kvstore.Bucket
	url, docTime, data, phaseOne, failed *kvstore.Bucket
	mtime                                *kvstore.Bucket
}

func newReadTransaction(rtx *kvstore.ReadTx) *ReadTransaction {
	return &ReadTransaction{rtx: rtx, buckets: readBuckets{
		posting:  rtx.Bucket(bucketPosting),
		position: rtx.Bucket(bucketPosition),
		content:  rtx.Bucket(bucketDocTermsContent),
		xattr:    rtx.Bucket(bucketDocTermsXattr),
		filename: rtx.Bucket(bucketDocTermsFilename),
		url:      rtx.Bucket(bucketDocURL),
		docTime:  rtx.Bucket(bucketDocTime),
		data:     rtx.Bucket(bucketDocData),
		phaseOne: rtx.Bucket(bucketPhaseOne),
		failed:   rtx.Bucket(bucketFailed),
		mtime:    rtx.Bucket(bucketMTime),
	}}
}

// Close releases the underlying snapshot. Further calls on this
// transaction are invalid afterward.
func (rt *ReadTransaction) Close() error {
	return rt.rtx.Rollback()
}

// HasDocument reports whether id has a time-info record, the same
// existence check AddDocument/RemoveDocument keep in lockstep with every
// other per-document sub-DB.
func (rt *ReadTransaction) HasDocument(id DocID) bool {
	return rt.buckets.docTime.Get(docKey(id)) != nil
}

// maxURLDepth bounds the parent-chain walk in DocumentURL. Real
// filesystem trees are nowhere near this deep; exceeding it means the
// chain contains a cycle, which only a corrupt store can produce.
const maxURLDepth = 512

// DocumentID resolves an absolute path to its document id by descending
// DocumentUrlDB's reverse name index: roots are stored under parent id
// 0 with their full path as the name, deeper entries under their
// parent's id with only the final component.
func (rt *ReadTransaction) DocumentID(url string) (DocID, bool) {
	if url == "" {
		return 0, false
	}
	if id, ok := urlLookupID(rt.buckets.url, 0, []byte(url)); ok {
		return id, true
	}
	dir, file := path.Dir(url), path.Base(url)
	if dir == url || file == url {
		return 0, false
	}
	parent, ok := rt.DocumentID(dir)
	if !ok {
		return 0, false
	}
	return urlLookupID(rt.buckets.url, parent, []byte(file))
}

// DocumentURL reconstructs id's absolute path by walking the parent
// chain up to a root entry (parent id 0) and joining the stored name
// components.
func (rt *ReadTransaction) DocumentURL(id DocID) (string, bool, error) {
	var parts []string
	cur := id
	for depth := 0; cur != 0; depth++ {
		if depth >= maxURLDepth {
			return "", false, fmt.Errorf("%w: parent chain for document %d does not terminate", ErrCorruption, id)
		}
		entry, ok, err := urlGet(rt.buckets.url, cur)
		if err != nil {
			return "", false, err
		}
		if !ok {
			if cur == id {
				return "", false, nil
			}
			return "", false, fmt.Errorf("%w: document %d references missing parent %d", ErrCorruption, id, cur)
		}
		parts = append(parts, string(entry.Filename))
		cur = DocID(entry.ParentID)
	}
	url := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		url = url + "/" + parts[i]
	}
	return url, true, nil
}

// DocumentURLEntry returns the raw stored url record for id: its parent
// id, name component, recorded mtime, and the mtime-dirty flag.
func (rt *ReadTransaction) DocumentURLEntry(id DocID) (codec.UrlEntry, bool, error) {
	return urlGet(rt.buckets.url, id)
}

// DocumentTimeInfo returns id's stored mtime/ctime.
func (rt *ReadTransaction) DocumentTimeInfo(id DocID) (codec.TimeInfo, bool, error) {
	return timeGet(rt.buckets.docTime, id)
}

// DocumentsByMTime returns the ids of every document whose recorded
// mtime equals mtime, in ascending order.
func (rt *ReadTransaction) DocumentsByMTime(mtime int64) ([]DocID, error) {
	pl, err := postingGet(rt.buckets.mtime, mtimeKey(mtime))
	if err != nil {
		return nil, err
	}
	ids := make([]DocID, len(pl.IDs))
	for i, id := range pl.IDs {
		ids[i] = DocID(id)
	}
	return ids, nil
}

// DocumentsByMTimeRange returns the ids of every document whose mtime
// falls within [from, to], ordered by mtime and then by id. from and to
// must be non-negative; the key encoding does not order pre-epoch
// mtimes, which real file timestamps never carry.
func (rt *ReadTransaction) DocumentsByMTimeRange(from, to int64) ([]DocID, error) {
	var out []DocID
	err := rt.buckets.mtime.Range(nil, func(k, v []byte) error {
		mt := decodeMTimeKey(k)
		if mt < from {
			return nil
		}
		if mt > to {
			return errStopRange
		}
		pl, err := codec.DecodePostingList(v)
		if err != nil {
			return fmt.Errorf("%w: mtime %d: %v", ErrCorruption, mt, err)
		}
		for _, id := range pl.IDs {
			out = append(out, DocID(id))
		}
		return nil
	})
	if err != nil && err != errStopRange {
		return nil, err
	}
	return out, nil
}

// DocumentData returns id's opaque data blob, or nil if none is stored.
func (rt *ReadTransaction) DocumentData(id DocID) []byte {
	return rt.buckets.data.Get(docKey(id))
}

// PhaseOneSize returns the number of documents awaiting content
// extraction.
func (rt *ReadTransaction) PhaseOneSize() int {
	return idSetSize(rt.buckets.phaseOne)
}

// FetchPhaseOneIDs returns up to n document ids from the phase-one queue,
// in ascending order.
func (rt *ReadTransaction) FetchPhaseOneIDs(n int) []DocID {
	return idSetFetch(rt.buckets.phaseOne, n)
}

// HasFailed reports whether id is in the failed set.
func (rt *ReadTransaction) HasFailed(id DocID) bool {
	return idSetContains(rt.buckets.failed, id)
}

// FailedSize returns the number of documents in the failed set.
func (rt *ReadTransaction) FailedSize() int {
	return idSetSize(rt.buckets.failed)
}

// DocumentCount returns the total number of documents with a stored time
// record, used as the corpus size for reporting purposes.
func (rt *ReadTransaction) DocumentCount() int {
	return idSetSize(rt.buckets.docTime)
}

// HasTerm reports whether term has any postings at all. This is a direct
// existence probe, not a Not-iterator: the iterator algebra never yields
// a "does not contain" stream, since that would require enumerating every
// document id in the corpus rather than just the ones a term touches.
func (rt *ReadTransaction) HasTerm(term string) bool {
	return rt.buckets.posting.Get([]byte(term)) != nil
}

// TermIterator returns a leaf iterator over term's posting list.
func (rt *ReadTransaction) TermIterator(term string) (iter.DocIterator, error) {
	pl, err := postingGet(rt.buckets.posting, []byte(term))
	if err != nil {
		return nil, err
	}
	return iter.NewVector(pl.IDs), nil
}

// TermPositions returns the sorted occurrence positions of term within
// document id, used by Phrase iterators and by callers that want to
// highlight matches.
func (rt *ReadTransaction) TermPositions(term string, id DocID) ([]uint32, error) {
	posL, err := positionGet(rt.buckets.position, []byte(term))
	if err != nil {
		return nil, err
	}
	for _, rec := range posL.Records {
		if rec.ID == uint64(id) {
			return rec.Positions, nil
		}
	}
	return nil, nil
}

// PhraseIterator builds a Phrase iterator over terms, fetching per-term
// positions from this snapshot.
func (rt *ReadTransaction) PhraseIterator(terms []string) (*iter.Phrase, error) {
	children := make([]iter.DocIterator, len(terms))
	for i, term := range terms {
		it, err := rt.TermIterator(term)
		if err != nil {
			return nil, err
		}
		children[i] = it
	}
	fetch := func(term string, id uint64) ([]uint32, error) {
		return rt.TermPositions(term, DocID(id))
	}
	return iter.NewPhrase(terms, children, fetch), nil
}
