package index

import (
	"fmt"
	"path"
	"sort"

	"github.com/cuemby/findex/internal/codec"
	"github.com/cuemby/findex/internal/kvstore"
)

type pendingTermOp struct {
	addPositions map[DocID][]uint32
	removes      map[DocID]struct{}
}

// WriteTransaction is the single exclusive writer. It buffers per-term
// posting/position mutations in memory and replays them against
// PostingDB/PositionDB at Commit, a buffer-then-replay shape that costs
// one read-modify-write per touched term per transaction instead of one
// per document.
type WriteTransaction struct {
	wtx     *kvstore.WriteTx
	buckets writeBuckets
	pending map[string]*pendingTermOp
	done    bool
}

type writeBuckets struct {
	posting, position                    *kvstore.Bucket
	content, xattr, filename             *kvstore.Bucket
	url, docTime, data, phaseOne, failed *kvstore.Bucket
	mtime                                *kvstore.Bucket
}

func newWriteTransaction(wtx *kvstore.WriteTx) (*WriteTransaction, error) {
	wt := &WriteTransaction{wtx: wtx, pending: make(map[string]*pendingTermOp)}
	var err error
	for name, dst := range map[string]**kvstore.Bucket{
		string(bucketPosting):          &wt.buckets.posting,
		string(bucketPosition):         &wt.buckets.position,
		string(bucketDocTermsContent):  &wt.buckets.content,
		string(bucketDocTermsXattr):    &wt.buckets.xattr,
		string(bucketDocTermsFilename): &wt.buckets.filename,
		string(bucketDocURL):           &wt.buckets.url,
		string(bucketDocTime):          &wt.buckets.docTime,
		string(bucketDocData):          &wt.buckets.data,
		string(bucketPhaseOne):         &wt.buckets.phaseOne,
		string(bucketFailed):           &wt.buckets.failed,
		string(bucketMTime):            &wt.buckets.mtime,
	} {
		*dst, err = wtx.Bucket([]byte(name))
		if err != nil {
			return nil, err
		}
	}
	return wt, nil
}

func (wt *WriteTransaction) termOp(term string) *pendingTermOp {
	op := wt.pending[term]
	if op == nil {
		op = &pendingTermOp{addPositions: make(map[DocID][]uint32), removes: make(map[DocID]struct{})}
		wt.pending[term] = op
	}
	return op
}

// queueAdd stages an AddId{id, positions} op for term. If id is already
// staged as an add for this term within the same transaction (two variant
// maps contributing the same term, say), this call is a no-op: dedup-by-id
// applies to the whole op, not just the id, so the first AddId's positions
// win and later ones are discarded rather than merged.
func (wt *WriteTransaction) queueAdd(term string, id DocID, positions []uint32) {
	op := wt.termOp(term)
	delete(op.removes, id)
	if _, staged := op.addPositions[id]; staged {
		return
	}
	op.addPositions[id] = append([]uint32(nil), positions...)
}

func (wt *WriteTransaction) queueRemove(term string, id DocID) {
	op := wt.termOp(term)
	delete(op.addPositions, id)
	op.removes[id] = struct{}{}
}

func keysOf(m map[string]TermPositions) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func termsBucketFor(wb writeBuckets, v TermVariant) *kvstore.Bucket {
	switch v {
	case VariantContent:
		return wb.content
	case VariantXattr:
		return wb.xattr
	case VariantFilename:
		return wb.filename
	default:
		panic(fmt.Sprintf("index: unknown term variant %d", v))
	}
}

func otherVariantBuckets(wb writeBuckets, v TermVariant) []*kvstore.Bucket {
	var out []*kvstore.Bucket
	for _, other := range []TermVariant{VariantContent, VariantXattr, VariantFilename} {
		if other != v {
			out = append(out, termsBucketFor(wb, other))
		}
	}
	return out
}

// documentExists checks id for presence in any of the six primary
// sub-DBs AddDocument's precondition is defined over: the three
// DocumentTermsDB variants, DocumentTimeDB, DocumentDataDB, and the
// phase-one queue.
func (wt *WriteTransaction) documentExists(id DocID) bool {
	key := docKey(id)
	if wt.buckets.content.Get(key) != nil || wt.buckets.xattr.Get(key) != nil || wt.buckets.filename.Get(key) != nil {
		return true
	}
	if wt.buckets.docTime.Get(key) != nil || wt.buckets.data.Get(key) != nil {
		return true
	}
	return idSetContains(wt.buckets.phaseOne, id)
}

func termReferencedElsewhere(buckets []*kvstore.Bucket, id DocID, term string) bool {
	for _, b := range buckets {
		s, ok, err := docTermsGet(b, id)
		if err != nil || !ok {
			continue
		}
		for _, t := range s.Terms {
			if string(t) == term {
				return true
			}
		}
	}
	return false
}

// AddDocument stages a brand new document's term occurrences, url, time
// info, data blob, and phase-one membership. It must be called with an id
// that has never been written, or with one previously removed; callers
// wanting upsert semantics use ReplaceDocument instead. Calling it with an
// id already present in any of the six primary sub-DBs is a contract
// violation: use ReplaceDocument to update an existing document.
func (wt *WriteTransaction) AddDocument(doc Document) error {
	if !doc.ID.Valid() {
		return fmt.Errorf("%w: zero document id", ErrContractViolation)
	}
	if wt.documentExists(doc.ID) {
		return fmt.Errorf("%w: document %d already indexed", ErrContractViolation, doc.ID)
	}
	for term, tp := range doc.ContentTerms {
		wt.queueAdd(term, doc.ID, tp.Positions)
	}
	for term, tp := range doc.XattrTerms {
		wt.queueAdd(term, doc.ID, tp.Positions)
	}
	for term, tp := range doc.FilenameTerms {
		wt.queueAdd(term, doc.ID, tp.Positions)
	}
	if err := docTermsPut(wt.buckets.content, doc.ID, keysOf(doc.ContentTerms)); err != nil {
		return err
	}
	if err := docTermsPut(wt.buckets.xattr, doc.ID, keysOf(doc.XattrTerms)); err != nil {
		return err
	}
	if err := docTermsPut(wt.buckets.filename, doc.ID, keysOf(doc.FilenameTerms)); err != nil {
		return err
	}
	if doc.URL != "" {
		// Roots (parent id 0) keep their full path as the stored name;
		// everything below a root stores only its final component and is
		// reconstructed by walking the parent chain.
		filename := doc.URL
		if doc.ParentID != 0 {
			filename = path.Base(doc.URL)
		}
		if err := urlPut(wt.buckets.url, doc.ID, codec.UrlEntry{
			ParentID: uint64(doc.ParentID),
			Filename: []byte(filename),
			MTime:    doc.MTime,
		}); err != nil {
			return err
		}
	}
	if err := timePut(wt.buckets.docTime, doc.ID, codec.TimeInfo{MTime: doc.MTime, CTime: doc.CTime}); err != nil {
		return err
	}
	if err := mtimeAdd(wt.buckets.mtime, doc.MTime, doc.ID); err != nil {
		return err
	}
	if err := dataPut(wt.buckets.data, doc.ID, doc.Data); err != nil {
		return err
	}
	if err := idSetRemove(wt.buckets.failed, doc.ID); err != nil {
		return err
	}
	if doc.ContentIndexingRequired {
		return idSetAdd(wt.buckets.phaseOne, doc.ID)
	}
	return idSetRemove(wt.buckets.phaseOne, doc.ID)
}

// RemoveDocument drops every trace of id: its term memberships (and their
// postings/position entries, once no other variant still references the
// term), its url, time, data, and queue/failed membership.
func (wt *WriteTransaction) RemoveDocument(id DocID) error {
	contentSet, _, err := docTermsGet(wt.buckets.content, id)
	if err != nil {
		return err
	}
	xattrSet, _, err := docTermsGet(wt.buckets.xattr, id)
	if err != nil {
		return err
	}
	filenameSet, _, err := docTermsGet(wt.buckets.filename, id)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, set := range [][][]byte{contentSet.Terms, xattrSet.Terms, filenameSet.Terms} {
		for _, t := range set {
			seen[string(t)] = struct{}{}
		}
	}
	for term := range seen {
		wt.queueRemove(term, id)
	}

	if err := docTermsDelete(wt.buckets.content, id); err != nil {
		return err
	}
	if err := docTermsDelete(wt.buckets.xattr, id); err != nil {
		return err
	}
	if err := docTermsDelete(wt.buckets.filename, id); err != nil {
		return err
	}

	if ti, ok, err := timeGet(wt.buckets.docTime, id); err != nil {
		return err
	} else if ok {
		if err := timeDelete(wt.buckets.docTime, id); err != nil {
			return err
		}
		if err := mtimeRemove(wt.buckets.mtime, ti.MTime, id); err != nil {
			return err
		}
	}

	if err := urlDelete(wt.buckets.url, id); err != nil {
		return err
	}
	if err := dataDelete(wt.buckets.data, id); err != nil {
		return err
	}
	if err := idSetRemove(wt.buckets.phaseOne, id); err != nil {
		return err
	}
	return idSetRemove(wt.buckets.failed, id)
}

func replaceVariantTerms(wb writeBuckets, wt *WriteTransaction, variant TermVariant, id DocID, newTerms map[string]TermPositions) error {
	bucket := termsBucketFor(wb, variant)
	others := otherVariantBuckets(wb, variant)

	old, _, err := docTermsGet(bucket, id)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(newTerms))
	for k := range newTerms {
		keep[k] = struct{}{}
	}
	for _, t := range old.Terms {
		term := string(t)
		if _, stillPresent := keep[term]; stillPresent {
			// Persisting term: remove its stale entry unconditionally so
			// the AddId below re-inserts fresh positions instead of the
			// no-op dedup-by-id leaving the old on-disk ones in place.
			wt.queueRemove(term, id)
			continue
		}
		if !termReferencedElsewhere(others, id, term) {
			wt.queueRemove(term, id)
		}
	}
	for term, tp := range newTerms {
		wt.queueAdd(term, id, tp.Positions)
	}
	return docTermsPut(bucket, id, keysOf(newTerms))
}

// ReplaceDocument overwrites only the aspects named by mask, leaving the
// rest of id's record untouched. ReplaceURL is not supported: the reverse
// (parent_id, filename) -> id map would need its old entry unlinked first
// and no caller in this codebase needs it, so it reports ErrUnsupported
// rather than silently leaving a stale reverse-lookup entry.
//
// Replacing ReplaceTime does not remove id's entry under its previous
// mtime bucket key; the stale entry is left behind, matching the
// reference behavior this was modeled on.
func (wt *WriteTransaction) ReplaceDocument(id DocID, doc Document, mask ReplaceMask) error {
	if mask.Has(ReplaceURL) {
		return ErrUnsupported
	}
	if mask.Has(ReplaceContentTerms) {
		if err := replaceVariantTerms(wt.buckets, wt, VariantContent, id, doc.ContentTerms); err != nil {
			return err
		}
	}
	if mask.Has(ReplaceXattrTerms) {
		if err := replaceVariantTerms(wt.buckets, wt, VariantXattr, id, doc.XattrTerms); err != nil {
			return err
		}
	}
	if mask.Has(ReplaceFilenameTerms) {
		if err := replaceVariantTerms(wt.buckets, wt, VariantFilename, id, doc.FilenameTerms); err != nil {
			return err
		}
	}
	if mask.Has(ReplaceTime) {
		if err := timePut(wt.buckets.docTime, id, codec.TimeInfo{MTime: doc.MTime, CTime: doc.CTime}); err != nil {
			return err
		}
		if err := mtimeAdd(wt.buckets.mtime, doc.MTime, id); err != nil {
			return err
		}
	}
	if mask.Has(ReplaceData) {
		if err := dataPut(wt.buckets.data, id, doc.Data); err != nil {
			return err
		}
	}
	return nil
}

// MarkFailed moves id out of the phase-one queue and into the failed set.
func (wt *WriteTransaction) MarkFailed(id DocID) error {
	if err := idSetRemove(wt.buckets.phaseOne, id); err != nil {
		return err
	}
	return idSetAdd(wt.buckets.failed, id)
}

// RemovePhaseOne drops id from the phase-one queue without marking it
// failed, used once content indexing completes successfully.
func (wt *WriteTransaction) RemovePhaseOne(id DocID) error {
	return idSetRemove(wt.buckets.phaseOne, id)
}

// Commit replays every buffered per-term operation against PostingDB and
// PositionDB, then persists the whole write in one bbolt commit.
func (wt *WriteTransaction) Commit() error {
	if wt.done {
		return fmt.Errorf("%w: transaction already closed", ErrContractViolation)
	}
	wt.done = true

	terms := make([]string, 0, len(wt.pending))
	for t := range wt.pending {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	for _, term := range terms {
		op := wt.pending[term]
		key := []byte(term)

		pl, err := postingGet(wt.buckets.posting, key)
		if err != nil {
			return err
		}
		posL, err := positionGet(wt.buckets.position, key)
		if err != nil {
			return err
		}

		addIDs := make([]DocID, 0, len(op.addPositions))
		for id := range op.addPositions {
			addIDs = append(addIDs, id)
		}
		sort.Slice(addIDs, func(i, j int) bool { return addIDs[i] < addIDs[j] })

		for _, id := range addIDs {
			pl.IDs = sortedInsert(pl.IDs, uint64(id))
			// A position record exists iff the term has positions for the
			// id. An add with no positions must also clear any record a
			// staged remove-then-add pair would otherwise leave behind.
			if positions := op.addPositions[id]; len(positions) > 0 {
				posL.Records = upsertPositionRecord(posL.Records, id, positions)
			} else {
				posL.Records = removePositionRecord(posL.Records, id)
			}
		}
		for id := range op.removes {
			pl.IDs = removeFirst(pl.IDs, uint64(id))
			posL.Records = removePositionRecord(posL.Records, id)
		}

		if err := postingPut(wt.buckets.posting, key, pl); err != nil {
			return err
		}
		if err := positionPut(wt.buckets.position, key, posL); err != nil {
			return err
		}
	}

	return wt.wtx.Commit()
}

// Rollback discards every staged mutation without touching the database.
func (wt *WriteTransaction) Rollback() error {
	if wt.done {
		return nil
	}
	wt.done = true
	return wt.wtx.Rollback()
}

// upsertPositionRecord inserts (or, if id is already present, overwrites)
// the (id, positions) record at its sorted position. An id already on
// disk only reaches here when a RemoveId for the same id was staged and
// then superseded by a later AddId within the same transaction (see
// replaceVariantTerms): the two collapse into a single final AddId, so the
// record this produces must hold exactly the new positions, not a merge
// of old and new.
func upsertPositionRecord(records []codec.PositionRecord, id DocID, positions []uint32) []codec.PositionRecord {
	i := sort.Search(len(records), func(i int) bool { return records[i].ID >= uint64(id) })
	if i < len(records) && records[i].ID == uint64(id) {
		records[i].Positions = append([]uint32(nil), positions...)
		return records
	}
	records = append(records, codec.PositionRecord{})
	copy(records[i+1:], records[i:])
	records[i] = codec.PositionRecord{ID: uint64(id), Positions: append([]uint32(nil), positions...)}
	return records
}

func removePositionRecord(records []codec.PositionRecord, id DocID) []codec.PositionRecord {
	i := sort.Search(len(records), func(i int) bool { return records[i].ID >= uint64(id) })
	if i >= len(records) || records[i].ID != uint64(id) {
		return records
	}
	return append(records[:i], records[i+1:]...)
}
