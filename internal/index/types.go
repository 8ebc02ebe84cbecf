package index

// DocID is a document identifier derived from (device, inode): the high
// 32 bits are the device id, the low 32 bits the inode. Zero is reserved
// as the "none/end" sentinel and is never a valid document id.
type DocID uint64

// NewDocID derives a document id the way the crawler's filePathToId is
// contracted to: the device id in the high 32 bits, the inode in the low
// 32 bits.
func NewDocID(device, inode uint32) DocID {
	return DocID(uint64(device)<<32 | uint64(inode))
}

// Valid reports whether id is a real document id (i.e. not the zero
// sentinel).
func (id DocID) Valid() bool {
	return id != 0
}

// TermPositions is the sorted, unique set of positions a term occurs at
// within one of a document's term maps.
type TermPositions struct {
	Positions []uint32
}

// Document is the in-memory staging record handed to WriteTransaction by
// the extractor. It is mutated only before being passed to AddDocument or
// ReplaceDocument and is never retained by the transaction after the call
// returns.
type Document struct {
	ID       DocID
	ParentID DocID // 0 for roots
	URL      string

	ContentTerms  map[string]TermPositions
	XattrTerms    map[string]TermPositions
	FilenameTerms map[string]TermPositions

	MTime int64
	CTime int64

	ContentIndexingRequired bool

	Data []byte
}

// OpenMode selects Database.Open's behavior with respect to an existing
// (or missing) on-disk store.
type OpenMode int

const (
	// OpenExisting requires the database to already exist.
	OpenExisting OpenMode = iota
	// CreateIfMissing opens the database, creating it if absent.
	CreateIfMissing
	// Create requires that the database does not already exist.
	Create
)

// ReplaceField names one of the term/url/time/data aspects of a document
// that ReplaceDocument may be asked to overwrite.
type ReplaceField int

const (
	ReplaceContentTerms ReplaceField = iota
	ReplaceXattrTerms
	ReplaceFilenameTerms
	ReplaceURL
	ReplaceTime
	ReplaceData
)

// ReplaceMask is a set of ReplaceField values.
type ReplaceMask map[ReplaceField]struct{}

// NewReplaceMask builds a ReplaceMask from the given fields.
func NewReplaceMask(fields ...ReplaceField) ReplaceMask {
	m := make(ReplaceMask, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return m
}

// Has reports whether field is included in the mask.
func (m ReplaceMask) Has(field ReplaceField) bool {
	_, ok := m[field]
	return ok
}
