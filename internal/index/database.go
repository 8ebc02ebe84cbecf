// Package index implements the transactional on-disk inverted index: a
// set of interdependent key/value sub-maps (postings, positions, per-
// document term sets, urls, timestamps, data blobs, and the phase-one/
// failed id sets) and the single-writer/many-readers transaction model
// that keeps them consistent with each other.
package index

import (
	"errors"
	"fmt"
	"os"

	"github.com/cuemby/findex/internal/codec"
	"github.com/cuemby/findex/internal/kvstore"
)

// CurrentVersion is the on-disk format version this build writes and
// reads. The version stamp's token bytes are a wire-compatibility
// constant and never change; only Major/Minor do, when the record
// layouts in package codec change.
var CurrentVersion = codec.VersionStamp{Major: 1, Minor: 0}

// Database is the façade over the on-disk store: it owns the bbolt file,
// verifies the version stamp on open, and hands out read/write
// transactions.
type Database struct {
	kv *kvstore.DB
}

// Open opens the database at path. mode controls existence semantics:
// OpenExisting requires the file to already exist, Create requires it not to,
// and CreateIfMissing accepts either.
func Open(path string, mode OpenMode) (*Database, error) {
	if mode == OpenExisting {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrPathUnusable, path, err)
		}
	}
	kv, err := kvstore.Open(path, mode == Create)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPathUnusable, err)
	}
	db := &Database{kv: kv}
	if err := db.ensureVersion(); err != nil {
		_ = kv.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) ensureVersion() error {
	return db.kv.Update(func(tx *kvstore.WriteTx) error {
		b, err := tx.Bucket(bucketMeta)
		if err != nil {
			return err
		}
		existing := b.Get(metaVersionKey)
		if existing == nil {
			return b.Put(metaVersionKey, codec.EncodeVersionStamp(CurrentVersion))
		}
		vs, err := codec.DecodeVersionStamp(existing)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruption, err)
		}
		if vs.Major != CurrentVersion.Major {
			return fmt.Errorf("%w: on-disk v%d.%d, this build writes v%d.%d",
				ErrVersionMismatch, vs.Major, vs.Minor, CurrentVersion.Major, CurrentVersion.Minor)
		}
		return nil
	})
}

// Close closes the underlying store.
func (db *Database) Close() error {
	return db.kv.Close()
}

// Path returns the on-disk file path.
func (db *Database) Path() string {
	return db.kv.Path()
}

// Size returns the current on-disk file size in bytes.
func (db *Database) Size() (int64, error) {
	return db.kv.Size()
}

// BeginRead opens a new snapshot-isolated read transaction. Any number of
// readers may be open concurrently with each other and with a single
// writer.
func (db *Database) BeginRead() (*ReadTransaction, error) {
	rtx, err := db.kv.BeginRead()
	if err != nil {
		return nil, err
	}
	return newReadTransaction(rtx), nil
}

// BeginWrite opens the single exclusive write transaction. A second
// concurrent call from the same process fails immediately with ErrBusy
// rather than blocking, per the backend's exclusive-writer contract.
func (db *Database) BeginWrite() (*WriteTransaction, error) {
	wtx, err := db.kv.BeginWrite()
	if err != nil {
		if errors.Is(err, kvstore.ErrBusy) {
			return nil, ErrBusy
		}
		return nil, err
	}
	return newWriteTransaction(wtx)
}
