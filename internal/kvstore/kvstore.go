// Package kvstore wraps go.etcd.io/bbolt to provide the transactional
// key/value backend described by the index's storage contract: named
// sub-maps ordered by unsigned lexicographic key bytes, snapshot reads,
// and a single exclusive writer per commit.
//
// This mirrors how the teacher's pkg/storage wraps the same library
// (db.View for reads, db.Update for writes, one bucket per logical
// collection) but exposes the bucket/cursor primitives directly instead of
// per-entity CRUD methods, since the index layer above needs to compose
// arbitrary sub-databases (posting lists, position lists, id sets, ...)
// rather than a fixed set of JSON entities.
package kvstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// ErrBusy reports that a second writer attempted to begin a write
// transaction while one was already open. The backend allows only one
// writer at a time; callers should retry or queue rather than block
// indefinitely.
var ErrBusy = errors.New("kvstore: busy")

// DB is a handle to the on-disk key/value store.
type DB struct {
	bolt *bolt.DB
	path string

	// writeLock enforces the single-writer contract at the Go level and
	// lets BeginWrite report ErrBusy instead of blocking when a second
	// writer is attempted, rather than relying on bbolt's own internal
	// writer mutex (which blocks).
	writeLock sync.Mutex
}

// Open opens (and creates, if missing) the bbolt file at path. createOnly,
// if true, fails if the file already exists — used by the index façade's
// Create open mode.
func Open(path string, createOnly bool) (*DB, error) {
	if createOnly {
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("kvstore: %s already exists", path)
		}
	}
	b, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	return &DB{bolt: b, path: path}, nil
}

// Close closes the underlying database file.
func (db *DB) Close() error {
	return db.bolt.Close()
}

// Path returns the filesystem path the database was opened at.
func (db *DB) Path() string {
	return db.path
}

// Size returns the current on-disk file size in bytes.
func (db *DB) Size() (int64, error) {
	info, err := os.Stat(db.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// View runs fn against a read-only snapshot. Concurrent readers never
// block each other or a writer; the snapshot is fixed at the moment View
// is called, per bbolt's MVCC model.
func (db *DB) View(fn func(tx *ReadTx) error) error {
	return db.bolt.View(func(t *bolt.Tx) error {
		return fn(&ReadTx{tx: t})
	})
}

// Update runs fn inside a single exclusive write transaction. If fn
// returns a non-nil error, every bucket mutation made during the call is
// rolled back and nothing is persisted. Returns ErrBusy immediately if a
// write transaction (via Update or BeginWrite) is already open.
func (db *DB) Update(fn func(tx *WriteTx) error) error {
	if !db.writeLock.TryLock() {
		return ErrBusy
	}
	defer db.writeLock.Unlock()
	return db.bolt.Update(func(t *bolt.Tx) error {
		return fn(&WriteTx{tx: t})
	})
}

// BeginRead starts a manually-scoped snapshot read transaction. Unlike
// View, the snapshot stays open until Rollback is called, matching the
// backend contract's begin_read handle that a caller can hold across
// several lookups before releasing it.
func (db *DB) BeginRead() (*ReadTx, error) {
	t, err := db.bolt.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("kvstore: begin read: %w", err)
	}
	return &ReadTx{tx: t}, nil
}

// BeginWrite starts a manually-scoped exclusive write transaction. The
// caller must call Commit or Rollback exactly once, which releases the
// writer lock for the next caller. Returns ErrBusy immediately, instead
// of blocking, if another write transaction is already open.
func (db *DB) BeginWrite() (*WriteTx, error) {
	if !db.writeLock.TryLock() {
		return nil, ErrBusy
	}
	t, err := db.bolt.Begin(true)
	if err != nil {
		db.writeLock.Unlock()
		return nil, fmt.Errorf("kvstore: begin write: %w", err)
	}
	return &WriteTx{tx: t, unlock: db.writeLock.Unlock}, nil
}

// ReadTx is a snapshot-scoped read transaction.
type ReadTx struct {
	tx *bolt.Tx
}

// Rollback releases a manually-begun read snapshot.
func (r *ReadTx) Rollback() error {
	return r.tx.Rollback()
}

// Bucket returns the named top-level sub-map, or nil if it has never been
// written. A nil Bucket behaves as an always-empty map for Get/Range.
func (r *ReadTx) Bucket(name []byte) *Bucket {
	b := r.tx.Bucket(name)
	if b == nil {
		return nil
	}
	return &Bucket{b: b}
}

// WriteTx is the exclusive write handle for a single commit.
type WriteTx struct {
	tx     *bolt.Tx
	unlock func()
	closed bool
}

// Commit persists every mutation made through this handle.
func (w *WriteTx) Commit() error {
	defer w.release()
	return w.tx.Commit()
}

// Rollback discards every mutation made through this handle.
func (w *WriteTx) Rollback() error {
	defer w.release()
	return w.tx.Rollback()
}

func (w *WriteTx) release() {
	if w.closed || w.unlock == nil {
		return
	}
	w.closed = true
	w.unlock()
}

// Bucket returns the named top-level sub-map, creating it if this is the
// first write to it.
func (w *WriteTx) Bucket(name []byte) (*Bucket, error) {
	b, err := w.tx.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, fmt.Errorf("kvstore: bucket %s: %w", name, err)
	}
	return &Bucket{b: b}, nil
}

// Bucket is a sorted byte-string to byte-string map, optionally nesting
// further buckets (used by DocumentUrlDB's reverse name index).
type Bucket struct {
	b *bolt.Bucket
}

// Get returns the value for key, or nil if absent. The returned slice is
// only valid until the enclosing transaction ends; callers that need to
// retain it must copy.
func (b *Bucket) Get(key []byte) []byte {
	if b == nil {
		return nil
	}
	return b.b.Get(key)
}

// Put sets key to value.
func (b *Bucket) Put(key, value []byte) error {
	return b.b.Put(key, value)
}

// Delete removes key. Deleting an absent key is a no-op, matching the
// backend contract's "missing key == empty value" convention.
func (b *Bucket) Delete(key []byte) error {
	return b.b.Delete(key)
}

// Range calls fn for every (key, value) pair whose key starts with prefix,
// in ascending key order. A nil prefix visits every entry. Iteration stops
// early if fn returns a non-nil error, which Range then returns.
func (b *Bucket) Range(prefix []byte, fn func(key, value []byte) error) error {
	if b == nil {
		return nil
	}
	c := b.b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// NestedBucket returns (creating if necessary) a bucket nested inside this
// one. Used for DocumentUrlDB's (parent_id, filename) -> id reverse map.
func (b *Bucket) NestedBucket(name []byte) (*Bucket, error) {
	nb, err := b.b.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, err
	}
	return &Bucket{b: nb}, nil
}

// GetNestedBucket returns an existing nested bucket, or nil if absent.
func (b *Bucket) GetNestedBucket(name []byte) *Bucket {
	if b == nil {
		return nil
	}
	nb := b.b.Bucket(name)
	if nb == nil {
		return nil
	}
	return &Bucket{b: nb}
}
