package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := Open(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := openTemp(t)

	err := db.Update(func(tx *WriteTx) error {
		b, err := tx.Bucket([]byte("posting"))
		require.NoError(t, err)
		return b.Put([]byte("term"), []byte("value"))
	})
	require.NoError(t, err)

	err = db.View(func(tx *ReadTx) error {
		b := tx.Bucket([]byte("posting"))
		assert.Equal(t, []byte("value"), b.Get([]byte("term")))
		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx *WriteTx) error {
		b, err := tx.Bucket([]byte("posting"))
		require.NoError(t, err)
		return b.Delete([]byte("term"))
	})
	require.NoError(t, err)

	err = db.View(func(tx *ReadTx) error {
		b := tx.Bucket([]byte("posting"))
		assert.Nil(t, b.Get([]byte("term")))
		return nil
	})
	require.NoError(t, err)
}

func TestMissingBucketReadsAsEmpty(t *testing.T) {
	db := openTemp(t)
	err := db.View(func(tx *ReadTx) error {
		b := tx.Bucket([]byte("never-written"))
		assert.Nil(t, b)
		assert.Nil(t, b.Get([]byte("x")))
		return b.Range(nil, func(k, v []byte) error {
			t.Fatal("unexpected entry")
			return nil
		})
	})
	require.NoError(t, err)
}

func TestRangePrefix(t *testing.T) {
	db := openTemp(t)
	err := db.Update(func(tx *WriteTx) error {
		b, err := tx.Bucket([]byte("b"))
		require.NoError(t, err)
		for _, k := range []string{"aa", "ab", "ac", "b"} {
			if err := b.Put([]byte(k), []byte("1")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var got []string
	err = db.View(func(tx *ReadTx) error {
		return tx.Bucket([]byte("b")).Range([]byte("a"), func(k, v []byte) error {
			got = append(got, string(k))
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "ab", "ac"}, got)
}

func TestFailedUpdateRollsBack(t *testing.T) {
	db := openTemp(t)
	sentinel := assert.AnError

	err := db.Update(func(tx *WriteTx) error {
		b, err := tx.Bucket([]byte("b"))
		require.NoError(t, err)
		if err := b.Put([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	err = db.View(func(tx *ReadTx) error {
		b := tx.Bucket([]byte("b"))
		assert.Nil(t, b.Get([]byte("k")))
		return nil
	})
	require.NoError(t, err)
}

func TestBeginWriteBusyWhileWriterOpen(t *testing.T) {
	db := openTemp(t)

	wtx, err := db.BeginWrite()
	require.NoError(t, err)

	_, err = db.BeginWrite()
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, wtx.Rollback())

	wtx2, err := db.BeginWrite()
	require.NoError(t, err)
	require.NoError(t, wtx2.Rollback())
}

func TestNestedBucket(t *testing.T) {
	db := openTemp(t)
	err := db.Update(func(tx *WriteTx) error {
		b, err := tx.Bucket([]byte("url"))
		require.NoError(t, err)
		nb, err := b.NestedBucket([]byte("names"))
		require.NoError(t, err)
		return nb.Put([]byte("child"), []byte("1"))
	})
	require.NoError(t, err)

	err = db.View(func(tx *ReadTx) error {
		b := tx.Bucket([]byte("url"))
		nb := b.GetNestedBucket([]byte("names"))
		require.NotNil(t, nb)
		assert.Equal(t, []byte("1"), nb.Get([]byte("child")))
		return nil
	})
	require.NoError(t, err)
}
