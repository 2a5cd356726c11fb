package dbx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

var testBucket = []byte("t")

func setupBolt(t *testing.T) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "dbx.bolt"), 0o600, &bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(testBucket)
		return err
	}))
	return db
}

func boltKeys(t *testing.T, b Bolt) []string {
	t.Helper()
	var keys []string
	require.NoError(t, b.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(testBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	}))
	return keys
}

func TestBolt_UpdateThenView(t *testing.T) {
	db := setupBolt(t)
	b := NewBolt(db)

	require.NoError(t, b.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(testBucket).Put([]byte("a"), []byte("1"))
	}))
	assert.Equal(t, []string{"a"}, boltKeys(t, b))
}

func TestWithBoltTx_CommitsOnSuccess(t *testing.T) {
	db := setupBolt(t)

	err := WithBoltTx(context.Background(), db, func(ctx context.Context, b Bolt) error {
		if err := b.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(testBucket).Put([]byte("a"), []byte("1"))
		}); err != nil {
			return err
		}
		// second call joins the same transaction and sees the first write
		return b.View(func(tx *bbolt.Tx) error {
			if tx.Bucket(testBucket).Get([]byte("a")) == nil {
				return errors.New("write not visible inside tx")
			}
			return tx.Bucket(testBucket).Put([]byte("b"), []byte("2"))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, boltKeys(t, NewBolt(db)))
}

func TestWithBoltTx_RollbackOnError(t *testing.T) {
	db := setupBolt(t)

	err := WithBoltTx(context.Background(), db, func(ctx context.Context, b Bolt) error {
		require.NoError(t, b.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(testBucket).Put([]byte("a"), []byte("1"))
		}))
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Empty(t, boltKeys(t, NewBolt(db)))
}

func TestBolt_UpdateOnReadOnlyTx(t *testing.T) {
	db := setupBolt(t)

	err := db.View(func(tx *bbolt.Tx) error {
		b := Bolt{db: db, tx: tx}
		return b.Update(func(tx *bbolt.Tx) error { return nil })
	})
	assert.ErrorIs(t, err, ErrReadOnlyTx)
}
