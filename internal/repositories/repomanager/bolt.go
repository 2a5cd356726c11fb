package repomanager

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/filex"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
	"go.etcd.io/bbolt"
)

// BoltManager vends bbolt-backed repositories over one database file.
type BoltManager struct {
	db *bbolt.DB
}

// NewBoltManager opens (or creates) the bbolt file at path and makes sure
// both buckets exist.
func NewBoltManager(ctx context.Context, path string) (*BoltManager, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{records.Bucket, history.Bucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltManager{db: db}, nil
}

func (m *BoltManager) Records() records.Repository {
	return records.NewBoltRepository(dbx.NewBolt(m.db))
}

func (m *BoltManager) History() history.Repository {
	return history.NewBoltRepository(dbx.NewBolt(m.db))
}

func (m *BoltManager) InTx(ctx context.Context, fn TxFunc) error {
	return dbx.WithBoltTx(ctx, m.db, func(ctx context.Context, b dbx.Bolt) error {
		return fn(ctx, records.NewBoltRepository(b), history.NewBoltRepository(b))
	})
}

func (m *BoltManager) Close() error {
	return m.db.Close()
}
