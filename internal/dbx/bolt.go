package dbx

import (
	"context"
	"errors"

	"go.etcd.io/bbolt"
)

// ErrReadOnlyTx is returned when a write is attempted through a Bolt handle
// bound to a read-only transaction.
var ErrReadOnlyTx = errors.New("bolt handle is bound to a read-only transaction")

// Bolt is the bbolt analogue of DBTX: it runs callbacks either against the
// database (each call in its own transaction) or inside an enclosing
// transaction when bound by WithBoltTx.
type Bolt struct {
	db *bbolt.DB
	tx *bbolt.Tx
}

// NewBolt returns a handle that opens a transaction per call.
func NewBolt(db *bbolt.DB) Bolt {
	return Bolt{db: db}
}

// View runs fn in a read transaction.
func (b Bolt) View(fn func(tx *bbolt.Tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.db.View(fn)
}

// Update runs fn in a read-write transaction.
func (b Bolt) Update(fn func(tx *bbolt.Tx) error) error {
	if b.tx != nil {
		if !b.tx.Writable() {
			return ErrReadOnlyTx
		}
		return fn(b.tx)
	}
	return b.db.Update(fn)
}

// WithBoltTx runs fn inside one read-write bbolt transaction. Every call made
// through the handle passed to fn joins that transaction; returning an error
// (or panicking) rolls all of it back.
func WithBoltTx(ctx context.Context, db *bbolt.DB, fn func(ctx context.Context, b Bolt) error) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return fn(ctx, Bolt{db: db, tx: tx})
	})
}
