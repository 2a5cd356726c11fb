// Package repomanager opens the configured store, brings its schema up to
// date and hands out record and history repositories, either standalone or
// bound to one shared transaction.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/config"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
)

// TxFunc receives repositories that all join the same transaction.
type TxFunc func(ctx context.Context, recs records.Repository, hist history.Repository) error

// Manager is the persistence collaborator of the vault service.
type Manager interface {
	Records() records.Repository
	History() history.Repository
	// InTx runs fn atomically: either every write fn makes is kept or none.
	InTx(ctx context.Context, fn TxFunc) error
	Close() error
}

// Open connects to the store named by driver and migrates it.
func Open(ctx context.Context, driver, dsn string) (Manager, error) {
	switch driver {
	case config.DriverSQLite:
		return NewSQLiteManager(ctx, dsn)
	case config.DriverPostgres:
		return NewPostgresManager(ctx, dsn)
	case config.DriverBolt:
		return NewBoltManager(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
