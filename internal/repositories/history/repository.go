// Package history persists record snapshots (the history table). Entries
// are inserted, read and purged; Update only exists so that a passphrase
// change can re-seal them.
package history

import (
	"context"

	"github.com/dmitrijs2005/mima/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, h *models.HistoryEntry) error
	// Update overwrites the stored entry with the same id.
	Update(ctx context.Context, h *models.HistoryEntry) error
	GetByID(ctx context.Context, id string) (*models.HistoryEntry, error)
	// ListByRecord returns the snapshots of one record, newest first.
	ListByRecord(ctx context.Context, mimaID string) ([]*models.HistoryEntry, error)
	ListAll(ctx context.Context) ([]*models.HistoryEntry, error)
	Delete(ctx context.Context, id string) error
}
