package records

import (
	"context"

	"github.com/dmitrijs2005/mima/internal/models"
)

// Repository describes storage operations on vault records.
type Repository interface {
	// Insert stores a new record.
	Insert(ctx context.Context, r *models.Record) error

	// Update overwrites every mutable column of the record with r.ID.
	Update(ctx context.Context, r *models.Record) error

	// GetByID returns any record, deleted or not, bootstrap included.
	GetByID(ctx context.Context, id string) (*models.Record, error)

	// ListActive returns non-deleted records, newest created first.
	ListActive(ctx context.Context) ([]*models.Record, error)

	// SearchActive is ListActive restricted to titles containing pattern,
	// compared case-insensitively.
	SearchActive(ctx context.Context, pattern string) ([]*models.Record, error)

	// ListDeleted returns soft-deleted records, most recently deleted first.
	ListDeleted(ctx context.Context) ([]*models.Record, error)

	// ListAll returns every row including the bootstrap one.
	ListAll(ctx context.Context) ([]*models.Record, error)

	// Delete removes the row for good.
	Delete(ctx context.Context, id string) error
}
