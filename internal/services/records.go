package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
)

// Create seals f into a new active record.
func (s *VaultService) Create(ctx context.Context, f models.Fields) (*models.RecordView, error) {
	f = f.Normalize()
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := models.NewRecord(f, key, s.session.Now())
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	if err := s.repos.Records().Insert(ctx, rec); err != nil {
		return nil, inputError("create record", err, f)
	}

	s.log.Debug(ctx, "record created", "id", rec.ID)
	v, err := rec.View(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Edit applies f to the active record id. When anything changed, the
// pre-edit state goes to history in the same transaction as the update.
func (s *VaultService) Edit(ctx context.Context, id string, f models.Fields) (*models.RecordView, error) {
	f = f.Normalize()
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	now := s.session.Now()

	var rec *models.Record
	err = s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, hist history.Repository) error {
		rec, err = activeRecord(ctx, recs, id)
		if err != nil {
			return err
		}

		before := rec.Snapshot(now)
		changed, err := rec.ApplyEdit(f, key)
		if err != nil || !changed {
			return err
		}
		if err := hist.Insert(ctx, before); err != nil {
			return err
		}
		return recs.Update(ctx, rec)
	})
	if err != nil {
		return nil, inputError("edit record", err, f)
	}

	v, err := rec.View(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns the active records with secrets masked. It works without a
// session.
func (s *VaultService) List(ctx context.Context) ([]models.RecordView, error) {
	recs, err := s.repos.Records().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return masked(recs), nil
}

// Search is List restricted to titles containing pattern, ignoring case.
func (s *VaultService) Search(ctx context.Context, pattern string) ([]models.RecordView, error) {
	recs, err := s.repos.Records().SearchActive(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return masked(recs), nil
}

// RecycleBin returns the soft-deleted records, decrypted, most recently
// deleted first.
func (s *VaultService) RecycleBin(ctx context.Context) ([]models.RecordView, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := s.repos.Records().ListDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recycle bin: %w", err)
	}

	views := make([]models.RecordView, 0, len(recs))
	for _, r := range recs {
		v, err := r.View(key)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// Get returns one record, active or deleted, decrypted.
func (s *VaultService) Get(ctx context.Context, id string) (*models.RecordView, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	if id == models.BootstrapID {
		return nil, common.ErrorNotFound
	}

	rec, err := s.repos.Records().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	v, err := rec.View(key)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	return &v, nil
}

// SetFavorite flags or unflags an active record.
func (s *VaultService) SetFavorite(ctx context.Context, id string, favorite bool) error {
	if _, err := s.key(ctx); err != nil {
		return err
	}
	return s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, _ history.Repository) error {
		rec, err := activeRecord(ctx, recs, id)
		if err != nil {
			return fmt.Errorf("set favorite: %w", err)
		}
		if rec.Favorite == favorite {
			return nil
		}
		rec.Favorite = favorite
		if err := recs.Update(ctx, rec); err != nil {
			return fmt.Errorf("set favorite: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes an active record and snapshots it into history, both
// in one transaction.
func (s *VaultService) Delete(ctx context.Context, id string) error {
	if _, err := s.key(ctx); err != nil {
		return err
	}
	now := s.session.Now()

	err := s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, hist history.Repository) error {
		rec, err := activeRecord(ctx, recs, id)
		if err != nil {
			return err
		}
		if err := hist.Insert(ctx, rec.Snapshot(now)); err != nil {
			return err
		}
		rec.MarkDeleted(now)
		return recs.Update(ctx, rec)
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.log.Info(ctx, "record deleted", "id", id)
	return nil
}

// Recover brings a soft-deleted record back under a suffixed title.
func (s *VaultService) Recover(ctx context.Context, id string) (*models.RecordView, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}

	var rec *models.Record
	err = s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, _ history.Repository) error {
		rec, err = recs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rec.IsBootstrap() || !rec.IsDeleted() {
			return common.ErrorNotFound
		}
		rec.MarkRecovered(s.session.Now())
		return recs.Update(ctx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("recover record: %w", err)
	}
	s.log.Info(ctx, "record recovered", "id", id)

	v, err := rec.View(key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Purge removes a record for good. Its history stays.
func (s *VaultService) Purge(ctx context.Context, id string) error {
	if _, err := s.key(ctx); err != nil {
		return err
	}
	if id == models.BootstrapID {
		return common.ErrorNotFound
	}
	if err := s.repos.Records().Delete(ctx, id); err != nil {
		return fmt.Errorf("purge record: %w", err)
	}
	s.log.Info(ctx, "record purged", "id", id)
	return nil
}

func activeRecord(ctx context.Context, recs records.Repository, id string) (*models.Record, error) {
	rec, err := recs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.IsBootstrap() || rec.IsDeleted() {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

func masked(recs []*models.Record) []models.RecordView {
	views := make([]models.RecordView, 0, len(recs))
	for _, r := range recs {
		views = append(views, r.Masked())
	}
	return views
}
