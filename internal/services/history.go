package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/models"
)

// History lists the snapshots of one record, newest first, decrypted.
func (s *VaultService) History(ctx context.Context, recordID string) ([]models.HistoryView, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.History().ListByRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	views := make([]models.HistoryView, 0, len(entries))
	for _, h := range entries {
		v, err := h.View(key)
		if err != nil {
			return nil, fmt.Errorf("history entry %s: %w", h.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}

// HistoryEntry returns one snapshot, decrypted.
func (s *VaultService) HistoryEntry(ctx context.Context, id string) (*models.HistoryView, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	h, err := s.repos.History().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	v, err := h.View(key)
	if err != nil {
		return nil, fmt.Errorf("history entry %s: %w", id, err)
	}
	return &v, nil
}

// PurgeHistory deletes one snapshot irreversibly.
func (s *VaultService) PurgeHistory(ctx context.Context, id string) error {
	if _, err := s.key(ctx); err != nil {
		return err
	}
	if err := s.repos.History().Delete(ctx, id); err != nil {
		return fmt.Errorf("purge history entry: %w", err)
	}
	s.log.Info(ctx, "history entry purged", "id", id)
	return nil
}
