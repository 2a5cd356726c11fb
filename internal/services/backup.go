package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/backup"
	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
)

var (
	// ErrNoBackupStore is returned by Backup when no store is configured.
	ErrNoBackupStore = errors.New("no backup store configured")

	// ErrForeignBackup is returned by Restore when the backup was taken
	// under a different passphrase than the session's.
	ErrForeignBackup = errors.New("backup was sealed under a different passphrase")
)

// Backup uploads every stored row, ciphertext only, and returns the name
// of the written object.
func (s *VaultService) Backup(ctx context.Context) (string, error) {
	if _, err := s.key(ctx); err != nil {
		return "", err
	}
	if s.backups == nil {
		return "", ErrNoBackupStore
	}

	recs, err := s.repos.Records().ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}
	hist, err := s.repos.History().ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	now := s.session.Now()
	data, err := backup.NewSnapshot(now, recs, hist).Marshal()
	if err != nil {
		return "", err
	}
	name := backup.ObjectName(now)
	if err := s.backups.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	s.log.Info(ctx, "backup written", "name", name, "records", len(recs), "history", len(hist))
	return name, nil
}

// Restore adds the records and history of a backup document to the vault
// and returns the number of records added. The backup's bootstrap row must
// open under the session key and is not copied. Every envelope is checked
// before anything is written, and all rows go in one transaction: an id or
// an active title and username already present fails the whole restore
// with common.ErrDuplicateRecord.
func (s *VaultService) Restore(ctx context.Context, data []byte) (int, error) {
	key, err := s.key(ctx)
	if err != nil {
		return 0, err
	}

	snap, err := backup.ParseSnapshot(data)
	if err != nil {
		return 0, fmt.Errorf("restore: %w: %w", common.ErrValidation, err)
	}
	all, entries := snap.Models()

	var boot *models.Record
	rows := make([]*models.Record, 0, len(all))
	for _, r := range all {
		if r.IsBootstrap() {
			boot = r
			continue
		}
		rows = append(rows, r)
	}
	if boot == nil {
		return 0, fmt.Errorf("restore: %w: backup has no bootstrap row", common.ErrValidation)
	}
	if probe, _, err := models.Reveal(boot, key); err != nil || probe != models.ProbeText {
		s.log.Warn(ctx, "restore refused", "reason", "foreign backup")
		return 0, ErrForeignBackup
	}
	for _, r := range rows {
		if _, _, err := models.Reveal(r, key); err != nil {
			return 0, fmt.Errorf("restore record %s: %w", r.ID, err)
		}
	}
	for _, h := range entries {
		if _, _, err := models.Reveal(h, key); err != nil {
			return 0, fmt.Errorf("restore history entry %s: %w", h.ID, err)
		}
	}

	err = s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, hist history.Repository) error {
		for _, r := range rows {
			if err := recs.Insert(ctx, r); err != nil {
				return err
			}
		}
		for _, h := range entries {
			if err := hist.Insert(ctx, h); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("restore: %w", err)
	}

	s.log.Info(ctx, "backup restored", "records", len(rows), "history", len(entries))
	return len(rows), nil
}
