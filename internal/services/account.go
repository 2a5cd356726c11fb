package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/cryptox"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
	"github.com/dmitrijs2005/mima/internal/session"
)

// State reports Uninitialized while the bootstrap row is missing and the
// session state otherwise.
func (s *VaultService) State(ctx context.Context) (session.State, error) {
	_, err := s.repos.Records().GetByID(ctx, models.BootstrapID)
	if errors.Is(err, common.ErrorNotFound) {
		return session.StateUninitialized, nil
	}
	if err != nil {
		return 0, fmt.Errorf("state: %w", err)
	}
	return s.session.State(s.session.Now()), nil
}

// InitAccount creates the bootstrap row for passphrase and logs in.
func (s *VaultService) InitAccount(ctx context.Context, passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("init account: %w: passphrase must not be empty", common.ErrValidation)
	}

	_, err := s.repos.Records().GetByID(ctx, models.BootstrapID)
	if err == nil {
		return common.ErrAlreadyInitialized
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("init account: %w", err)
	}

	key := cryptox.DeriveKey(passphrase)
	boot, err := models.NewBootstrap(key, s.session.Now())
	if err != nil {
		return fmt.Errorf("init account: %w", err)
	}
	if err := s.repos.Records().Insert(ctx, boot); err != nil {
		if errors.Is(err, common.ErrDuplicateRecord) {
			return common.ErrAlreadyInitialized
		}
		return fmt.Errorf("init account: %w", err)
	}

	s.session.Install(key)
	s.log.Info(ctx, "account initialized")
	return nil
}

// Login checks passphrase against the bootstrap probe and, on success,
// returns the probe text.
func (s *VaultService) Login(ctx context.Context, passphrase string) (string, error) {
	boot, err := s.repos.Records().GetByID(ctx, models.BootstrapID)
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrUninitialized
	}
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	probe, err := s.session.Login(passphrase, boot)
	if err != nil {
		s.log.Warn(ctx, "login failed")
		return "", err
	}
	s.log.Info(ctx, "login succeeded")
	return probe, nil
}

// ChangePassphrase re-seals every envelope in the vault, bootstrap probe
// and history included, under the key of newPass, then makes that key the
// session key. oldPass must open the bootstrap probe. Either every row is
// re-sealed or none is.
func (s *VaultService) ChangePassphrase(ctx context.Context, oldPass, newPass string) error {
	if _, err := s.key(ctx); err != nil {
		return err
	}
	if newPass == "" {
		return fmt.Errorf("change passphrase: %w: new passphrase must not be empty", common.ErrValidation)
	}
	if newPass == oldPass {
		return fmt.Errorf("change passphrase: %w: new passphrase equals the current one", common.ErrValidation)
	}

	boot, err := s.repos.Records().GetByID(ctx, models.BootstrapID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrUninitialized
	}
	if err != nil {
		return fmt.Errorf("change passphrase: %w", err)
	}
	if _, err := s.session.Login(oldPass, boot); err != nil {
		s.log.Warn(ctx, "passphrase change refused")
		return err
	}

	oldKey, newKey := cryptox.DeriveKey(oldPass), cryptox.DeriveKey(newPass)
	defer common.WipeByteArray(oldKey[:])
	defer common.WipeByteArray(newKey[:])

	var nRecs, nHist int
	err = s.repos.InTx(ctx, func(ctx context.Context, recs records.Repository, hist history.Repository) error {
		all, err := recs.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, r := range all {
			if err := r.Reseal(oldKey, newKey); err != nil {
				return fmt.Errorf("record %s: %w", r.ID, err)
			}
			if err := recs.Update(ctx, r); err != nil {
				return err
			}
		}

		entries, err := hist.ListAll(ctx)
		if err != nil {
			return err
		}
		for _, h := range entries {
			if err := h.Reseal(oldKey, newKey); err != nil {
				return fmt.Errorf("history entry %s: %w", h.ID, err)
			}
			if err := hist.Update(ctx, h); err != nil {
				return err
			}
		}
		nRecs, nHist = len(all), len(entries)
		return nil
	})
	if err != nil {
		return fmt.Errorf("change passphrase: %w", err)
	}

	s.session.Install(newKey)
	s.log.Info(ctx, "passphrase changed", "records", nRecs, "history", nHist)
	return nil
}

// Logout drops the session key immediately.
func (s *VaultService) Logout(ctx context.Context) {
	s.session.Logout()
	s.log.Info(ctx, "logged out")
}
