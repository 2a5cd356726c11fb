// Package services contains the vault's business logic. VaultService gates
// every decrypting or mutating operation on the session key, keeps the
// record and history tables consistent through store transactions, and
// turns storage failures into the errors the presentation layer expects.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/backup"
	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/cryptox"
	"github.com/dmitrijs2005/mima/internal/logging"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/repositories/repomanager"
	"github.com/dmitrijs2005/mima/internal/session"
)

// InputError reports a recoverable rejection of user input. Input holds the
// normalized plaintext that was submitted so the caller can prompt again
// without losing it.
type InputError struct {
	Err   error
	Input models.Fields
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// VaultService is the single entry point of the presentation layer.
type VaultService struct {
	repos   repomanager.Manager
	session *session.Manager
	backups backup.Store
	log     logging.Logger
}

// NewVaultService wires the service. backups may be nil, in which case
// Backup fails.
func NewVaultService(repos repomanager.Manager, sess *session.Manager, backups backup.Store, log logging.Logger) *VaultService {
	return &VaultService{repos: repos, session: sess, backups: backups, log: log}
}

// key returns the session key or the reason there is none.
func (s *VaultService) key(ctx context.Context) (cryptox.Key, error) {
	key, err := s.session.Key(s.session.Now())
	if errors.Is(err, common.ErrSessionExpired) {
		s.log.Info(ctx, "session expired", "validity", s.session.Validity().String())
	}
	return key, err
}

// inputError wraps duplicate-record failures so the submitted fields survive.
func inputError(op string, err error, f models.Fields) error {
	if errors.Is(err, common.ErrDuplicateRecord) {
		return &InputError{Err: fmt.Errorf("%s: %w", op, err), Input: f}
	}
	return fmt.Errorf("%s: %w", op, err)
}
