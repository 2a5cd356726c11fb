// Package common defines sentinel errors and small helpers shared by the
// vault core, its repositories and the CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrDuplicateRecord = errors.New("a record with the same title and username already exists")

	// ErrStore marks unexpected persistence failures. They are not retried.
	ErrStore = errors.New("store error")

	// Crypto errors.
	ErrDecryption = errors.New("decryption failed")

	// Auth / session errors.
	ErrWrongPassphrase    = errors.New("wrong passphrase")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrSessionExpired     = errors.New("session expired")
	ErrUninitialized      = errors.New("vault is not initialized")
	ErrAlreadyInitialized = errors.New("vault is already initialized")

	// Validation errors.
	ErrValidation = errors.New("validation error")
)
