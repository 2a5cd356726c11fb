package models

import (
	"time"

	"github.com/dmitrijs2005/mima/internal/cryptox"
)

// HistoryEntry is an immutable snapshot of a Record. DeletedAt is the time
// the snapshot was taken.
type HistoryEntry struct {
	ID            string
	MimaID        string
	Title         string
	Username      string
	Password      []byte
	PasswordNonce []byte
	Notes         []byte
	NotesNonce    []byte
	DeletedAt     time.Time
}

func (h *HistoryEntry) PasswordAndNonce() ([]byte, []byte) { return h.Password, h.PasswordNonce }
func (h *HistoryEntry) NotesAndNonce() ([]byte, []byte)    { return h.Notes, h.NotesNonce }

// Reseal moves both envelopes from key from to key to. On error the entry
// is left as it was.
func (h *HistoryEntry) Reseal(from, to cryptox.Key) error {
	e, err := reseal(h, from, to)
	if err != nil {
		return err
	}
	h.Password, h.PasswordNonce = e.password, e.passwordNonce
	h.Notes, h.NotesNonce = e.notes, e.notesNonce
	return nil
}

// View renders the snapshot with password and notes decrypted under key.
func (h *HistoryEntry) View(key cryptox.Key) (HistoryView, error) {
	password, notes, err := Reveal(h, key)
	if err != nil {
		return HistoryView{}, err
	}
	return HistoryView{
		ID:        h.ID,
		MimaID:    h.MimaID,
		Title:     h.Title,
		Username:  h.Username,
		Password:  password,
		Notes:     notes,
		DeletedAt: h.DeletedAt,
	}, nil
}
