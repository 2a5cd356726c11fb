package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/mima/internal/cryptox"
)

// RecordView is a plaintext rendering of a Record. Depending on how it was
// produced, Password and Notes hold decrypted text or the Mask marker.
type RecordView struct {
	ID        string
	Title     string
	Username  string
	Password  string
	Notes     string
	Favorite  bool
	CreatedAt time.Time
	DeletedAt *time.Time
}

// HistoryView is a decrypted rendering of a HistoryEntry.
type HistoryView struct {
	ID        string
	MimaID    string
	Title     string
	Username  string
	Password  string
	Notes     string
	DeletedAt time.Time
}

// Reveal decrypts both envelopes of d under key.
func Reveal(d Decryptable, key cryptox.Key) (password, notes string, err error) {
	ct, nonce := d.PasswordAndNonce()
	if password, err = cryptox.Open(ct, nonce, key); err != nil {
		return "", "", fmt.Errorf("password: %w", err)
	}
	ct, nonce = d.NotesAndNonce()
	if notes, err = cryptox.Open(ct, nonce, key); err != nil {
		return "", "", fmt.Errorf("notes: %w", err)
	}
	return password, notes, nil
}

// envelopes holds a password and a notes envelope.
type envelopes struct {
	password, passwordNonce []byte
	notes, notesNonce       []byte
}

// reseal opens both envelopes of d under from and seals the plaintext again
// under to. Absent secrets stay absent.
func reseal(d Decryptable, from, to cryptox.Key) (envelopes, error) {
	password, notes, err := Reveal(d, from)
	if err != nil {
		return envelopes{}, err
	}

	var e envelopes
	if e.password, e.passwordNonce, err = cryptox.Seal(password, to); err != nil {
		return envelopes{}, fmt.Errorf("sealing password: %w", err)
	}
	if e.notes, e.notesNonce, err = cryptox.Seal(notes, to); err != nil {
		return envelopes{}, fmt.Errorf("sealing notes: %w", err)
	}
	return e, nil
}

// Fields returns the editable part of the view.
func (v RecordView) Fields() Fields {
	return Fields{Title: v.Title, Username: v.Username, Password: v.Password, Notes: v.Notes}
}
