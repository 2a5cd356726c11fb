package models

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mima/internal/cryptox"
	"github.com/google/uuid"
)

const (
	// BootstrapID is the reserved id of the row that holds the login probe.
	BootstrapID = "the-very-first-id"

	// ProbeText is sealed into the bootstrap row at account creation and
	// returned on every successful login.
	ProbeText = "mima: passphrase accepted"

	// Mask stands in for a present secret in listings that are not decrypted.
	Mask = "******"
)

// Decryptable is implemented by every entity that carries the password and
// notes envelopes.
type Decryptable interface {
	PasswordAndNonce() (ciphertext, nonce []byte)
	NotesAndNonce() (ciphertext, nonce []byte)
}

// Fields is the plaintext input of create and edit operations.
type Fields struct {
	Title    string
	Username string
	Password string
	Notes    string
}

// Normalize trims title, username and notes. Passwords are kept verbatim.
func (f Fields) Normalize() Fields {
	return Fields{
		Title:    strings.TrimSpace(f.Title),
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
		Notes:    strings.TrimSpace(f.Notes),
	}
}

// Record is one row of the allmima table.
type Record struct {
	ID            string
	Title         string
	Username      string
	Password      []byte
	PasswordNonce []byte
	Notes         []byte
	NotesNonce    []byte
	Favorite      bool
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// NewID returns a fresh 32-character hex identifier.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Stamp normalizes a wall-clock time the way every store keeps it: UTC with
// microsecond precision.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NewRecord seals f under key into a fresh, active, non-favorite record.
func NewRecord(f Fields, key cryptox.Key, now time.Time) (*Record, error) {
	f = f.Normalize()

	r := &Record{
		ID:        NewID(),
		Title:     f.Title,
		Username:  f.Username,
		CreatedAt: Stamp(now),
	}
	if err := r.sealPassword(f.Password, key); err != nil {
		return nil, err
	}
	if err := r.sealNotes(f.Notes, key); err != nil {
		return nil, err
	}
	return r, nil
}

// NewBootstrap builds the reserved row whose password envelope holds
// ProbeText sealed under key.
func NewBootstrap(key cryptox.Key, now time.Time) (*Record, error) {
	r := &Record{ID: BootstrapID, CreatedAt: Stamp(now)}
	if err := r.sealPassword(ProbeText, key); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) PasswordAndNonce() ([]byte, []byte) { return r.Password, r.PasswordNonce }
func (r *Record) NotesAndNonce() ([]byte, []byte)    { return r.Notes, r.NotesNonce }

func (r *Record) IsBootstrap() bool { return r.ID == BootstrapID }
func (r *Record) IsDeleted() bool   { return r.DeletedAt != nil }

func (r *Record) sealPassword(plaintext string, key cryptox.Key) error {
	ct, nonce, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return fmt.Errorf("sealing password: %w", err)
	}
	r.Password, r.PasswordNonce = ct, nonce
	return nil
}

func (r *Record) sealNotes(plaintext string, key cryptox.Key) error {
	ct, nonce, err := cryptox.Seal(plaintext, key)
	if err != nil {
		return fmt.Errorf("sealing notes: %w", err)
	}
	r.Notes, r.NotesNonce = ct, nonce
	return nil
}

// ApplyEdit overwrites title and username and re-seals password or notes
// only when the submitted plaintext differs from the decrypted current
// value; unchanged secrets keep their ciphertext and nonce. It reports
// whether anything changed.
func (r *Record) ApplyEdit(f Fields, key cryptox.Key) (bool, error) {
	f = f.Normalize()

	password, notes, err := Reveal(r, key)
	if err != nil {
		return false, err
	}

	changed := r.Title != f.Title || r.Username != f.Username
	r.Title, r.Username = f.Title, f.Username

	if password != f.Password {
		if err := r.sealPassword(f.Password, key); err != nil {
			return false, err
		}
		changed = true
	}
	if notes != f.Notes {
		if err := r.sealNotes(f.Notes, key); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

// Reseal moves both envelopes from key from to key to. On error the record
// is left as it was.
func (r *Record) Reseal(from, to cryptox.Key) error {
	e, err := reseal(r, from, to)
	if err != nil {
		return err
	}
	r.Password, r.PasswordNonce = e.password, e.passwordNonce
	r.Notes, r.NotesNonce = e.notes, e.notesNonce
	return nil
}

// MarkDeleted soft-deletes the record at now.
func (r *Record) MarkDeleted(now time.Time) {
	t := Stamp(now)
	r.DeletedAt = &t
}

// MarkRecovered brings a deleted record back. The title gets a timestamp
// suffix so it cannot collide with an active record that took over the old
// title and username, and created_at moves to now.
func (r *Record) MarkRecovered(now time.Time) {
	now = Stamp(now)
	r.Title = fmt.Sprintf("%s (%s)", r.Title, now.Format(time.RFC3339))
	r.CreatedAt = now
	r.DeletedAt = nil
}

// Snapshot copies the record's current state into a new history entry
// stamped with now. Envelope bytes are copied verbatim, never re-sealed.
func (r *Record) Snapshot(now time.Time) *HistoryEntry {
	return &HistoryEntry{
		ID:            NewID(),
		MimaID:        r.ID,
		Title:         r.Title,
		Username:      r.Username,
		Password:      cloneBytes(r.Password),
		PasswordNonce: cloneBytes(r.PasswordNonce),
		Notes:         cloneBytes(r.Notes),
		NotesNonce:    cloneBytes(r.NotesNonce),
		DeletedAt:     Stamp(now),
	}
}

// Masked renders the record without decrypting it.
func (r *Record) Masked() RecordView {
	return RecordView{
		ID:        r.ID,
		Title:     r.Title,
		Username:  r.Username,
		Password:  mask(r.Password),
		Notes:     mask(r.Notes),
		Favorite:  r.Favorite,
		CreatedAt: r.CreatedAt,
		DeletedAt: r.DeletedAt,
	}
}

// View renders the record with password and notes decrypted under key.
func (r *Record) View(key cryptox.Key) (RecordView, error) {
	v := r.Masked()
	password, notes, err := Reveal(r, key)
	if err != nil {
		return RecordView{}, err
	}
	v.Password, v.Notes = password, notes
	return v, nil
}

func mask(ciphertext []byte) string {
	if ciphertext == nil {
		return ""
	}
	return Mask
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
