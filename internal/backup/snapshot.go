// Package backup exports the vault as a JSON document and hands it to a
// blob store, and parses such documents back for restore. Only ciphertext
// crosses this package: envelopes are copied as they are stored and never
// opened.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mima/internal/models"
)

const namePrefix = "mima-backup-"

type Record struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Username      string     `json:"username"`
	Password      []byte     `json:"password_cipher,omitempty"`
	PasswordNonce []byte     `json:"password_nonce,omitempty"`
	Notes         []byte     `json:"notes_cipher,omitempty"`
	NotesNonce    []byte     `json:"notes_nonce,omitempty"`
	Favorite      bool       `json:"favorite"`
	CreatedAt     time.Time  `json:"created_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

type HistoryEntry struct {
	ID            string    `json:"id"`
	MimaID        string    `json:"mima_id"`
	Title         string    `json:"title"`
	Username      string    `json:"username"`
	Password      []byte    `json:"password_cipher,omitempty"`
	PasswordNonce []byte    `json:"password_nonce,omitempty"`
	Notes         []byte    `json:"notes_cipher,omitempty"`
	NotesNonce    []byte    `json:"notes_nonce,omitempty"`
	DeletedAt     time.Time `json:"deleted_at"`
}

// Snapshot is the whole vault at CreatedAt, bootstrap row included so that
// a restored copy can still be logged into.
type Snapshot struct {
	CreatedAt time.Time      `json:"created_at"`
	Records   []Record       `json:"records"`
	History   []HistoryEntry `json:"history"`
}

func NewSnapshot(now time.Time, recs []*models.Record, hist []*models.HistoryEntry) *Snapshot {
	s := &Snapshot{
		CreatedAt: models.Stamp(now),
		Records:   make([]Record, 0, len(recs)),
		History:   make([]HistoryEntry, 0, len(hist)),
	}
	for _, r := range recs {
		s.Records = append(s.Records, Record{
			ID:            r.ID,
			Title:         r.Title,
			Username:      r.Username,
			Password:      r.Password,
			PasswordNonce: r.PasswordNonce,
			Notes:         r.Notes,
			NotesNonce:    r.NotesNonce,
			Favorite:      r.Favorite,
			CreatedAt:     r.CreatedAt,
			DeletedAt:     r.DeletedAt,
		})
	}
	for _, h := range hist {
		s.History = append(s.History, HistoryEntry{
			ID:            h.ID,
			MimaID:        h.MimaID,
			Title:         h.Title,
			Username:      h.Username,
			Password:      h.Password,
			PasswordNonce: h.PasswordNonce,
			Notes:         h.Notes,
			NotesNonce:    h.NotesNonce,
			DeletedAt:     h.DeletedAt,
		})
	}
	return s
}

func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// ErrMalformed marks a document that is not a usable backup.
var ErrMalformed = errors.New("malformed backup")

// ParseSnapshot decodes a document written by Marshal. Unknown fields,
// missing ids and envelopes without a nonce are rejected; nothing is
// decrypted.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	seen := make(map[string]struct{}, len(s.Records))
	for i, r := range s.Records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: record %d has no id", ErrMalformed, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: record %s appears twice", ErrMalformed, r.ID)
		}
		seen[r.ID] = struct{}{}
		if !paired(r.Password, r.PasswordNonce) || !paired(r.Notes, r.NotesNonce) {
			return nil, fmt.Errorf("%w: record %s has an envelope without nonce", ErrMalformed, r.ID)
		}
	}
	for i, h := range s.History {
		if h.ID == "" || h.MimaID == "" {
			return nil, fmt.Errorf("%w: history entry %d has no id", ErrMalformed, i)
		}
		if !paired(h.Password, h.PasswordNonce) || !paired(h.Notes, h.NotesNonce) {
			return nil, fmt.Errorf("%w: history entry %s has an envelope without nonce", ErrMalformed, h.ID)
		}
	}
	return &s, nil
}

func paired(ciphertext, nonce []byte) bool {
	return (ciphertext == nil) == (nonce == nil)
}

// Models converts the document back into store entities.
func (s *Snapshot) Models() ([]*models.Record, []*models.HistoryEntry) {
	recs := make([]*models.Record, 0, len(s.Records))
	for _, r := range s.Records {
		rec := &models.Record{
			ID:            r.ID,
			Title:         r.Title,
			Username:      r.Username,
			Password:      r.Password,
			PasswordNonce: r.PasswordNonce,
			Notes:         r.Notes,
			NotesNonce:    r.NotesNonce,
			Favorite:      r.Favorite,
			CreatedAt:     models.Stamp(r.CreatedAt),
		}
		if r.DeletedAt != nil {
			t := models.Stamp(*r.DeletedAt)
			rec.DeletedAt = &t
		}
		recs = append(recs, rec)
	}

	hist := make([]*models.HistoryEntry, 0, len(s.History))
	for _, h := range s.History {
		hist = append(hist, &models.HistoryEntry{
			ID:            h.ID,
			MimaID:        h.MimaID,
			Title:         h.Title,
			Username:      h.Username,
			Password:      h.Password,
			PasswordNonce: h.PasswordNonce,
			Notes:         h.Notes,
			NotesNonce:    h.NotesNonce,
			DeletedAt:     models.Stamp(h.DeletedAt),
		})
	}
	return recs, hist
}

// ObjectName is the blob name a backup taken at t is stored under.
func ObjectName(t time.Time) string {
	return namePrefix + t.UTC().Format("20060102T150405Z") + ".json"
}
