package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/models"
	"go.etcd.io/bbolt"
)

var Bucket = []byte("history")

type boltEntry struct {
	ID             string    `json:"id"`
	MimaID         string    `json:"mima_id"`
	Title          string    `json:"title"`
	Username       string    `json:"username"`
	PasswordCipher []byte    `json:"password_cipher"`
	PasswordNonce  []byte    `json:"password_nonce"`
	NotesCipher    []byte    `json:"notes_cipher"`
	NotesNonce     []byte    `json:"notes_nonce"`
	DeletedAt      time.Time `json:"deleted_at"`
}

// BoltRepository implements Repository over a bbolt bucket.
type BoltRepository struct {
	db dbx.Bolt
}

func NewBoltRepository(db dbx.Bolt) *BoltRepository {
	return &BoltRepository{db: db}
}

func bucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket(Bucket)
	if b == nil {
		return nil, fmt.Errorf("bucket %q missing: %w", Bucket, common.ErrStore)
	}
	return b, nil
}

func (r *BoltRepository) Insert(ctx context.Context, h *models.HistoryEntry) error {
	data, err := encode(h)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(h.ID)) != nil {
			return fmt.Errorf("insert history entry %s: %w", h.ID, common.ErrDuplicateRecord)
		}
		if err := b.Put([]byte(h.ID), data); err != nil {
			return fmt.Errorf("put history entry: %w: %w", common.ErrStore, err)
		}
		return nil
	})
}

func (r *BoltRepository) Update(ctx context.Context, h *models.HistoryEntry) error {
	data, err := encode(h)
	if err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(h.ID)) == nil {
			return common.ErrorNotFound
		}
		if err := b.Put([]byte(h.ID), data); err != nil {
			return fmt.Errorf("put history entry: %w: %w", common.ErrStore, err)
		}
		return nil
	})
}

func (r *BoltRepository) GetByID(ctx context.Context, id string) (*models.HistoryEntry, error) {
	var h *models.HistoryEntry
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		v := b.Get([]byte(id))
		if v == nil {
			return common.ErrorNotFound
		}
		h, err = decode(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *BoltRepository) ListByRecord(ctx context.Context, mimaID string) ([]*models.HistoryEntry, error) {
	result, err := r.collect(func(h *models.HistoryEntry) bool { return h.MimaID == mimaID })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DeletedAt.After(result[j].DeletedAt) })
	return result, nil
}

func (r *BoltRepository) ListAll(ctx context.Context) ([]*models.HistoryEntry, error) {
	result, err := r.collect(func(*models.HistoryEntry) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DeletedAt.Before(result[j].DeletedAt) })
	return result, nil
}

func (r *BoltRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(id)) == nil {
			return common.ErrorNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return fmt.Errorf("delete history entry: %w: %w", common.ErrStore, err)
		}
		return nil
	})
}

func (r *BoltRepository) collect(keep func(*models.HistoryEntry) bool) ([]*models.HistoryEntry, error) {
	result := make([]*models.HistoryEntry, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			h, err := decode(v)
			if err != nil {
				return err
			}
			if keep(h) {
				result = append(result, h)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func encode(h *models.HistoryEntry) ([]byte, error) {
	data, err := json.Marshal(boltEntry{
		ID: h.ID, MimaID: h.MimaID, Title: h.Title, Username: h.Username,
		PasswordCipher: h.Password, PasswordNonce: h.PasswordNonce,
		NotesCipher: h.Notes, NotesNonce: h.NotesNonce,
		DeletedAt: h.DeletedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode history entry: %w: %w", common.ErrStore, err)
	}
	return data, nil
}

func decode(v []byte) (*models.HistoryEntry, error) {
	var e boltEntry
	if err := json.Unmarshal(v, &e); err != nil {
		return nil, fmt.Errorf("decode history entry: %w: %w", common.ErrStore, err)
	}
	return &models.HistoryEntry{
		ID: e.ID, MimaID: e.MimaID, Title: e.Title, Username: e.Username,
		Password: e.PasswordCipher, PasswordNonce: e.PasswordNonce,
		Notes: e.NotesCipher, NotesNonce: e.NotesNonce,
		DeletedAt: e.DeletedAt,
	}, nil
}
