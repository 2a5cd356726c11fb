package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/models"
	"go.etcd.io/bbolt"
)

// Bucket holds one JSON document per record, keyed by id.
var Bucket = []byte("allmima")

// boltRecord is the stored JSON shape; field names follow the SQL columns.
type boltRecord struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Username       string     `json:"username"`
	PasswordCipher []byte     `json:"password_cipher"`
	PasswordNonce  []byte     `json:"password_nonce"`
	NotesCipher    []byte     `json:"notes_cipher"`
	NotesNonce     []byte     `json:"notes_nonce"`
	Favorite       bool       `json:"favorite"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at"`
}

func toBolt(r *models.Record) boltRecord {
	return boltRecord{
		ID: r.ID, Title: r.Title, Username: r.Username,
		PasswordCipher: r.Password, PasswordNonce: r.PasswordNonce,
		NotesCipher: r.Notes, NotesNonce: r.NotesNonce,
		Favorite: r.Favorite, CreatedAt: r.CreatedAt, DeletedAt: r.DeletedAt,
	}
}

func (b boltRecord) model() *models.Record {
	return &models.Record{
		ID: b.ID, Title: b.Title, Username: b.Username,
		Password: b.PasswordCipher, PasswordNonce: b.PasswordNonce,
		Notes: b.NotesCipher, NotesNonce: b.NotesNonce,
		Favorite: b.Favorite, CreatedAt: b.CreatedAt, DeletedAt: b.DeletedAt,
	}
}

// BoltRepository implements Repository over a bbolt bucket. The unique
// (title, username) rule is checked inside the write transaction, which
// bbolt serializes.
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

func (r *BoltRepository) Insert(ctx context.Context, rec *models.Record) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, common.ErrDuplicateRecord)
		}
		if err := checkUnique(b, rec); err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		return put(b, rec)
	})
}

func (r *BoltRepository) Update(ctx context.Context, rec *models.Record) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		if b.Get([]byte(rec.ID)) == nil {
			return common.ErrorNotFound
		}
		if err := checkUnique(b, rec); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		return put(b, rec)
	})
}

func (r *BoltRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	var rec *models.Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		v := b.Get([]byte(id))
		if v == nil {
			return common.ErrorNotFound
		}
		rec, err = decode(v)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *BoltRepository) ListActive(ctx context.Context) ([]*models.Record, error) {
	return r.selectSorted(func(rec *models.Record) bool {
		return !rec.IsBootstrap() && !rec.IsDeleted()
	}, byCreatedDesc)
}

func (r *BoltRepository) SearchActive(ctx context.Context, pattern string) ([]*models.Record, error) {
	needle := strings.ToLower(pattern)
	return r.selectSorted(func(rec *models.Record) bool {
		return !rec.IsBootstrap() && !rec.IsDeleted() && strings.Contains(strings.ToLower(rec.Title), needle)
	}, byCreatedDesc)
}

func (r *BoltRepository) ListDeleted(ctx context.Context) ([]*models.Record, error) {
	return r.selectSorted(func(rec *models.Record) bool {
		return !rec.IsBootstrap() && rec.IsDeleted()
	}, func(a, b *models.Record) bool { return a.DeletedAt.After(*b.DeletedAt) })
}

func (r *BoltRepository) ListAll(ctx context.Context) ([]*models.Record, error) {
	return r.selectSorted(func(*models.Record) bool { return true },
		func(a, b *models.Record) bool { return a.CreatedAt.Before(b.CreatedAt) })
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
			return fmt.Errorf("delete record: %w: %w", common.ErrStore, err)
		}
		return nil
	})
}

func byCreatedDesc(a, b *models.Record) bool { return a.CreatedAt.After(b.CreatedAt) }

func (r *BoltRepository) selectSorted(keep func(*models.Record) bool, less func(a, b *models.Record) bool) ([]*models.Record, error) {
	result := make([]*models.Record, 0)
	err := r.db.View(func(tx *bbolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(_, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return err
			}
			if keep(rec) {
				result = append(result, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result, nil
}

// checkUnique rejects rec when another active, non-bootstrap record already
// uses its title and username.
func checkUnique(b *bbolt.Bucket, rec *models.Record) error {
	if rec.IsBootstrap() || rec.IsDeleted() {
		return nil
	}
	return b.ForEach(func(k, v []byte) error {
		if string(k) == rec.ID {
			return nil
		}
		other, err := decode(v)
		if err != nil {
			return err
		}
		if other.IsBootstrap() || other.IsDeleted() {
			return nil
		}
		if other.Title == rec.Title && other.Username == rec.Username {
			return common.ErrDuplicateRecord
		}
		return nil
	})
}

func put(b *bbolt.Bucket, rec *models.Record) error {
	data, err := json.Marshal(toBolt(rec))
	if err != nil {
		return fmt.Errorf("encode record: %w: %w", common.ErrStore, err)
	}
	if err := b.Put([]byte(rec.ID), data); err != nil {
		return fmt.Errorf("put record: %w: %w", common.ErrStore, err)
	}
	return nil
}

func decode(v []byte) (*models.Record, error) {
	var br boltRecord
	if err := json.Unmarshal(v, &br); err != nil {
		return nil, fmt.Errorf("decode record: %w: %w", common.ErrStore, err)
	}
	return br.model(), nil
}
