package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/migrations"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	_ "modernc.org/sqlite"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, migrations.SQLiteDir))
	return db
}

func setupBolt(t *testing.T) dbx.Bolt {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "history.bolt"), 0o600, &bbolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	}))
	return dbx.NewBolt(db)
}

func entry(id, mimaID string, at time.Time) *models.HistoryEntry {
	return &models.HistoryEntry{
		ID:            id,
		MimaID:        mimaID,
		Title:         "title-" + id,
		Username:      "user",
		Password:      []byte("pc-" + id),
		PasswordNonce: []byte("pn-" + id),
		DeletedAt:     at,
	}
}

func backends() map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"sqlite": func(t *testing.T) Repository { return NewSQLiteRepository(setupSQLite(t)) },
		"bbolt":  func(t *testing.T) Repository { return NewBoltRepository(setupBolt(t)) },
	}
}

func TestHistory_InsertGetListDelete(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()

			h1 := entry("h1", "rec", base)
			h2 := entry("h2", "rec", base.Add(time.Hour))
			h3 := entry("h3", "other", base.Add(30*time.Minute))
			h3.Password, h3.PasswordNonce = nil, nil
			for _, h := range []*models.HistoryEntry{h1, h2, h3} {
				require.NoError(t, repo.Insert(ctx, h))
			}

			got, err := repo.GetByID(ctx, "h1")
			require.NoError(t, err)
			assert.Equal(t, h1, got)

			got, err = repo.GetByID(ctx, "h3")
			require.NoError(t, err)
			assert.Nil(t, got.Password)
			assert.Nil(t, got.PasswordNonce)

			list, err := repo.ListByRecord(ctx, "rec")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "h2", list[0].ID)
			assert.Equal(t, "h1", list[1].ID)

			none, err := repo.ListByRecord(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, none)

			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, repo.Delete(ctx, "h1"))
			_, err = repo.GetByID(ctx, "h1")
			assert.ErrorIs(t, err, common.ErrorNotFound)
			assert.ErrorIs(t, repo.Delete(ctx, "h1"), common.ErrorNotFound)

			list, err = repo.ListByRecord(ctx, "rec")
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestHistory_DuplicateIDIsDuplicate(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			require.NoError(t, repo.Insert(ctx, entry("h1", "rec", base)))
			err := repo.Insert(ctx, entry("h1", "rec", base))
			assert.ErrorIs(t, err, common.ErrDuplicateRecord)
			assert.NotErrorIs(t, err, common.ErrStore)
		})
	}
}

func TestHistory_Update(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			require.NoError(t, repo.Insert(ctx, entry("h1", "rec", base)))

			changed := entry("h1", "rec", base)
			changed.Password, changed.PasswordNonce = []byte("new-pc"), []byte("new-pn")
			changed.Notes, changed.NotesNonce = []byte("nc"), []byte("nn")
			require.NoError(t, repo.Update(ctx, changed))

			got, err := repo.GetByID(ctx, "h1")
			require.NoError(t, err)
			assert.Equal(t, changed, got)

			assert.ErrorIs(t, repo.Update(ctx, entry("zzz", "rec", base)), common.ErrorNotFound)
		})
	}
}

func TestHistory_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	h := entry("h1", "rec", base)
	mock.ExpectExec(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)).
		WithArgs("h1", "rec", h.Title, h.Username, h.Password, h.PasswordNonce, []byte(nil), []byte(nil), base).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Insert(context.Background(), h))

	mock.ExpectExec(`UPDATE history SET`).
		WithArgs("rec", h.Title, h.Username, h.Password, h.PasswordNonce, []byte(nil), []byte(nil), base, "h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), h))

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE mima_id = $1 ORDER BY deleted_at DESC`)).
		WithArgs("rec").
		WillReturnRows(sqlmock.NewRows([]string{"id", "mima_id", "title", "username", "password_cipher", "password_nonce", "notes_cipher", "notes_nonce", "deleted_at"}).
			AddRow("h1", "rec", h.Title, h.Username, h.Password, h.PasswordNonce, nil, nil, base))
	list, err := repo.ListByRecord(context.Background(), "rec")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, h, list[0])

	mock.ExpectQuery(`FROM history WHERE id`).WithArgs("zzz").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByID(context.Background(), "zzz")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectExec(`DELETE FROM history`).WithArgs("h1").WillReturnError(errors.New("db down"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "h1"), common.ErrStore)

	require.NoError(t, mock.ExpectationsWereMet())
}
