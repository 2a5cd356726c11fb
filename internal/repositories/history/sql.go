package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/models"
)

const historyColumns = `id, mima_id, title, username, password_cipher, password_nonce, notes_cipher, notes_nonce, deleted_at`

// SQLRepository implements Repository over a dbx.DBTX.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.SQLite)
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.Postgres)
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, common.ErrDuplicateRecord)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrStore, err)
	}
}

func (r *SQLRepository) Insert(ctx context.Context, h *models.HistoryEntry) error {
	query := `INSERT INTO history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		h.ID, h.MimaID, h.Title, h.Username,
		h.Password, h.PasswordNonce, h.Notes, h.NotesNonce,
		h.DeletedAt,
	)
	if err != nil {
		return storeErr("insert history entry", err)
	}
	return nil
}

func (r *SQLRepository) Update(ctx context.Context, h *models.HistoryEntry) error {
	query := `UPDATE history SET
			mima_id = ?, title = ?, username = ?,
			password_cipher = ?, password_nonce = ?,
			notes_cipher = ?, notes_nonce = ?,
			deleted_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		h.MimaID, h.Title, h.Username,
		h.Password, h.PasswordNonce, h.Notes, h.NotesNonce,
		h.DeletedAt,
		h.ID,
	)
	if err != nil {
		return storeErr("update history entry", err)
	}
	return expectOneRow("update history entry", res)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE id = ?`

	h, err := scanEntry(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		return nil, storeErr("get history entry", err)
	}
	return h, nil
}

func (r *SQLRepository) ListByRecord(ctx context.Context, mimaID string) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history WHERE mima_id = ? ORDER BY deleted_at DESC`
	return r.list(ctx, "list history", query, mimaID)
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*models.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + ` FROM history ORDER BY deleted_at`
	return r.list(ctx, "list all history", query)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM history WHERE id = ?`), id)
	if err != nil {
		return storeErr("delete history entry", err)
	}
	return expectOneRow("delete history entry", res)
}

func expectOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	result := make([]*models.HistoryEntry, 0)
	for rows.Next() {
		h, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.HistoryEntry, error) {
	var h models.HistoryEntry
	if err := s.Scan(
		&h.ID, &h.MimaID, &h.Title, &h.Username,
		&h.Password, &h.PasswordNonce, &h.Notes, &h.NotesNonce,
		&h.DeletedAt,
	); err != nil {
		return nil, err
	}
	h.DeletedAt = h.DeletedAt.UTC()
	return &h, nil
}
