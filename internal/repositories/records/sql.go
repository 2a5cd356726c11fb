package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/models"
)

const recordColumns = `id, title, username, password_cipher, password_nonce, notes_cipher, notes_nonce, favorite, created_at, deleted_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to db speaking dialect.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// NewSQLiteRepository constructs a repository for the sqlite schema.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.SQLite)
}

// NewPostgresRepository constructs a repository for the postgres schema.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, dbx.Postgres)
}

func (r *SQLRepository) q(query string) string {
	return r.dialect.Rebind(query)
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return common.ErrorNotFound
	case dbx.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, common.ErrDuplicateRecord)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrStore, err)
	}
}

func (r *SQLRepository) Insert(ctx context.Context, rec *models.Record) error {
	query := `INSERT INTO allmima (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.q(query),
		rec.ID, rec.Title, rec.Username,
		rec.Password, rec.PasswordNonce, rec.Notes, rec.NotesNonce,
		rec.Favorite, rec.CreatedAt, rec.DeletedAt,
	)
	if err != nil {
		return classify("insert record", err)
	}
	return nil
}

func (r *SQLRepository) Update(ctx context.Context, rec *models.Record) error {
	query := `UPDATE allmima SET
			title = ?, username = ?,
			password_cipher = ?, password_nonce = ?,
			notes_cipher = ?, notes_nonce = ?,
			favorite = ?, created_at = ?, deleted_at = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query),
		rec.Title, rec.Username,
		rec.Password, rec.PasswordNonce, rec.Notes, rec.NotesNonce,
		rec.Favorite, rec.CreatedAt, rec.DeletedAt,
		rec.ID,
	)
	if err != nil {
		return classify("update record", err)
	}
	return expectOneRow("update record", res)
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM allmima WHERE id = ?`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.q(query), id))
	if err != nil {
		return nil, classify("get record", err)
	}
	return rec, nil
}

func (r *SQLRepository) ListActive(ctx context.Context) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM allmima
		WHERE id <> ? AND deleted_at IS NULL
		ORDER BY created_at DESC`
	return r.list(ctx, "list active records", query, models.BootstrapID)
}

func (r *SQLRepository) SearchActive(ctx context.Context, pattern string) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM allmima
		WHERE id <> ? AND deleted_at IS NULL AND LOWER(title) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC`
	return r.list(ctx, "search records", query, models.BootstrapID, likePattern(pattern))
}

func (r *SQLRepository) ListDeleted(ctx context.Context) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM allmima
		WHERE id <> ? AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC`
	return r.list(ctx, "list deleted records", query, models.BootstrapID)
}

func (r *SQLRepository) ListAll(ctx context.Context) ([]*models.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM allmima ORDER BY created_at`
	return r.list(ctx, "list all records", query)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM allmima WHERE id = ?`), id)
	if err != nil {
		return classify("delete record", err)
	}
	return expectOneRow("delete record", res)
}

func (r *SQLRepository) list(ctx context.Context, op, query string, args ...any) ([]*models.Record, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	result := make([]*models.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.Record, error) {
	var rec models.Record
	if err := s.Scan(
		&rec.ID, &rec.Title, &rec.Username,
		&rec.Password, &rec.PasswordNonce, &rec.Notes, &rec.NotesNonce,
		&rec.Favorite, &rec.CreatedAt, &rec.DeletedAt,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	if rec.DeletedAt != nil {
		t := rec.DeletedAt.UTC()
		rec.DeletedAt = &t
	}
	return &rec, nil
}

func expectOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w: %w", op, common.ErrStore, err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%s: unexpected rows affected %d: %w", op, n, common.ErrStore)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a LIKE pattern matching pattern anywhere in a
// lower-cased column.
func likePattern(pattern string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(pattern)) + "%"
}
