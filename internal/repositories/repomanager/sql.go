package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mima/internal/dbx"
	"github.com/dmitrijs2005/mima/internal/filex"
	"github.com/dmitrijs2005/mima/internal/migrations"
	"github.com/dmitrijs2005/mima/internal/repositories/history"
	"github.com/dmitrijs2005/mima/internal/repositories/records"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// SQLManager vends SQL-backed repositories over one *sql.DB.
type SQLManager struct {
	db      *sql.DB
	dialect dbx.Dialect
}

// NewSQLManager wraps an already opened database. It does not migrate.
func NewSQLManager(db *sql.DB, dialect dbx.Dialect) *SQLManager {
	return &SQLManager{db: db, dialect: dialect}
}

// NewSQLiteManager opens the sqlite file at dsn and migrates it.
func NewSQLiteManager(ctx context.Context, dsn string) (*SQLManager, error) {
	if path, _, _ := strings.Cut(dsn, "?"); path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return startSQL(ctx, db, dbx.SQLite)
}

// NewPostgresManager connects through pgx and migrates the database.
func NewPostgresManager(ctx context.Context, dsn string) (*SQLManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return startSQL(ctx, db, dbx.Postgres)
}

func startSQL(ctx context.Context, db *sql.DB, dialect dbx.Dialect) (*SQLManager, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	m := NewSQLManager(db, dialect)
	if err := m.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return m, nil
}

// sqliteDSN adds a busy timeout unless the caller set pragmas already.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// RunMigrations sets up goose with the embedded migrations of the manager's
// dialect and applies them.
func (m *SQLManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	dialect, dir := "sqlite3", migrations.SQLiteDir
	if m.dialect == dbx.Postgres {
		dialect, dir = "pgx", migrations.PostgresDir
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, dir)
}

func (m *SQLManager) Records() records.Repository {
	return records.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLManager) History() history.Repository {
	return history.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLManager) InTx(ctx context.Context, fn TxFunc) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, records.NewSQLRepository(tx, m.dialect), history.NewSQLRepository(tx, m.dialect))
	})
}

func (m *SQLManager) Close() error {
	return m.db.Close()
}
