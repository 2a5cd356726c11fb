// Package migrations embeds the goose SQL migrations for every SQL dialect
// the vault supports. Each dialect has its own directory.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var Migrations embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
