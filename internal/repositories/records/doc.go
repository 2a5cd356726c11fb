// Package records persists vault records (the allmima table).
//
// # Overview
//
// Repository is the storage contract used by the vault service. Two
// implementations exist: SQLRepository over a dbx.DBTX (sqlite or postgres,
// chosen by dbx.Dialect) and BoltRepository over a dbx.Bolt handle. Both are
// bound either to the database or to an open transaction.
//
// # Rules every implementation keeps
//
//   - Listings never return the bootstrap row; ListAll does, for backups.
//   - (title, username) is unique among active, non-bootstrap rows; a write
//     that breaks it fails with common.ErrDuplicateRecord.
//   - A missing id yields common.ErrorNotFound.
//   - Any other failure is wrapped with common.ErrStore.
//
// Typical Usage
//
//	repo := records.NewSQLiteRepository(db)
//	_ = repo.Insert(ctx, rec)
//	active, _ := repo.ListActive(ctx)
//	one, _ := repo.GetByID(ctx, id)
package records
