package postgres

import (
	"context"
	_ "embed"

	ierr "github.com/flexprice/taxledger/internal/errors"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables if they do not exist yet
func (db *DB) Migrate(ctx context.Context) error {
	db.logger.Info("running database migrations")
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply database schema").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Schema returns the DDL applied by Migrate
func Schema() string {
	return schema
}
