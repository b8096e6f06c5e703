package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// schemaFS holds the sessions table definition, one numbered up/down pair
// per schema change.
//
//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations applies any pending session-schema changes on the writer
// connection and returns the resulting schema version. A dirty version,
// left behind by a migration that failed halfway, is reported as an error.
func RunMigrations(db *sql.DB) (uint, error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply session schema: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read session schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("session schema version %d is dirty", version)
	}

	return version, nil
}

// newMigrator binds the embedded schema to db. The migrator is not closed:
// closing the sqlite driver would close db as well.
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded schema: %w", err)
	}

	target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("bind schema target: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}
