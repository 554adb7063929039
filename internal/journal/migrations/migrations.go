// Package migrations holds the schema of the save journal and applies it
// with golang-migrate. The journal keeps one commits row per save pass and
// one commit_files row per file the pass wrote, deleted or failed on.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var schemaFiles embed.FS

// VersionTable records the schema version of a journal file.
const VersionTable = "journal_version"

var (
	// ErrNoVersion is returned for a journal file that was never migrated.
	ErrNoVersion = errors.New("journal has no schema version")
	// ErrDirty is returned when an earlier schema change was interrupted.
	ErrDirty = errors.New("journal schema change was interrupted")
	// ErrOutdated is returned for a journal written by an older arris.
	ErrOutdated = errors.New("journal schema is older than this arris")
	// ErrTooNew is returned for a journal written by a newer arris.
	ErrTooNew = errors.New("journal schema is newer than this arris")
)

// CheckStatus verifies that the journal is at the schema version this
// binary was built with.
func CheckStatus(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	// m is not closed: that would close db, which the caller owns.

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return ErrNoVersion
	}
	if err != nil {
		return fmt.Errorf("reading journal schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w at version %d", ErrDirty, version)
	}

	latest, err := Latest()
	if err != nil {
		return err
	}
	switch {
	case version < latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrOutdated, version, latest)
	case version > latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrTooNew, version, latest)
	}
	return nil
}

// MigrateUp brings the journal to the latest schema. An up-to-date journal
// is not an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating journal schema: %w", err)
	}
	return nil
}

// Latest returns the newest schema version embedded in the binary.
func Latest() (uint, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading journal schema files: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(schemaFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading journal schema files: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{MigrationsTable: VersionTable})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("opening journal for migration: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("preparing journal migration: %w", err)
	}
	return m, nil
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			// os.ErrNotExist past the last file
			return v, nil
		}
		v = next
	}
}
