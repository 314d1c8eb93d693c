// Package database provides database migration tooling for the snapshot
// store.
package database

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register the pgx/v5 driver so connection strings with a postgres://
	// scheme resolve.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

// migrationsFromSource returns a migration source driver from the embedded migrations.
func migrationsFromSource() source.Driver {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		panic(err)
	}
	return d
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
}

// NewFromConnectionString returns a new migration instance from the given connection string.
// The pgx/v5 driver registers under the pgx5 scheme, so a plain postgres://
// connection string is rewritten before being handed to the migrator.
func NewFromConnectionString(connString string) (Migrator, error) {
	d := migrationsFromSource()
	if rest, ok := strings.CutPrefix(connString, "postgres://"); ok {
		connString = "pgx5://" + rest
	}
	return migrate.NewWithSourceInstance("iofs", d, connString)
}
