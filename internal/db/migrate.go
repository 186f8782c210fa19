package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsFS embeds the users/tasks schema so the API binary migrates
// itself on startup without a separate migrate step in the deployment.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run brings the tasktrack schema up to the latest embedded migration.
// databaseURL is the postgres URL that URL() assembles from the DB_HOST,
// DB_PORT, DB_NAME, DB_USER and DB_PASS settings. A database already at the
// latest version is not an error.
func Run(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("migrate new: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
