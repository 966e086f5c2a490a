package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsFS holds the schema migrations shipped with the binary. The SQL
// is written for the sqlite3 default backend; mysql and postgres deployments
// point cmd/migrate at a dialect-specific directory via MIGRATIONS_PATH.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// Migrate applies all pending embedded migrations to sqldb. It is
// idempotent: reopening an already-migrated database is a no-op.
func Migrate(sqldb *sql.DB, driverName string) error {
	src, err := iofs.New(MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("db: migration source: %w", err)
	}

	var drv database.Driver
	switch driverName {
	case "sqlite3":
		drv, err = migratesqlite.WithInstance(sqldb, &migratesqlite.Config{})
	case "mysql":
		drv, err = migratemysql.WithInstance(sqldb, &migratemysql.Config{})
	case "postgres":
		drv, err = migratepostgres.WithInstance(sqldb, &migratepostgres.Config{})
	default:
		return fmt.Errorf("db: no migration driver for %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("db: migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, drv)
	if err != nil {
		return fmt.Errorf("db: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate up: %w", err)
	}
	return nil
}
