// Command migrate applies schema migrations out-of-band. The server applies
// the embedded migrations on startup; this tool exists for operational work
// (stepping down, forcing a version, or running a dialect-specific
// migrations directory against mysql/postgres).
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/perfect-perfect/just-tech-news/internal/db"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fatalf("DATABASE_URL environment variable is required (e.g. sqlite3://just-tech-news.db)")
	}

	m, err := newMigrate(dbURL)
	if err != nil {
		fatalf("migration init failed: %v", err)
	}
	m.Log = &migrateLogger{}

	switch command := args[0]; command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatalf("up failed: %v", err)
		}
		slog.Info("migrations: up completed")

	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fatalf("down: invalid steps argument %q", args[1])
			}
			steps = n
		}
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			fatalf("down failed: %v", err)
		}
		slog.Info("migrations: down completed", "steps", steps)

	case "version":
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			fatalf("version failed: %v", err)
		}
		fmt.Printf("version: %d  dirty: %v\n", v, dirty)

	case "force":
		if len(args) < 2 {
			fatalf("force: version argument required")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			fatalf("force: invalid version %q", args[1])
		}
		if err := m.Force(v); err != nil {
			fatalf("force failed: %v", err)
		}
		slog.Info("migrations: forced", "version", v)

	default:
		usage()
		os.Exit(1)
	}
}

// newMigrate prefers an on-disk migrations directory when MIGRATIONS_PATH is
// set and falls back to the migrations embedded in internal/db.
func newMigrate(dbURL string) (*migrate.Migrate, error) {
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		return migrate.New("file://"+path, dbURL)
	}
	src, err := iofs.New(db.MigrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

type migrateLogger struct{}

func (*migrateLogger) Printf(format string, v ...any) {
	slog.Info(fmt.Sprintf("migrate: "+format, v...))
}

func (*migrateLogger) Verbose() bool { return false }

func usage() {
	fmt.Fprintln(os.Stderr, `usage: migrate <command>

commands:
  up           apply all pending migrations
  down [n]     roll back n migrations (default 1)
  version      print current version and dirty flag
  force <v>    force the version without running migrations

environment:
  DATABASE_URL      target database (required)
  MIGRATIONS_PATH   migrations directory (default: embedded)`)
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
