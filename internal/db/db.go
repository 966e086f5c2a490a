// Package db wraps database/sql with explicit configuration, query hooks,
// unified error mapping, and transaction helpers. It is not an ORM: every
// statement in the application is plain SQL owned by the repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Config holds all options for opening and managing the connection pool.
type Config struct {
	// DriverName is "sqlite3", "mysql", or "postgres".
	DriverName string

	// DSN is the driver-specific data-source name.
	DSN string

	// Pool settings. Zero values leave the database/sql defaults in place.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// DefaultTimeout applies when the caller's context carries no deadline.
	// Zero disables the default timeout.
	DefaultTimeout time.Duration

	// Hooks run around every statement (logging, metrics). Nil entries are
	// skipped.
	Hooks []Hook
}

// DB is a thin, concurrency-safe wrapper around *sql.DB. All methods take a
// context.Context so callers control timeouts and cancellation.
type DB struct {
	sqldb  *sql.DB
	cfg    Config
	hooks  hookChain
	errMap ErrorMapper
}

// Open opens the database described by cfg, verifies connectivity, and
// applies any pending embedded migrations. Callers own Close().
func Open(cfg Config) (*DB, error) {
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("db: DriverName must not be empty")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db: DSN must not be empty")
	}
	if err := ValidDriver(cfg.DriverName); err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	if err := Migrate(sqldb, cfg.DriverName); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	return &DB{
		sqldb:  sqldb,
		cfg:    cfg,
		hooks:  newHookChain(cfg.Hooks),
		errMap: DefaultErrorMapper(),
	}, nil
}

// NewFromSQL wraps an already-open *sql.DB. It skips the connectivity check
// and migration bootstrap; test code uses it to install mock connections.
func NewFromSQL(sqldb *sql.DB, cfg Config) *DB {
	return &DB{
		sqldb:  sqldb,
		cfg:    cfg,
		hooks:  newHookChain(cfg.Hooks),
		errMap: DefaultErrorMapper(),
	}
}

// Raw returns the underlying *sql.DB for advanced use cases.
func (d *DB) Raw() *sql.DB { return d.sqldb }

// Close closes all pooled connections. Safe to call multiple times.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx = d.applyDefaultTimeout(ctx)
	return d.sqldb.PingContext(ctx)
}

// Stats returns pool statistics for monitoring.
func (d *DB) Stats() sql.DBStats { return d.sqldb.Stats() }

// Exec executes a statement that returns no rows (INSERT, UPDATE, DELETE).
// Errors come back translated through the unified error mapper.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = d.applyDefaultTimeout(ctx)
	query = d.rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	res, err := d.sqldb.ExecContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query that returns rows. The caller must close the rows.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx = d.applyDefaultTimeout(ctx)
	query = d.rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	rows, err := d.sqldb.QueryContext(ctx, query, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
// Scan on the returned *Row yields ErrNotFound when no row matches.
func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	ctx = d.applyDefaultTimeout(ctx)
	query = d.rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	raw := d.sqldb.QueryRowContext(ctx, query, args...)
	d.hooks.After(ctx, query, args, time.Since(start), nil) // err unknown until Scan
	return &Row{raw: raw, errMap: d.errMap}
}

func (d *DB) applyDefaultTimeout(ctx context.Context) context.Context {
	if d.cfg.DefaultTimeout == 0 {
		return ctx
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx
	}
	ctx, _ = context.WithTimeout(ctx, d.cfg.DefaultTimeout) //nolint:govet
	return ctx
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// rebind rewrites ? placeholders to $1..$n for postgres. Repository SQL is
// written once in ? style; sqlite and mysql take it as-is.
func (d *DB) rebind(query string) string {
	if d.cfg.DriverName != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Row wraps *sql.Row so Scan errors pass through the unified error mapper.
type Row struct {
	raw    *sql.Row
	errMap ErrorMapper
}

// Scan copies columns from the matched row into dest values.
func (r *Row) Scan(dest ...any) error {
	err := r.raw.Scan(dest...)
	if err == nil {
		return nil
	}
	return r.errMap.Map(err)
}
