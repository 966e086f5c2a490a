package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Tx mirrors the DB query surface over *sql.Tx so repositories work
// unchanged inside a transaction via the Querier interface.
type Tx struct {
	sqltx  *sql.Tx
	hooks  hookChain
	errMap ErrorMapper
	parent *DB
}

// Raw returns the underlying *sql.Tx.
func (t *Tx) Raw() *sql.Tx { return t.sqltx }

// Exec executes a statement that returns no rows.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = t.parent.rebind(query)
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	res, err := t.sqltx.ExecContext(ctx, query, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// Query executes a query returning rows. The caller must close the rows.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = t.parent.rebind(query)
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	rows, err := t.sqltx.QueryContext(ctx, query, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRow executes a query expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	query = t.parent.rebind(query)
	start := time.Now()
	t.hooks.Before(ctx, query, args)
	raw := t.sqltx.QueryRowContext(ctx, query, args...)
	t.hooks.After(ctx, query, args, time.Since(start), nil)
	return &Row{raw: raw, errMap: t.errMap}
}

func (t *Tx) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return t.errMap.Map(err)
}

// ExecTx starts a transaction, executes fn, and commits on success or rolls
// back on error or panic. Nested transactions are not supported.
func (d *DB) ExecTx(ctx context.Context, fn func(*Tx) error) (err error) {
	ctx = d.applyDefaultTimeout(ctx)

	sqltx, err := d.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return d.mapErr(err)
	}

	tx := &Tx{sqltx: sqltx, hooks: d.hooks, errMap: d.errMap, parent: d}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqltx.Rollback(); rbErr != nil {
				err = fmt.Errorf("db: rollback failed (%v) after: %w", rbErr, err)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return d.mapErr(err)
	}
	if err = sqltx.Commit(); err != nil {
		return d.mapErr(err)
	}
	return nil
}

// Querier is the minimal query interface shared by *DB and *Tx. Repositories
// accept Querier so the same code runs inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
