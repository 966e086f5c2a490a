package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Sentinel errors. Repository and handler code checks these with errors.Is
// (or the Is* helpers) instead of inspecting driver-specific error types.
var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("db: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("db: duplicate key")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails.
	ErrForeignKeyViolation = errors.New("db: foreign key violation")

	// ErrCheckViolation is returned when a CHECK constraint fails.
	ErrCheckViolation = errors.New("db: check constraint violation")

	// ErrTimeout is returned when a statement exceeds its deadline.
	ErrTimeout = errors.New("db: query timeout")

	// ErrConnectionFailed is returned when the driver cannot reach the server.
	ErrConnectionFailed = errors.New("db: connection failed")
)

func IsNotFound(err error) bool            { return errors.Is(err, ErrNotFound) }
func IsDuplicateKey(err error) bool        { return errors.Is(err, ErrDuplicateKey) }
func IsForeignKeyViolation(err error) bool { return errors.Is(err, ErrForeignKeyViolation) }
func IsCheckViolation(err error) bool      { return errors.Is(err, ErrCheckViolation) }
func IsTimeout(err error) bool             { return errors.Is(err, ErrTimeout) }

// DBError pairs a sentinel with the original driver error so callers can use
// errors.Is for simple checks or unwrap for diagnostics.
type DBError struct {
	Sentinel error
	Cause    error
}

func (e *DBError) Error() string {
	return fmt.Sprintf("%s (cause: %v)", e.Sentinel, e.Cause)
}

func (e *DBError) Is(target error) bool { return errors.Is(e.Sentinel, target) }
func (e *DBError) Unwrap() error        { return e.Cause }

// ErrorMapper translates raw driver errors into the package sentinels.
type ErrorMapper interface {
	Map(err error) error
}

// ErrorMapperFunc adapts a function to ErrorMapper.
type ErrorMapperFunc func(error) error

func (f ErrorMapperFunc) Map(err error) error { return f(err) }

// DefaultErrorMapper covers the three drivers this application ships:
// mattn/go-sqlite3, go-sql-driver/mysql, and lib/pq.
func DefaultErrorMapper() ErrorMapper {
	return ErrorMapperFunc(defaultMap)
}

func defaultMap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &DBError{Sentinel: ErrNotFound, Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	}

	// Already mapped; do not double-wrap.
	var dbe *DBError
	if errors.As(err, &dbe) {
		return err
	}

	if mapped := mapSQLiteError(err); mapped != nil {
		return mapped
	}
	if mapped := mapMySQLError(err); mapped != nil {
		return mapped
	}
	if mapped := mapPostgresError(err); mapped != nil {
		return mapped
	}
	return err
}

func mapSQLiteError(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
		case sqlite3.ErrConstraintForeignKey:
			return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
		case sqlite3.ErrConstraintCheck:
			return &DBError{Sentinel: ErrCheckViolation, Cause: err}
		}
	}
	// Fallback for wrappers that lose the typed error.
	s := err.Error()
	switch {
	case strings.Contains(s, "UNIQUE constraint failed"):
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case strings.Contains(s, "FOREIGN KEY constraint failed"):
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case strings.Contains(s, "CHECK constraint failed"):
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	}
	return nil
}

// MySQL server error numbers:
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
func mapMySQLError(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil
	}
	switch me.Number {
	case 1062: // ER_DUP_ENTRY
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case 1216, 1217, 1451, 1452: // referenced-row / no-referenced-row
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case 3024: // ER_QUERY_TIMEOUT
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	case 1045, 2002, 2003, 2006, 2013:
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return nil
}

// PostgreSQL SQLSTATE codes:
// https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapPostgresError(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return nil
	}
	switch string(pe.Code) {
	case "23505": // unique_violation
		return &DBError{Sentinel: ErrDuplicateKey, Cause: err}
	case "23503": // foreign_key_violation
		return &DBError{Sentinel: ErrForeignKeyViolation, Cause: err}
	case "23514": // check_violation
		return &DBError{Sentinel: ErrCheckViolation, Cause: err}
	case "57014": // query_canceled
		return &DBError{Sentinel: ErrTimeout, Cause: err}
	case "08000", "08001", "08003", "08004", "08006", "08007", "08P01":
		return &DBError{Sentinel: ErrConnectionFailed, Cause: err}
	}
	return nil
}
