package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/perfect-perfect/just-tech-news/internal/db"
)

// Driver failures must surface as a generic 500 with the raw error kept out
// of the response body.
func TestStoreFailureHidesDriverError(t *testing.T) {
	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer sqldb.Close()

	database := db.NewFromSQL(sqldb, db.Config{DriverName: "sqlite3"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(database, "../../web", logger)
	if err != nil {
		t.Fatalf("server: %v", err)
	}

	mock.ExpectQuery("SELECT id, username, email, created_at").
		WillReturnError(errors.New("disk I/O error on users"))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("code %d, want 500", w.Code)
	}
	if got := message(t, w); got != "Internal server error" {
		t.Fatalf("message %q", got)
	}
	if body := w.Body.String(); strings.Contains(body, "disk I/O") {
		t.Fatalf("response leaks driver error: %s", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
