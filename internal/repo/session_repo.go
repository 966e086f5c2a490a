// Package repo implements explicit-SQL repositories over internal/db. All
// nested read shapes are assembled here; nothing relies on ORM association
// metadata.
package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

// SessionRepo persists server-side sessions. The cookie carries only the
// opaque session id; everything else lives in the sessions table.
type SessionRepo struct {
	db *db.DB
}

func NewSessionRepo(database *db.DB) *SessionRepo {
	return &SessionRepo{db: database}
}

// Create revokes any live sessions for the user and inserts a fresh one.
// The insert commits before the caller writes the HTTP response, so the
// session is visible to the very next request.
func (r *SessionRepo) Create(ctx context.Context, userID int64, id string, expires time.Time) error {
	return r.db.ExecTx(ctx, func(tx *db.Tx) error {
		_, err := tx.Exec(ctx,
			`UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL`,
			userID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
			id, userID, expires.UTC())
		return err
	})
}

// Get returns the session row for id, or db.ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	var s models.Session
	var revoked sql.NullTime
	if err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &revoked); err != nil {
		return nil, err
	}
	if revoked.Valid {
		s.RevokedAt = &revoked.Time
	}
	return &s, nil
}

// Revoke marks the session dead. Revoking an unknown id is not an error.
func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE id = ? AND revoked_at IS NULL`, id)
	return err
}
