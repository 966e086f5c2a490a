package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

// CommentRepo owns comment persistence.
type CommentRepo struct {
	db *db.DB
}

func NewCommentRepo(database *db.DB) *CommentRepo {
	return &CommentRepo{db: database}
}

// List returns every comment, oldest first.
func (r *CommentRepo) List(ctx context.Context) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, comment_text, user_id, post_id, created_at FROM comments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Create validates the params and inserts a comment attributed to userID
// (always the session user). A missing post surfaces as
// db.ErrForeignKeyViolation; a validation failure writes nothing.
func (r *CommentRepo) Create(ctx context.Context, userID int64, p models.CreateCommentParams) (*models.Comment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	res, err := r.db.Exec(ctx,
		`INSERT INTO comments (comment_text, user_id, post_id) VALUES (?, ?, ?)`,
		p.CommentText, userID, p.PostID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx,
		`SELECT id, comment_text, user_id, post_id, created_at FROM comments WHERE id = ?`, id)
	var c models.Comment
	var uid sql.NullInt64
	if err := row.Scan(&c.ID, &c.CommentText, &uid, &c.PostID, &c.CreatedAt); err != nil {
		return nil, err
	}
	if uid.Valid {
		c.UserID = &uid.Int64
	}
	return &c, nil
}

// Delete removes a comment. Returns the number of rows deleted; zero maps
// to db.ErrNotFound.
func (r *CommentRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, db.ErrNotFound
	}
	return n, nil
}

func scanComment(rows *sql.Rows) (*models.Comment, error) {
	var c models.Comment
	var uid sql.NullInt64
	if err := rows.Scan(&c.ID, &c.CommentText, &uid, &c.PostID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("repo/comment: scan: %w", err)
	}
	if uid.Valid {
		c.UserID = &uid.Int64
	}
	return &c, nil
}
