package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

// PostRepo owns post persistence and vote aggregation. A post's vote_count
// is the count of matching vote rows, projected by subquery on every read
// that wants it. It is never stored on the post row and never cached, so a
// read is exact with respect to committed votes.
type PostRepo struct {
	db *db.DB
}

func NewPostRepo(database *db.DB) *PostRepo {
	return &PostRepo{db: database}
}

const (
	sqlPostView = `
		SELECT p.id, p.post_url, p.title, p.created_at,
		       (SELECT COUNT(*) FROM votes WHERE votes.post_id = p.id) AS vote_count,
		       u.username
		FROM posts p
		LEFT JOIN users u ON u.id = p.user_id`

	sqlListPosts = sqlPostView + `
		ORDER BY p.created_at DESC, p.id DESC`

	sqlListPostsByUser = sqlPostView + `
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC, p.id DESC`

	sqlGetPost = sqlPostView + `
		WHERE p.id = ?`

	sqlCommentsBase = `
		SELECT c.id, c.comment_text, c.post_id, c.user_id, c.created_at, u.username
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id`

	sqlCommentsForPost = sqlCommentsBase + `
		WHERE c.post_id = ?
		ORDER BY c.created_at ASC, c.id ASC`

	sqlCommentsForPosts = sqlCommentsBase + `
		WHERE c.post_id IN (%s)
		ORDER BY c.created_at ASC, c.id ASC`
)

// List returns all posts, newest first, with vote counts, author usernames,
// and comments.
func (r *PostRepo) List(ctx context.Context) ([]models.PostView, error) {
	return r.list(ctx, sqlListPosts)
}

// ListByUser returns one user's posts in the same shape; the dashboard
// view reads through here.
func (r *PostRepo) ListByUser(ctx context.Context, userID int64) ([]models.PostView, error) {
	return r.list(ctx, sqlListPostsByUser, userID)
}

func (r *PostRepo) list(ctx context.Context, query string, args ...any) ([]models.PostView, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.PostView{}
	for rows.Next() {
		pv, err := scanPostView(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *pv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]int64, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	byPost, err := r.commentsForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if cs, ok := byPost[posts[i].ID]; ok {
			posts[i].Comments = cs
		}
	}
	return posts, nil
}

// Get returns one post with its vote count and comments, or db.ErrNotFound.
func (r *PostRepo) Get(ctx context.Context, id int64) (*models.PostView, error) {
	rows, err := r.db.Query(ctx, sqlGetPost, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, db.ErrNotFound
	}
	pv, err := scanPostView(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()
	pv.Comments, err = r.commentsFor(ctx, pv.ID)
	if err != nil {
		return nil, err
	}
	return pv, nil
}

// Create inserts a post attributed to userID. The caller takes userID from
// the session, never from the request body.
func (r *PostRepo) Create(ctx context.Context, userID int64, p models.CreatePostParams) (*models.Post, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	res, err := r.db.Exec(ctx,
		`INSERT INTO posts (title, post_url, user_id) VALUES (?, ?, ?)`,
		p.Title, p.PostURL, userID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.getRow(ctx, id)
}

// UpdateTitle changes a post's title, the only permitted post update.
func (r *PostRepo) UpdateTitle(ctx context.Context, id int64, title string) (*models.Post, error) {
	if title == "" {
		return nil, &models.ValidationError{Field: "title", Message: "title is required"}
	}
	res, err := r.db.Exec(ctx, `UPDATE posts SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, db.ErrNotFound
	}
	return r.getRow(ctx, id)
}

// Delete removes a post; its comments and votes cascade away with it.
// Returns the number of rows deleted; zero maps to db.ErrNotFound.
func (r *PostRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = ?`, id)
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

// Upvote records one vote by userID on postID and returns the post with its
// updated count. The existence check and the insert share a transaction, so
// voting on a missing post writes nothing and returns db.ErrNotFound, and a
// repeat vote trips the (user_id, post_id) unique constraint as
// db.ErrDuplicateKey.
func (r *PostRepo) Upvote(ctx context.Context, userID, postID int64) (*models.PostView, error) {
	err := r.db.ExecTx(ctx, func(tx *db.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = ?`, postID).Scan(&id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO votes (user_id, post_id) VALUES (?, ?)`, userID, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, postID)
}

func (r *PostRepo) commentsFor(ctx context.Context, postID int64) ([]models.CommentView, error) {
	rows, err := r.db.Query(ctx, sqlCommentsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.CommentView{}
	for rows.Next() {
		cv, err := scanCommentView(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *cv)
	}
	return comments, rows.Err()
}

// commentsForPosts loads the comments for every listed post in one query and
// groups them by post id, so a list read is two statements no matter how
// many posts it returns.
func (r *PostRepo) commentsForPosts(ctx context.Context, ids []int64) (map[int64][]models.CommentView, error) {
	byPost := make(map[int64][]models.CommentView, len(ids))
	if len(ids) == 0 {
		return byPost, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(sqlCommentsForPosts, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		cv, err := scanCommentView(rows)
		if err != nil {
			return nil, err
		}
		byPost[cv.PostID] = append(byPost[cv.PostID], *cv)
	}
	return byPost, rows.Err()
}

func scanCommentView(rows *sql.Rows) (*models.CommentView, error) {
	var cv models.CommentView
	var userID sql.NullInt64
	var username sql.NullString
	if err := rows.Scan(&cv.ID, &cv.CommentText, &cv.PostID, &userID, &cv.CreatedAt, &username); err != nil {
		return nil, fmt.Errorf("repo/post: scan comment: %w", err)
	}
	if userID.Valid {
		cv.UserID = &userID.Int64
	}
	if username.Valid {
		cv.User = &models.AuthorView{Username: username.String}
	}
	return &cv, nil
}

func (r *PostRepo) getRow(ctx context.Context, id int64) (*models.Post, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, post_url, user_id, created_at FROM posts WHERE id = ?`, id)
	var p models.Post
	var userID sql.NullInt64
	if err := row.Scan(&p.ID, &p.Title, &p.PostURL, &userID, &p.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		p.UserID = &userID.Int64
	}
	return &p, nil
}

func scanPostView(rows *sql.Rows) (*models.PostView, error) {
	var pv models.PostView
	var username sql.NullString
	if err := rows.Scan(&pv.ID, &pv.PostURL, &pv.Title, &pv.CreatedAt, &pv.VoteCount, &username); err != nil {
		return nil, fmt.Errorf("repo/post: scan: %w", err)
	}
	if username.Valid {
		pv.User = &models.AuthorView{Username: username.String}
	}
	pv.Comments = []models.CommentView{}
	return &pv, nil
}
