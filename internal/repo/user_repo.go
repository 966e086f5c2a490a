package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

// UserRepo owns user persistence and the credential normalization rule:
// every path that sets a password hashes it here before the row is written.
type UserRepo struct {
	db *db.DB
}

func NewUserRepo(database *db.DB) *UserRepo {
	return &UserRepo{db: database}
}

const (
	sqlGetUserByID = `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE id = ?`

	sqlGetUserByEmail = `
		SELECT id, username, email, password_hash, created_at
		FROM users WHERE email = ?`

	sqlListUsers = `
		SELECT id, username, email, created_at
		FROM users ORDER BY id`
)

// Create validates the params, hashes the password, and inserts the user.
// A duplicate email surfaces as db.ErrDuplicateKey.
func (r *UserRepo) Create(ctx context.Context, p models.SignupParams) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	hash, err := models.HashPassword(p.Password)
	if err != nil {
		return nil, &models.ValidationError{Field: "password", Message: "could not process password"}
	}
	res, err := r.db.Exec(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`,
		p.Username, p.Email, hash)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns the full user row, hash included. The hash never leaves
// the process; the JSON tag on the model keeps it out of responses.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, sqlGetUserByID, id))
}

// GetByEmail looks a user up for login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, sqlGetUserByEmail, email))
}

// List returns all users without their password hashes.
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.Query(ctx, sqlListUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo/user: scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update applies a partial update. Only non-nil fields change, and the
// password is rehashed only when one is explicitly supplied.
func (r *UserRepo) Update(ctx context.Context, p models.UpdateUserParams) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	set := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if p.Username != nil {
		set = append(set, "username = ?")
		args = append(args, *p.Username)
	}
	if p.Email != nil {
		set = append(set, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Password != nil {
		hash, err := models.HashPassword(*p.Password)
		if err != nil {
			return nil, &models.ValidationError{Field: "password", Message: "could not process password"}
		}
		set = append(set, "password_hash = ?")
		args = append(args, hash)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, p.ID)
	}
	args = append(args, p.ID)

	res, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = ?`, strings.Join(set, ", ")), args...)
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
	return r.GetByID(ctx, p.ID)
}

// Delete removes the user. Dependent posts, comments, and votes keep their
// rows with user_id nulled by the schema's ON DELETE SET NULL rules.
// Returns the number of rows deleted; zero maps to db.ErrNotFound.
func (r *UserRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
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

// Profile assembles the single-user read shape: the user, their posts,
// their comments with the parent post's title, and the posts they upvoted.
func (r *UserRepo) Profile(ctx context.Context, id int64) (*models.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = ?`, id)
	p := &models.UserProfile{
		Posts:      []models.PostSummary{},
		Comments:   []models.ProfileComment{},
		VotedPosts: []models.PostTitle{},
	}
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.CreatedAt); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, post_url, created_at FROM posts
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ps models.PostSummary
		if err := rows.Scan(&ps.ID, &ps.Title, &ps.PostURL, &ps.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo/user: scan post: %w", err)
		}
		p.Posts = append(p.Posts, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cRows, err := r.db.Query(ctx,
		`SELECT c.id, c.comment_text, c.created_at, p.id, p.title
		 FROM comments c JOIN posts p ON p.id = c.post_id
		 WHERE c.user_id = ? ORDER BY c.created_at DESC, c.id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer cRows.Close()
	for cRows.Next() {
		var pc models.ProfileComment
		if err := cRows.Scan(&pc.ID, &pc.CommentText, &pc.CreatedAt, &pc.Post.ID, &pc.Post.Title); err != nil {
			return nil, fmt.Errorf("repo/user: scan comment: %w", err)
		}
		p.Comments = append(p.Comments, pc)
	}
	if err := cRows.Err(); err != nil {
		return nil, err
	}

	vRows, err := r.db.Query(ctx,
		`SELECT p.id, p.title FROM votes v JOIN posts p ON p.id = v.post_id
		 WHERE v.user_id = ? ORDER BY v.created_at DESC, v.id DESC`, id)
	if err != nil {
		return nil, err
	}
	defer vRows.Close()
	for vRows.Next() {
		var pt models.PostTitle
		if err := vRows.Scan(&pt.ID, &pt.Title); err != nil {
			return nil, fmt.Errorf("repo/user: scan vote: %w", err)
		}
		p.VotedPosts = append(p.VotedPosts, pt)
	}
	return p, vRows.Err()
}

func scanUser(row *db.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
