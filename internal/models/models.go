// Package models holds the row structs, input params, and response shapes
// for the just-tech-news schema. Fields map one-to-one onto columns; there
// is no relation loading here. The repositories assemble nested shapes
// with explicit SQL.
package models

import "time"

// User is a row in the users table. The password hash never serializes.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a server-side authentication record keyed by the cookie token.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Post is a shared link. UserID is nil when the author account was deleted.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	PostURL   string    `json:"post_url"`
	UserID    *int64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment belongs to exactly one post. UserID is nil when the author
// account was deleted.
type Comment struct {
	ID          int64     `json:"id"`
	CommentText string    `json:"comment_text"`
	UserID      *int64    `json:"user_id"`
	PostID      int64     `json:"post_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is an append-only join record: one upvote by one user on one post.
// The (user_id, post_id) pair is unique.
type Vote struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
