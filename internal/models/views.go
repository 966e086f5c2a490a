package models

import "time"

// The view types are the JSON read shapes of the API: posts carry a derived
// vote_count and nested comment/author usernames; user profiles carry
// authored posts, authored comments with their parent post's title, and the
// posts the user has voted on.

// AuthorView exposes only the username of a related user.
type AuthorView struct {
	Username string `json:"username"`
}

// CommentView is a comment enriched with its author's username. User is nil
// when the author account was deleted.
type CommentView struct {
	ID          int64       `json:"id"`
	CommentText string      `json:"comment_text"`
	PostID      int64       `json:"post_id"`
	UserID      *int64      `json:"user_id"`
	CreatedAt   time.Time   `json:"created_at"`
	User        *AuthorView `json:"user"`
}

// PostView is a post with its derived vote count, author, and comments.
// VoteCount is recomputed from the votes table on every read, never stored.
type PostView struct {
	ID        int64         `json:"id"`
	PostURL   string        `json:"post_url"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	VoteCount int64         `json:"vote_count"`
	User      *AuthorView   `json:"user"`
	Comments  []CommentView `json:"comments"`
}

// PostSummary is the lightweight post shape used inside user profiles.
type PostSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	PostURL   string    `json:"post_url"`
	CreatedAt time.Time `json:"created_at"`
}

// PostTitle identifies a post by id and title only.
type PostTitle struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ProfileComment is a comment inside a user profile, enriched with the
// parent post's title.
type ProfileComment struct {
	ID          int64     `json:"id"`
	CommentText string    `json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
	Post        PostTitle `json:"post"`
}

// UserProfile is the full single-user read shape. The password hash is
// never part of it.
type UserProfile struct {
	ID         int64            `json:"id"`
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	CreatedAt  time.Time        `json:"created_at"`
	Posts      []PostSummary    `json:"posts"`
	Comments   []ProfileComment `json:"comments"`
	VotedPosts []PostTitle      `json:"voted_posts"`
}
