package models

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError reports a field-level input problem. The server renders it
// as a 400 with the message; nothing is written to the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SignupParams are the fields required to create a user.
type SignupParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p SignupParams) Validate() error {
	if strings.TrimSpace(p.Username) == "" {
		return invalid("username", "username is required")
	}
	if !validEmail(p.Email) {
		return invalid("email", "a valid email address is required")
	}
	if len(p.Password) < 4 {
		return invalid("password", "password must be at least 4 characters")
	}
	return nil
}

// UpdateUserParams holds the updatable user fields. Nil pointers are left
// untouched; the password is rehashed only when one is supplied.
type UpdateUserParams struct {
	ID       int64
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (p UpdateUserParams) Validate() error {
	if p.Username != nil && strings.TrimSpace(*p.Username) == "" {
		return invalid("username", "username must not be empty")
	}
	if p.Email != nil && !validEmail(*p.Email) {
		return invalid("email", "a valid email address is required")
	}
	if p.Password != nil && len(*p.Password) < 4 {
		return invalid("password", "password must be at least 4 characters")
	}
	return nil
}

// CreatePostParams are the client-supplied post fields. The author comes
// from the session, never from the body.
type CreatePostParams struct {
	Title   string `json:"title"`
	PostURL string `json:"post_url"`
}

func (p CreatePostParams) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return invalid("title", "title is required")
	}
	u, err := url.Parse(p.PostURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("post_url", "post_url must be an absolute http(s) URL")
	}
	return nil
}

// CreateCommentParams are the client-supplied comment fields.
type CreateCommentParams struct {
	CommentText string `json:"comment_text"`
	PostID      int64  `json:"post_id"`
}

func (p CreateCommentParams) Validate() error {
	if len(p.CommentText) < 4 {
		return invalid("comment_text", "comment_text must be at least 4 characters")
	}
	if p.PostID == 0 {
		return invalid("post_id", "post_id is required")
	}
	return nil
}

// validEmail is a cheap shape check: one @, something on both sides, and a
// dot in the domain. Deliverability is the mail server's problem.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	if domain == "" || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(s, " \t\n")
}
