package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

// newTestDB opens an in-memory sqlite database with the schema applied.
// MaxOpenConns is pinned to 1 so the pool cannot hand out a second
// connection with its own empty :memory: database.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(db.Config{
		DriverName:   "sqlite3",
		DSN:          "file::memory:?_foreign_keys=on",
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustCreateUser(t *testing.T, users *UserRepo, username, email string) *models.User {
	t.Helper()
	u, err := users.Create(context.Background(), models.SignupParams{
		Username: username, Email: email, Password: "password1234",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustCreatePost(t *testing.T, posts *PostRepo, userID int64, title string) *models.Post {
	t.Helper()
	p, err := posts.Create(context.Background(), userID, models.CreatePostParams{
		Title: title, PostURL: "https://example.com/" + title,
	})
	if err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return p
}

func TestUserCreateHashesPassword(t *testing.T) {
	users := NewUserRepo(newTestDB(t))
	u := mustCreateUser(t, users, "alice", "alice@example.com")

	if u.PasswordHash == "password1234" || u.PasswordHash == "" {
		t.Fatalf("password stored without hashing")
	}
	if !models.CheckPassword("password1234", u.PasswordHash) {
		t.Fatalf("hash does not verify against the original password")
	}
	if models.CheckPassword("wrong", u.PasswordHash) {
		t.Fatalf("hash verifies against the wrong password")
	}
}

func TestUserCreateValidation(t *testing.T) {
	users := NewUserRepo(newTestDB(t))
	ctx := context.Background()

	cases := []models.SignupParams{
		{Username: "", Email: "a@b.com", Password: "password1234"},
		{Username: "alice", Email: "not-an-email", Password: "password1234"},
		{Username: "alice", Email: "a@b.com", Password: "abc"},
	}
	for _, p := range cases {
		_, err := users.Create(ctx, p)
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("params %+v: got %v, want validation error", p, err)
		}
	}

	list, err := users.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected params wrote %d rows", len(list))
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	users := NewUserRepo(newTestDB(t))
	mustCreateUser(t, users, "alice", "alice@example.com")

	_, err := users.Create(context.Background(), models.SignupParams{
		Username: "alice2", Email: "alice@example.com", Password: "password1234",
	})
	if !db.IsDuplicateKey(err) {
		t.Fatalf("got %v, want duplicate key", err)
	}
}

func TestUserUpdatePartial(t *testing.T) {
	users := NewUserRepo(newTestDB(t))
	ctx := context.Background()
	u := mustCreateUser(t, users, "alice", "alice@example.com")

	name := "alicia"
	updated, err := users.Update(ctx, models.UpdateUserParams{ID: u.ID, Username: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "alicia" || updated.Email != u.Email {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.PasswordHash != u.PasswordHash {
		t.Fatalf("hash changed on an update without a password")
	}

	pw := "newpassword"
	updated, err = users.Update(ctx, models.UpdateUserParams{ID: u.ID, Password: &pw})
	if err != nil {
		t.Fatalf("password update: %v", err)
	}
	if updated.PasswordHash == u.PasswordHash {
		t.Fatalf("hash unchanged after explicit password update")
	}
	if !models.CheckPassword("newpassword", updated.PasswordHash) {
		t.Fatalf("new hash does not verify")
	}

	_, err = users.Update(ctx, models.UpdateUserParams{ID: 999, Username: &name})
	if !db.IsNotFound(err) {
		t.Fatalf("update missing user: got %v, want not found", err)
	}
}

func TestUserDeleteDetachesContent(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	comments := NewCommentRepo(database)
	ctx := context.Background()

	author := mustCreateUser(t, users, "alice", "alice@example.com")
	voter := mustCreateUser(t, users, "bob", "bob@example.com")
	post := mustCreatePost(t, posts, author.ID, "survives")
	if _, err := comments.Create(ctx, author.ID, models.CreateCommentParams{
		CommentText: "my own post", PostID: post.ID,
	}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := posts.Upvote(ctx, voter.ID, post.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	if _, err := users.Delete(ctx, author.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	view, err := posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if view.User != nil {
		t.Fatalf("post still attributed to deleted author: %+v", view.User)
	}
	if len(view.Comments) != 1 || view.Comments[0].User != nil || view.Comments[0].UserID != nil {
		t.Fatalf("comment attribution after delete: %+v", view.Comments)
	}

	// bob's vote is untouched
	if view.VoteCount != 1 {
		t.Fatalf("vote_count %d after author delete, want 1", view.VoteCount)
	}

	_, err = users.Delete(ctx, author.ID)
	if !db.IsNotFound(err) {
		t.Fatalf("second delete: got %v, want not found", err)
	}
}

func TestVoterDeleteKeepsVote(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	ctx := context.Background()

	author := mustCreateUser(t, users, "alice", "alice@example.com")
	voter := mustCreateUser(t, users, "bob", "bob@example.com")
	post := mustCreatePost(t, posts, author.ID, "voted")
	if _, err := posts.Upvote(ctx, voter.ID, post.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	if _, err := users.Delete(ctx, voter.ID); err != nil {
		t.Fatalf("delete voter: %v", err)
	}
	view, err := posts.Get(ctx, post.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.VoteCount != 1 {
		t.Fatalf("vote_count %d after voter delete, want 1", view.VoteCount)
	}
}

func TestUpvoteSemantics(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	ctx := context.Background()

	alice := mustCreateUser(t, users, "alice", "alice@example.com")
	bob := mustCreateUser(t, users, "bob", "bob@example.com")
	target := mustCreatePost(t, posts, alice.ID, "target")
	other := mustCreatePost(t, posts, alice.ID, "other")

	view, err := posts.Upvote(ctx, bob.ID, target.ID)
	if err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if view.VoteCount != 1 {
		t.Fatalf("vote_count %d, want 1", view.VoteCount)
	}

	// only the voted post's count moved
	otherView, err := posts.Get(ctx, other.ID)
	if err != nil {
		t.Fatalf("get other: %v", err)
	}
	if otherView.VoteCount != 0 {
		t.Fatalf("unvoted post has count %d", otherView.VoteCount)
	}

	// one vote per user per post
	_, err = posts.Upvote(ctx, bob.ID, target.ID)
	if !db.IsDuplicateKey(err) {
		t.Fatalf("duplicate vote: got %v, want duplicate key", err)
	}
	view, err = posts.Get(ctx, target.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.VoteCount != 1 {
		t.Fatalf("vote_count %d after duplicate, want 1", view.VoteCount)
	}

	// voting on a missing post fails atomically: no vote row appears
	_, err = posts.Upvote(ctx, bob.ID, 999)
	if !db.IsNotFound(err) {
		t.Fatalf("missing post vote: got %v, want not found", err)
	}
	var total int64
	if err := database.QueryRow(ctx, `SELECT COUNT(*) FROM votes`).Scan(&total); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if total != 1 {
		t.Fatalf("vote rows %d, want 1", total)
	}
}

func TestPostListNewestFirst(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)

	u := mustCreateUser(t, users, "alice", "alice@example.com")
	mustCreatePost(t, posts, u.ID, "first")
	mustCreatePost(t, posts, u.ID, "second")
	mustCreatePost(t, posts, u.ID, "third")

	list, err := posts.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("post count %d", len(list))
	}
	for i, want := range []string{"third", "second", "first"} {
		if list[i].Title != want {
			t.Fatalf("list[%d] = %q, want %q", i, list[i].Title, want)
		}
	}
}

// commentQueryCounter counts SELECTs that read the comments table.
type commentQueryCounter struct {
	mu    sync.Mutex
	reads int
}

func (c *commentQueryCounter) BeforeQuery(_ context.Context, query string, _ []any) {
	if strings.Contains(query, "FROM comments c") {
		c.mu.Lock()
		c.reads++
		c.mu.Unlock()
	}
}

func (c *commentQueryCounter) AfterQuery(_ context.Context, _ string, _ []any, _ time.Duration, _ error) {
}

func (c *commentQueryCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func TestPostListBatchesCommentLoads(t *testing.T) {
	counter := &commentQueryCounter{}
	database, err := db.Open(db.Config{
		DriverName:   "sqlite3",
		DSN:          "file::memory:?_foreign_keys=on",
		MaxOpenConns: 1,
		Hooks:        []db.Hook{counter},
	})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	comments := NewCommentRepo(database)
	ctx := context.Background()

	u := mustCreateUser(t, users, "alice", "alice@example.com")
	busy := mustCreatePost(t, posts, u.ID, "busy")
	quiet := mustCreatePost(t, posts, u.ID, "quiet")
	mustCreatePost(t, posts, u.ID, "silent")
	for _, text := range []string{"first reply", "second reply"} {
		if _, err := comments.Create(ctx, u.ID, models.CreateCommentParams{
			CommentText: text, PostID: busy.ID,
		}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	if _, err := comments.Create(ctx, u.ID, models.CreateCommentParams{
		CommentText: "lone reply", PostID: quiet.ID,
	}); err != nil {
		t.Fatalf("comment: %v", err)
	}

	before := counter.count()
	list, err := posts.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := counter.count() - before; got != 1 {
		t.Fatalf("list read comments %d times, want 1", got)
	}

	// comments land on the right posts, oldest first, and a post without
	// comments still carries an empty array
	if len(list) != 3 {
		t.Fatalf("post count %d", len(list))
	}
	byTitle := map[string][]models.CommentView{}
	for _, p := range list {
		byTitle[p.Title] = p.Comments
	}
	if got := byTitle["busy"]; len(got) != 2 || got[0].CommentText != "first reply" {
		t.Fatalf("busy comments: %+v", got)
	}
	if got := byTitle["quiet"]; len(got) != 1 || got[0].CommentText != "lone reply" {
		t.Fatalf("quiet comments: %+v", got)
	}
	if got := byTitle["silent"]; got == nil || len(got) != 0 {
		t.Fatalf("silent comments: %+v", got)
	}
}

func TestPostDeleteCascades(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	comments := NewCommentRepo(database)
	ctx := context.Background()

	u := mustCreateUser(t, users, "alice", "alice@example.com")
	post := mustCreatePost(t, posts, u.ID, "doomed")
	if _, err := comments.Create(ctx, u.ID, models.CreateCommentParams{
		CommentText: "soon gone", PostID: post.ID,
	}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := posts.Upvote(ctx, u.ID, post.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	n, err := posts.Delete(ctx, post.ID)
	if err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}

	if _, err := posts.Get(ctx, post.ID); !db.IsNotFound(err) {
		t.Fatalf("get deleted: got %v, want not found", err)
	}
	remaining, err := comments.List(ctx)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("comments survived post delete: %+v", remaining)
	}
	var votes int64
	if err := database.QueryRow(ctx, `SELECT COUNT(*) FROM votes`).Scan(&votes); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if votes != 0 {
		t.Fatalf("votes survived post delete: %d", votes)
	}
}

func TestCommentCreate(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	comments := NewCommentRepo(database)
	ctx := context.Background()

	u := mustCreateUser(t, users, "alice", "alice@example.com")
	post := mustCreatePost(t, posts, u.ID, "commented")

	_, err := comments.Create(ctx, u.ID, models.CreateCommentParams{
		CommentText: "abc", PostID: post.ID,
	})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "comment_text" {
		t.Fatalf("short text: got %v, want comment_text validation error", err)
	}

	_, err = comments.Create(ctx, u.ID, models.CreateCommentParams{
		CommentText: "dangling", PostID: 999,
	})
	if !db.IsForeignKeyViolation(err) {
		t.Fatalf("missing post: got %v, want foreign key violation", err)
	}

	c, err := comments.Create(ctx, u.ID, models.CreateCommentParams{
		CommentText: "looks good", PostID: post.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.UserID == nil || *c.UserID != u.ID || c.PostID != post.ID {
		t.Fatalf("unexpected comment: %+v", c)
	}

	list, err := comments.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("comment count %d, want 1 (failed creates must not write)", len(list))
	}
}

func TestSessionLifecycle(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	sessions := NewSessionRepo(database)
	ctx := context.Background()

	u := mustCreateUser(t, users, "alice", "alice@example.com")
	expires := time.Now().Add(24 * time.Hour)

	if err := sessions.Create(ctx, u.ID, "token-1", expires); err != nil {
		t.Fatalf("create session: %v", err)
	}
	s, err := sessions.Get(ctx, "token-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.UserID != u.ID || s.RevokedAt != nil {
		t.Fatalf("unexpected session: %+v", s)
	}

	// a new session revokes the previous one
	if err := sessions.Create(ctx, u.ID, "token-2", expires); err != nil {
		t.Fatalf("second session: %v", err)
	}
	s, err = sessions.Get(ctx, "token-1")
	if err != nil {
		t.Fatalf("get first session: %v", err)
	}
	if s.RevokedAt == nil {
		t.Fatalf("first session not revoked by second login")
	}

	if err := sessions.Revoke(ctx, "token-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	s, err = sessions.Get(ctx, "token-2")
	if err != nil {
		t.Fatalf("get revoked: %v", err)
	}
	if s.RevokedAt == nil {
		t.Fatalf("revoke did not stick")
	}

	if _, err := sessions.Get(ctx, "unknown"); !db.IsNotFound(err) {
		t.Fatalf("unknown session: got %v, want not found", err)
	}
	// revoking an unknown id is quietly ignored
	if err := sessions.Revoke(ctx, "unknown"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
}

func TestUserProfileAggregates(t *testing.T) {
	database := newTestDB(t)
	users := NewUserRepo(database)
	posts := NewPostRepo(database)
	comments := NewCommentRepo(database)
	ctx := context.Background()

	alice := mustCreateUser(t, users, "alice", "alice@example.com")
	bob := mustCreateUser(t, users, "bob", "bob@example.com")
	post := mustCreatePost(t, posts, alice.ID, "hers")
	bobsPost := mustCreatePost(t, posts, bob.ID, "his")
	if _, err := comments.Create(ctx, alice.ID, models.CreateCommentParams{
		CommentText: "nice link", PostID: bobsPost.ID,
	}); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := posts.Upvote(ctx, alice.ID, bobsPost.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}

	profile, err := users.Profile(ctx, alice.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile.Posts) != 1 || profile.Posts[0].ID != post.ID {
		t.Fatalf("profile posts: %+v", profile.Posts)
	}
	if len(profile.Comments) != 1 || profile.Comments[0].Post.Title != "his" {
		t.Fatalf("profile comments: %+v", profile.Comments)
	}
	if len(profile.VotedPosts) != 1 || profile.VotedPosts[0].ID != bobsPost.ID {
		t.Fatalf("profile voted posts: %+v", profile.VotedPosts)
	}

	if _, err := users.Profile(ctx, 999); !db.IsNotFound(err) {
		t.Fatalf("missing profile: got %v, want not found", err)
	}
}
