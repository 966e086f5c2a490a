// Package server wires the HTTP surface: the /api JSON routes, the
// server-rendered pages, and the session-cookie authorization gate in
// front of every mutating operation.
package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
	"github.com/perfect-perfect/just-tech-news/internal/repo"
)

type Server struct {
	log      *slog.Logger
	users    *repo.UserRepo
	posts    *repo.PostRepo
	comments *repo.CommentRepo
	sessions *repo.SessionRepo

	tmpl      map[string]*template.Template
	staticDir string
	handler   http.Handler

	CookieName string
	SessionTTL time.Duration
}

// New builds a Server over database. webDir holds templates/ and static/.
func New(database *db.DB, webDir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	templateDir := filepath.Join(webDir, "templates")
	templates := map[string]*template.Template{}
	layout := filepath.Join(templateDir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.ParseFiles(layout, page)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}

	s := &Server{
		log:        logger,
		users:      repo.NewUserRepo(database),
		posts:      repo.NewPostRepo(database),
		comments:   repo.NewCommentRepo(database),
		sessions:   repo.NewSessionRepo(database),
		tmpl:       templates,
		staticDir:  filepath.Join(webDir, "static"),
		CookieName: "session_id",
		SessionTTL: 24 * time.Hour,
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// users
	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("POST /api/users", s.handleSignup)
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/users/logout", s.handleLogout)
	mux.HandleFunc("PUT /api/users/{id}", s.requireAuth(s.handleUpdateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.requireAuth(s.handleDeleteUser))

	// posts; the literal /upvote segment wins over {id} in the mux, so
	// /api/posts/upvote can never be swallowed by the {id} route
	mux.HandleFunc("GET /api/posts", s.handleListPosts)
	mux.HandleFunc("GET /api/posts/{id}", s.handleGetPost)
	mux.HandleFunc("POST /api/posts", s.requireAuth(s.handleCreatePost))
	mux.HandleFunc("PUT /api/posts/upvote", s.requireAuth(s.handleUpvote))
	mux.HandleFunc("PUT /api/posts/{id}", s.requireAuth(s.handleUpdatePost))
	mux.HandleFunc("DELETE /api/posts/{id}", s.requireAuth(s.handleDeletePost))

	// comments
	mux.HandleFunc("GET /api/comments", s.handleListComments)
	mux.HandleFunc("POST /api/comments", s.requireAuth(s.handleCreateComment))
	mux.HandleFunc("DELETE /api/comments/{id}", s.requireAuth(s.handleDeleteComment))

	// pages
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /post/{id}", s.handlePostPage)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /dashboard/edit/{id}", s.handleEditPostPage)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))

	return s.withRequestLog(mux)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

// requireAuth is the authorization gate: without a live session the wrapped
// handler never runs and nothing is written to the store. The session's
// user is handed to the handler; client-supplied user ids are never
// trusted for attribution.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			s.writeMessage(w, http.StatusUnauthorized, "You must be logged in to do that")
			return
		}
		next(w, r, user)
	}
}

// currentUser resolves the session cookie to a user, or nil for guests,
// revoked sessions, and expired sessions.
func (s *Server) currentUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return nil
	}
	sess, err := s.sessions.Get(r.Context(), cookie.Value)
	if err != nil || sess.RevokedAt != nil || sess.ExpiresAt.Before(time.Now()) {
		return nil
	}
	user, err := s.users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		return nil
	}
	return user
}

// startSession persists a new session and sets the cookie. The row is
// committed before the caller writes the response, so the session is
// visible to the client's next request.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	sid := uuid.NewString()
	expires := time.Now().Add(s.SessionTTL)
	if err := s.sessions.Create(r.Context(), userID, sid, expires); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    sid,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
}

// render executes a page template against the shared layout.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		s.log.Error("render", "template", name, "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("write response", "error", err)
	}
}

type apiMessage struct {
	Message string `json:"message"`
}

func (s *Server) writeMessage(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiMessage{Message: msg})
}

// writeStoreError maps data-access failures to the response taxonomy:
// validation problems and constraint violations are client errors with a
// field-level message, anything else is a generic 500. Raw driver errors
// stay in the logs and never reach the client.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeMessage(w, http.StatusBadRequest, verr.Message)
	case db.IsDuplicateKey(err):
		s.writeMessage(w, http.StatusBadRequest, "A record with that value already exists")
	case db.IsForeignKeyViolation(err):
		s.writeMessage(w, http.StatusBadRequest, "A referenced record does not exist")
	case db.IsNotFound(err):
		s.writeMessage(w, http.StatusNotFound, "Not found")
	default:
		s.log.Error("store error", "error", err)
		s.writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
