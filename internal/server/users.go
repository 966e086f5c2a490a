package server

import (
	"net/http"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No user found with this id")
		return
	}
	profile, err := s.users.Profile(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No user found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var params models.SignupParams
	if err := decodeJSON(r, &params); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := s.users.Create(r.Context(), params)
	if err != nil {
		if db.IsDuplicateKey(err) {
			s.writeMessage(w, http.StatusBadRequest, "A user with that email already exists")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	if err := s.startSession(w, r, user.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusBadRequest, "No user with that email address!")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	if !models.CheckPassword(req.Password, user.PasswordHash) {
		s.writeMessage(w, http.StatusBadRequest, "Incorrect password!")
		return
	}
	if err := s.startSession(w, r, user.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loginResponse{User: user, Message: "You are now logged in!"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if s.currentUser(r) == nil {
		// stale or revoked cookie: nothing to log out, drop the cookie
		s.clearSessionCookie(w)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := s.sessions.Revoke(r.Context(), cookie.Value); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No user found with this id")
		return
	}
	var params models.UpdateUserParams
	if err := decodeJSON(r, &params); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params.ID = id
	user, err := s.users.Update(r.Context(), params)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No user found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

type deletedResponse struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No user found with this id")
		return
	}
	n, err := s.users.Delete(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No user found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}
