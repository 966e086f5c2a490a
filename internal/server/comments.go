package server

import (
	"net/http"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.comments.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, user *models.User) {
	var params models.CreateCommentParams
	if err := decodeJSON(r, &params); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	comment, err := s.comments.Create(r.Context(), user.ID, params)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			s.writeMessage(w, http.StatusBadRequest, "No post found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No comment found with this id")
		return
	}
	n, err := s.comments.Delete(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No comment found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}
