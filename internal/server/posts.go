package server

import (
	"net/http"

	"github.com/perfect-perfect/just-tech-news/internal/db"
	"github.com/perfect-perfect/just-tech-news/internal/models"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No post found with this id")
		return
	}
	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No post found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, user *models.User) {
	var params models.CreatePostParams
	if err := decodeJSON(r, &params); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// attribution always comes from the session, never the body
	post, err := s.posts.Create(r.Context(), user.ID, params)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

type upvoteRequest struct {
	PostID int64 `json:"post_id"`
}

func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req upvoteRequest
	if err := decodeJSON(r, &req); err != nil || req.PostID <= 0 {
		s.writeMessage(w, http.StatusBadRequest, "post_id is required")
		return
	}
	post, err := s.posts.Upvote(r.Context(), user.ID, req.PostID)
	if err != nil {
		switch {
		case db.IsNotFound(err):
			s.writeMessage(w, http.StatusNotFound, "No post found with this id")
		case db.IsDuplicateKey(err):
			s.writeMessage(w, http.StatusBadRequest, "You have already upvoted this post")
		default:
			s.writeStoreError(w, err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

type updatePostRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No post found with this id")
		return
	}
	var req updatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	post, err := s.posts.UpdateTitle(r.Context(), id, req.Title)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No post found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, _ *models.User) {
	id, ok := idParam(r)
	if !ok {
		s.writeMessage(w, http.StatusNotFound, "No post found with this id")
		return
	}
	n, err := s.posts.Delete(r.Context(), id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeMessage(w, http.StatusNotFound, "No post found with this id")
			return
		}
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deletedResponse{Deleted: n})
}
