package server

import "net/http"

// The page handlers reuse the same repositories as the JSON API; templates
// receive the already-assembled view shapes.

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	s.render(w, "homepage", map[string]any{
		"Posts": posts,
		"User":  s.currentUser(r),
	})
}

func (s *Server) handlePostPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, "post", map[string]any{
		"Post": post,
		"User": s.currentUser(r),
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, "login", map[string]any{"User": nil})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	posts, err := s.posts.ListByUser(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	s.render(w, "dashboard", map[string]any{
		"Posts": posts,
		"User":  user,
	})
}

func (s *Server) handleEditPostPage(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id, ok := idParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	post, err := s.posts.Get(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	s.render(w, "edit-post", map[string]any{
		"Post": post,
		"User": user,
	})
}
