package http

import (
	"net/http"

	"spenny/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), currentUser(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	Created(c).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories.List(r.Context(), currentUser(r), QueryString(r, "budget_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(categories).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Categories.Get(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.svc.Categories.Update(r.Context(), currentUser(r), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Categories.Delete(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
