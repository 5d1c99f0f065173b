package http

import (
	"net/http"

	"spenny/internal/core"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), currentUser(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	Created(b).Write(w)
}

// handleListBudgets lists the caller's budgets; ?is_default=true narrows to
// the default one.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	isDefault, err := QueryBool(r, "is_default")
	if err != nil {
		fail(w, r, core.Rejected(err.Error()))
		return
	}
	budgets, err := s.svc.Budgets.List(r.Context(), currentUser(r), isDefault)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(budgets).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.svc.Budgets.Get(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(b).Write(w)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var in core.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), currentUser(r), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(b).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Budgets.Delete(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
