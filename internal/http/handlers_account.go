package http

import (
	"net/http"

	"spenny/internal/core"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a, err := s.svc.Accounts.Create(r.Context(), currentUser(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	Created(a).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context(), currentUser(r), QueryString(r, "budget_id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(accounts).Write(w)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Accounts.Get(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(a).Write(w)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	a, err := s.svc.Accounts.Update(r.Context(), currentUser(r), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(a).Write(w)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Accounts.Delete(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
