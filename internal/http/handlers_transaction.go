package http

import (
	"net/http"

	"spenny/internal/core"
	"spenny/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	t, err := s.svc.Transactions.Create(r.Context(), currentUser(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	Created(t).Write(w)
}

// handleListTransactions accepts budget_id, account_id and category_id
// filters. Filters naming another user's rows answer 404.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.svc.Transactions.List(r.Context(), currentUser(r), services.TransactionFilter{
		BudgetID:   QueryString(r, "budget_id"),
		AccountID:  QueryString(r, "account_id"),
		CategoryID: QueryString(r, "category_id"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(txns).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Transactions.Get(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(t).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in core.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	t, err := s.svc.Transactions.Update(r.Context(), currentUser(r), r.PathValue("id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	OK(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
