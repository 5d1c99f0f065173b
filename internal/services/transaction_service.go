package services

import (
	"context"
	"strings"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// TransactionFilter narrows a transaction listing. Empty fields are ignored.
type TransactionFilter struct {
	BudgetID   string
	AccountID  string
	CategoryID string
}

type TransactionService struct {
	base
}

func NewTransactionService(d Deps) *TransactionService {
	return &TransactionService{base: newBase(d, spennylog.ComponentTransaction)}
}

// Create stores a transaction whose account, and category if any, belong to
// its budget. Nothing is written when the references disagree.
func (s *TransactionService) Create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	t := fromInput(in)
	t.ID = s.NewID()
	t.CreatedAt = s.now()

	var saved core.Transaction
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		if err := sc.guard.ValidateForeignKeys(ctx, userID, t.BudgetID, t.AccountID, categoryOf(t)); err != nil {
			return err
		}
		var err error
		saved, err = sc.store.CreateTransaction(ctx, t)
		return store.Classify(err, core.ResourceTransaction)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, core.ResourceTransaction, core.ActionCreated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	if _, err := s.Resolver.Authorize(ctx, core.ResourceTransaction, id, userID); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.Store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, store.Classify(err, core.ResourceTransaction)
	}
	return t, nil
}

// List returns the caller's transactions. Filtering by an account or
// category the caller does not own answers NotFound.
func (s *TransactionService) List(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	if f.AccountID != "" {
		if _, err := s.Resolver.Authorize(ctx, core.ResourceAccount, f.AccountID, userID); err != nil {
			return nil, err
		}
	}
	if f.CategoryID != "" {
		if _, err := s.Resolver.Authorize(ctx, core.ResourceCategory, f.CategoryID, userID); err != nil {
			return nil, err
		}
	}
	ids, err := scopeBudgets(ctx, s.base, userID, f.BudgetID)
	if err != nil {
		return nil, err
	}
	txns, err := s.Store.ListTransactions(ctx, store.TransactionFilter{
		BudgetIDs:  ids,
		AccountID:  f.AccountID,
		CategoryID: f.CategoryID,
	})
	if err != nil {
		return nil, store.Classify(err, core.ResourceTransaction)
	}
	return txns, nil
}

// Update re-validates the new budget first and then the account and
// category against it. The old budget is not checked again.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, invalid(err)
	}
	next := fromInput(in)
	next.ID = id

	var saved core.Transaction
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		if _, err := sc.resolver.Authorize(ctx, core.ResourceTransaction, id, userID); err != nil {
			return err
		}
		if err := sc.guard.ValidateForeignKeys(ctx, userID, next.BudgetID, next.AccountID, categoryOf(next)); err != nil {
			return err
		}
		current, err := sc.store.GetTransaction(ctx, id)
		if err != nil {
			return store.Classify(err, core.ResourceTransaction)
		}
		next.CreatedAt = current.CreatedAt

		saved, err = sc.store.UpdateTransaction(ctx, next)
		return store.Classify(err, core.ResourceTransaction)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	s.changed(ctx, core.ResourceTransaction, core.ActionUpdated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	var budgetID string
	err := s.atomically(ctx, userID, "", func(ctx context.Context, sc scope) error {
		var err error
		if budgetID, err = sc.resolver.Authorize(ctx, core.ResourceTransaction, id, userID); err != nil {
			return err
		}
		return store.Classify(sc.store.DeleteTransaction(ctx, id), core.ResourceTransaction)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, core.ResourceTransaction, core.ActionDeleted, id, userID, budgetID)
	return nil
}

func fromInput(in core.TransactionInput) core.Transaction {
	t := core.Transaction{
		Date:      in.Date,
		Payee:     strings.TrimSpace(in.Payee),
		Note:      in.Note,
		Cleared:   in.Cleared,
		BudgetID:  in.BudgetID,
		AccountID: in.AccountID,
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.HasCategory() {
		id := strings.TrimSpace(*in.CategoryID)
		t.CategoryID = &id
	}
	return t
}

func categoryOf(t core.Transaction) string {
	if t.CategoryID == nil {
		return ""
	}
	return *t.CategoryID
}
