package services

import (
	"context"
	"errors"
	"strings"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

type AccountService struct {
	base
}

func NewAccountService(d Deps) *AccountService {
	return &AccountService{base: newBase(d, spennylog.ComponentAccount)}
}

func (s *AccountService) Create(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	if err := in.Validate(); err != nil {
		return core.Account{}, invalid(err)
	}
	a := core.Account{
		ID:        s.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Type:      strings.TrimSpace(in.Type),
		Balance:   amountOrZero(in.Balance),
		BudgetID:  in.BudgetID,
		CreatedAt: s.now(),
	}

	var saved core.Account
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		if err := sc.guard.ValidateForeignKeys(ctx, userID, in.BudgetID, "", ""); err != nil {
			return err
		}
		var err error
		saved, err = sc.store.CreateAccount(ctx, a)
		return store.Classify(err, core.ResourceAccount)
	})
	if err != nil {
		return core.Account{}, err
	}
	s.changed(ctx, core.ResourceAccount, core.ActionCreated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (core.Account, error) {
	if _, err := s.Resolver.Authorize(ctx, core.ResourceAccount, id, userID); err != nil {
		return core.Account{}, err
	}
	a, err := s.Store.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, store.Classify(err, core.ResourceAccount)
	}
	return a, nil
}

// List returns the caller's accounts, limited to budgetID when given.
func (s *AccountService) List(ctx context.Context, userID, budgetID string) ([]core.Account, error) {
	ids, err := scopeBudgets(ctx, s.base, userID, budgetID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.Store.ListAccounts(ctx, store.AccountFilter{BudgetIDs: ids})
	if err != nil {
		return nil, store.Classify(err, core.ResourceAccount)
	}
	return accounts, nil
}

// Update rewrites an account. Moving it to another budget is refused while
// transactions still reference it.
func (s *AccountService) Update(ctx context.Context, userID, id string, in core.AccountInput) (core.Account, error) {
	if err := in.Validate(); err != nil {
		return core.Account{}, invalid(err)
	}

	var saved core.Account
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		currentBudget, err := sc.resolver.Authorize(ctx, core.ResourceAccount, id, userID)
		if err != nil {
			return err
		}
		if err := sc.guard.ValidateForeignKeys(ctx, userID, in.BudgetID, "", ""); err != nil {
			return err
		}
		if in.BudgetID != currentBudget {
			n, err := sc.store.CountTransactions(ctx, store.TransactionFilter{BudgetIDs: []string{currentBudget}, AccountID: id})
			if err != nil {
				return store.Classify(err, core.ResourceTransaction)
			}
			if n > 0 {
				return core.Rejected("account has transactions and cannot change budget")
			}
		}
		current, err := sc.store.GetAccount(ctx, id)
		if err != nil {
			return store.Classify(err, core.ResourceAccount)
		}
		current.Name = strings.TrimSpace(in.Name)
		current.Type = strings.TrimSpace(in.Type)
		current.Balance = amountOrZero(in.Balance)
		current.BudgetID = in.BudgetID

		saved, err = sc.store.UpdateAccount(ctx, current)
		return store.Classify(err, core.ResourceAccount)
	})
	if err != nil {
		return core.Account{}, err
	}
	s.changed(ctx, core.ResourceAccount, core.ActionUpdated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	var budgetID string
	err := s.atomically(ctx, userID, "", func(ctx context.Context, sc scope) error {
		var err error
		if budgetID, err = sc.resolver.Authorize(ctx, core.ResourceAccount, id, userID); err != nil {
			return err
		}
		err = sc.store.DeleteAccount(ctx, id)
		if errors.Is(err, store.ErrReferenced) {
			return core.Rejected("account is referenced by transactions")
		}
		return store.Classify(err, core.ResourceAccount)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, core.ResourceAccount, core.ActionDeleted, id, userID, budgetID)
	return nil
}

// scopeBudgets resolves the budgets a list query may see: just budgetID
// when the caller owns it, otherwise all of the caller's budgets.
func scopeBudgets(ctx context.Context, b base, userID, budgetID string) ([]string, error) {
	if budgetID != "" {
		if _, err := b.Resolver.Authorize(ctx, core.ResourceBudget, budgetID, userID); err != nil {
			return nil, err
		}
		return []string{budgetID}, nil
	}
	return userBudgetIDs(ctx, b.Store, userID)
}

// amountOrZero gives omitted amounts their two-decimal zero.
func amountOrZero(m core.Money) core.Money {
	if m.Decimal.IsZero() {
		return core.Zero
	}
	return m
}
