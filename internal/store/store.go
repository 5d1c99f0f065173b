// Package store declares the entity store contract the core depends on.
//
// Implementations offer point lookups by primary key, equality and IN
// filtered listing, insert/update returning the stored row, and delete by ID
// over the users, budgets, accounts, categories and transactions collections.
// A single call is atomic on one row; nothing spanning several calls is,
// unless the implementation also satisfies TxRunner.
package store

import (
	"context"
	"errors"

	"spenny/internal/core"
)

var (
	// ErrNotFound is returned by point lookups, updates and deletes that match no row.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("store: unique constraint violated")
	// ErrReferenced is returned when a delete is refused because other rows
	// still point at the record.
	ErrReferenced = errors.New("store: record still referenced")
)

type (
	BudgetFilter struct {
		UserID    string
		IsDefault *bool
	}

	// AccountFilter restricts by owning budget. An empty BudgetIDs matches nothing.
	AccountFilter struct {
		BudgetIDs []string
	}

	// CategoryFilter restricts by owning budget. An empty BudgetIDs matches nothing.
	CategoryFilter struct {
		BudgetIDs []string
	}

	// TransactionFilter restricts by owning budget and, optionally, by account
	// and category. An empty BudgetIDs matches nothing.
	TransactionFilter struct {
		BudgetIDs  []string
		AccountID  string
		CategoryID string
	}
)

// Ports for the entity store collections.
type (
	UserStore interface {
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
	}

	BudgetStore interface {
		GetBudget(ctx context.Context, id string) (core.Budget, error)
		ListBudgets(ctx context.Context, f BudgetFilter) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, id string) error
		// ClearDefaultBudgets sets is_default=false on every budget of userID
		// except exceptID (which may be empty) and returns the rows changed.
		ClearDefaultBudgets(ctx context.Context, userID, exceptID string) (int64, error)
	}

	AccountStore interface {
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context, f AccountFilter) ([]core.Account, error)
		CountAccounts(ctx context.Context, f AccountFilter) (int, error)
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
		DeleteAccount(ctx context.Context, id string) error
	}

	CategoryStore interface {
		GetCategory(ctx context.Context, id string) (core.Category, error)
		ListCategories(ctx context.Context, f CategoryFilter) ([]core.Category, error)
		CountCategories(ctx context.Context, f CategoryFilter) (int, error)
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
	}

	TransactionStore interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		CountTransactions(ctx context.Context, f TransactionFilter) (int, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Store is the full entity store.
	Store interface {
		UserStore
		BudgetStore
		AccountStore
		CategoryStore
		TransactionStore
		Ping(ctx context.Context) error
	}

	// TxRunner is implemented by stores that can run several calls as one
	// multi-row transaction. fn receives a Store bound to the transaction.
	TxRunner interface {
		RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	}
)

// Atomic runs fn inside a transaction when s supports one and directly
// otherwise. It reports whether the sequence ran atomically.
func Atomic(ctx context.Context, s Store, fn func(ctx context.Context, tx Store) error) (bool, error) {
	if runner, ok := s.(TxRunner); ok {
		return true, runner.RunInTx(ctx, fn)
	}
	return false, fn(ctx, s)
}

// Classify maps a store failure for a row of the given kind onto the core
// error kinds. Errors that already carry a kind pass through.
func Classify(err error, kind core.ResourceKind) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return core.NotFound(kind)
	case errors.Is(err, ErrConflict):
		return core.Rejected(string(kind) + " already exists")
	case errors.Is(err, ErrReferenced):
		return core.Rejected(string(kind) + " is still referenced")
	}
	if core.HasKind(err) {
		return err
	}
	if core.KindOf(err) == core.KindUnavailable {
		return core.Unavailable(err)
	}
	return core.Internal(err)
}
