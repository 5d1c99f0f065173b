// Package memory is an in-process entity store. Each call is atomic on a
// single row and nothing more, which matches the weakest store the core is
// expected to run against; it does not implement store.TxRunner.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"spenny/internal/core"
	"spenny/internal/store"
)

type Store struct {
	mu           sync.Mutex
	users        map[string]core.User
	budgets      map[string]core.Budget
	accounts     map[string]core.Account
	categories   map[string]core.Category
	transactions map[string]core.Transaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        make(map[string]core.User),
		budgets:      make(map[string]core.Budget),
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, store.ErrConflict
		}
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetBudget(_ context.Context, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, f store.BudgetFilter) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if f.UserID != "" && b.UserID != f.UserID {
			continue
		}
		if f.IsDefault != nil && b.IsDefault != *f.IsDefault {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.budgets[b.ID]
	if !ok {
		return core.Budget{}, store.ErrNotFound
	}
	b.UserID = current.UserID
	b.CreatedAt = current.CreatedAt
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return store.ErrNotFound
	}
	for _, a := range s.accounts {
		if a.BudgetID == id {
			return store.ErrReferenced
		}
	}
	for _, c := range s.categories {
		if c.BudgetID == id {
			return store.ErrReferenced
		}
	}
	for _, t := range s.transactions {
		if t.BudgetID == id {
			return store.ErrReferenced
		}
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ClearDefaultBudgets(_ context.Context, userID, exceptID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, b := range s.budgets {
		if b.UserID != userID || id == exceptID || !b.IsDefault {
			continue
		}
		b.IsDefault = false
		s.budgets[id] = b
		changed++
	}
	return changed, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, f store.AccountFilter) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Account, 0)
	for _, a := range s.accounts {
		if slices.Contains(f.BudgetIDs, a.BudgetID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) CountAccounts(ctx context.Context, f store.AccountFilter) (int, error) {
	items, err := s.ListAccounts(ctx, f)
	return len(items), err
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.accounts[a.ID]
	if !ok {
		return core.Account{}, store.ErrNotFound
	}
	a.CreatedAt = current.CreatedAt
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return store.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.AccountID == id {
			return store.ErrReferenced
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, store.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, f store.CategoryFilter) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if slices.Contains(f.BudgetIDs, c.BudgetID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return createdBefore(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) CountCategories(ctx context.Context, f store.CategoryFilter) (int, error) {
	items, err := s.ListCategories(ctx, f)
	return len(items), err
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.categories[c.ID]
	if !ok {
		return core.Category{}, store.ErrNotFound
	}
	c.CreatedAt = current.CreatedAt
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	for _, t := range s.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			return store.ErrReferenced
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.transactions {
		if !slices.Contains(f.BudgetIDs, t.BudgetID) {
			continue
		}
		if f.AccountID != "" && t.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
			continue
		}
		out = append(out, t)
	}
	// Newest day first, then insertion order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return createdBefore(out[i].CreatedAt.UnixNano(), out[j].CreatedAt.UnixNano(), out[i].ID, out[j].ID)
	})
	return out, nil
}

func (s *Store) CountTransactions(ctx context.Context, f store.TransactionFilter) (int, error) {
	items, err := s.ListTransactions(ctx, f)
	return len(items), err
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.transactions[t.ID]
	if !ok {
		return core.Transaction{}, store.ErrNotFound
	}
	t.CreatedAt = current.CreatedAt
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func createdBefore(a, b int64, idA, idB string) bool {
	if a != b {
		return a < b
	}
	return idA < idB
}
