package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"spenny/internal/core"
	"spenny/internal/store"
)

func TestBudgetListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.CreateBudget(ctx, core.Budget{ID: "b2", Name: "Travel", UserID: "u1", CreatedAt: base.Add(time.Minute)})
	s.CreateBudget(ctx, core.Budget{ID: "b1", Name: "Groceries", UserID: "u1", IsDefault: true, CreatedAt: base})
	s.CreateBudget(ctx, core.Budget{ID: "b3", Name: "Other", UserID: "u2", IsDefault: true, CreatedAt: base})

	all, err := s.ListBudgets(ctx, store.BudgetFilter{UserID: "u1"})
	if err != nil || len(all) != 2 || all[0].ID != "b1" || all[1].ID != "b2" {
		t.Fatalf("unexpected list: %+v err=%v", all, err)
	}

	yes := true
	defaults, _ := s.ListBudgets(ctx, store.BudgetFilter{UserID: "u1", IsDefault: &yes})
	if len(defaults) != 1 || defaults[0].ID != "b1" {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}
}

func TestClearDefaultBudgetsScopedToUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateBudget(ctx, core.Budget{ID: "a", UserID: "u1", IsDefault: true})
	s.CreateBudget(ctx, core.Budget{ID: "b", UserID: "u1", IsDefault: true})
	s.CreateBudget(ctx, core.Budget{ID: "c", UserID: "u2", IsDefault: true})

	n, err := s.ClearDefaultBudgets(ctx, "u1", "b")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row changed, got %d err=%v", n, err)
	}
	a, _ := s.GetBudget(ctx, "a")
	b, _ := s.GetBudget(ctx, "b")
	c, _ := s.GetBudget(ctx, "c")
	if a.IsDefault || !b.IsDefault || !c.IsDefault {
		t.Fatalf("unexpected flags a=%v b=%v c=%v", a.IsDefault, b.IsDefault, c.IsDefault)
	}
}

func TestEmptyBudgetIDsMatchNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.CreateAccount(ctx, core.Account{ID: "a1", BudgetID: "b1"})
	items, err := s.ListAccounts(ctx, store.AccountFilter{})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no accounts, got %+v err=%v", items, err)
	}
	n, _ := s.CountAccounts(ctx, store.AccountFilter{BudgetIDs: []string{"b1"}})
	if n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}
}

func TestTransactionFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat := "c1"
	s.CreateTransaction(ctx, core.Transaction{ID: "t1", BudgetID: "b1", AccountID: "a1", CategoryID: &cat, Date: core.NewDate(2024, 1, 1)})
	s.CreateTransaction(ctx, core.Transaction{ID: "t2", BudgetID: "b1", AccountID: "a2", Date: core.NewDate(2024, 2, 1)})
	s.CreateTransaction(ctx, core.Transaction{ID: "t3", BudgetID: "b2", AccountID: "a1", Date: core.NewDate(2024, 3, 1)})

	tests := []struct {
		name   string
		filter store.TransactionFilter
		want   []string
	}{
		{"budget only", store.TransactionFilter{BudgetIDs: []string{"b1"}}, []string{"t2", "t1"}},
		{"account", store.TransactionFilter{BudgetIDs: []string{"b1", "b2"}, AccountID: "a1"}, []string{"t3", "t1"}},
		{"category", store.TransactionFilter{BudgetIDs: []string{"b1"}, CategoryID: "c1"}, []string{"t1"}},
		{"no budgets", store.TransactionFilter{AccountID: "a1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("row %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestDeleteRestrictions(t *testing.T) {
	ctx := context.Background()
	s := New()
	cat := "c1"
	s.CreateBudget(ctx, core.Budget{ID: "b1", UserID: "u1"})
	s.CreateAccount(ctx, core.Account{ID: "a1", BudgetID: "b1"})
	s.CreateCategory(ctx, core.Category{ID: "c1", BudgetID: "b1"})
	s.CreateTransaction(ctx, core.Transaction{ID: "t1", BudgetID: "b1", AccountID: "a1", CategoryID: &cat})

	if err := s.DeleteBudget(ctx, "b1"); !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("budget delete: want ErrReferenced, got %v", err)
	}
	if err := s.DeleteAccount(ctx, "a1"); !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("account delete: want ErrReferenced, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "c1"); !errors.Is(err, store.ErrReferenced) {
		t.Fatalf("category delete: want ErrReferenced, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("transaction delete: %v", err)
	}
	if err := s.DeleteAccount(ctx, "a1"); err != nil {
		t.Fatalf("account delete after transaction removed: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "t1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestUsersUniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.CreateUser(ctx, core.User{ID: "u1", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{ID: "u2", Email: "A@example.com"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || u.ID != "u1" {
		t.Fatalf("lookup: %+v err=%v", u, err)
	}
	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateKeepsOwnerAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s.CreateBudget(ctx, core.Budget{ID: "b1", Name: "Old", UserID: "u1", CreatedAt: created})
	got, err := s.UpdateBudget(ctx, core.Budget{ID: "b1", Name: "New", UserID: "intruder"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "New" || got.UserID != "u1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected update result: %+v", got)
	}
	if _, err := s.UpdateBudget(ctx, core.Budget{ID: "nope"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
