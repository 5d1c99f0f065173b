package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"spenny/internal/auth"
	"spenny/internal/core"
	"spenny/internal/store"
	"spenny/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type env struct {
	store        *memory.Store
	events       *recordingPublisher
	budgets      *BudgetService
	accounts     *AccountService
	categories   *CategoryService
	transactions *TransactionService
	alice, bob   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	s := memory.New()
	events := &recordingPublisher{}
	deps := NewDeps(s, events, nil)
	return env{
		store:        s,
		events:       events,
		budgets:      NewBudgetService(deps),
		accounts:     NewAccountService(deps),
		categories:   NewCategoryService(deps),
		transactions: NewTransactionService(deps),
		alice:        "11111111-1111-4111-8111-111111111111",
		bob:          "22222222-2222-4222-8222-222222222222",
	}
}

func (e env) budget(t *testing.T, user, name string, isDefault bool) core.Budget {
	t.Helper()
	b, err := e.budgets.Create(context.Background(), user, core.BudgetInput{Name: name, IsDefault: isDefault})
	if err != nil {
		t.Fatalf("create budget %s: %v", name, err)
	}
	return b
}

func (e env) account(t *testing.T, user, budgetID string) core.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), user, core.AccountInput{Name: "Checking", Type: "checking", BudgetID: budgetID})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (e env) category(t *testing.T, user, budgetID string) core.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), user, core.CategoryInput{Name: "Food", BudgetID: budgetID})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func txnInput(budgetID, accountID string, categoryID *string) core.TransactionInput {
	amount := core.MustParseMoney("-12.30")
	return core.TransactionInput{
		Date:       core.NewDate(2024, 6, 1),
		Payee:      "Market",
		Amount:     &amount,
		BudgetID:   budgetID,
		AccountID:  accountID,
		CategoryID: categoryID,
	}
}

func TestDefaultBudgetSwap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	groceries := e.budget(t, e.alice, "Groceries", true)
	travel := e.budget(t, e.alice, "Travel", true)

	g, _ := e.budgets.Get(ctx, e.alice, groceries.ID)
	tr, _ := e.budgets.Get(ctx, e.alice, travel.ID)
	if g.IsDefault || !tr.IsDefault {
		t.Fatalf("Groceries default=%v Travel default=%v", g.IsDefault, tr.IsDefault)
	}

	yes := true
	defaults, err := e.budgets.List(ctx, e.alice, &yes)
	if err != nil || len(defaults) != 1 || defaults[0].ID != travel.ID {
		t.Fatalf("defaults = %+v err=%v", defaults, err)
	}

	if _, err := e.budgets.Update(ctx, e.alice, groceries.ID, core.BudgetInput{Name: "Groceries", IsDefault: true}); err != nil {
		t.Fatalf("update: %v", err)
	}
	defaults, _ = e.budgets.List(ctx, e.alice, &yes)
	if len(defaults) != 1 || defaults[0].ID != groceries.ID {
		t.Fatalf("after update defaults = %+v", defaults)
	}

	var swaps int
	for _, typ := range e.events.types() {
		if typ == "budget.default_changed" {
			swaps++
		}
	}
	if swaps != 3 {
		t.Fatalf("expected 3 default_changed events, got %d (%v)", swaps, e.events.types())
	}
}

func TestForeignAccessIsNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b := e.budget(t, e.alice, "Home", false)
	a := e.account(t, e.alice, b.ID)
	txn, err := e.transactions.Create(ctx, e.alice, txnInput(b.ID, a.ID, nil))
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	_, foreign := e.transactions.Get(ctx, e.bob, txn.ID)
	_, missing := e.transactions.Get(ctx, e.bob, "33333333-3333-4333-8333-333333333333")
	if !core.Is(foreign, core.KindNotFound) || !core.Is(missing, core.KindNotFound) {
		t.Fatalf("foreign=%v missing=%v", foreign, missing)
	}
	if core.Message(foreign) != core.Message(missing) {
		t.Fatalf("messages differ: %q vs %q", core.Message(foreign), core.Message(missing))
	}

	if _, err := e.budgets.Update(ctx, e.bob, b.ID, core.BudgetInput{Name: "Mine"}); !core.Is(err, core.KindNotFound) {
		t.Fatalf("foreign budget update: %v", err)
	}
	if err := e.accounts.Delete(ctx, e.bob, a.ID); !core.Is(err, core.KindNotFound) {
		t.Fatalf("foreign account delete: %v", err)
	}
	if _, err := e.accounts.List(ctx, e.bob, b.ID); !core.Is(err, core.KindNotFound) {
		t.Fatalf("foreign budget filter: %v", err)
	}
	if list, err := e.transactions.List(ctx, e.bob, TransactionFilter{}); err != nil || len(list) != 0 {
		t.Fatalf("bob should see nothing: %+v err=%v", list, err)
	}
}

func TestTransactionReferencesMustMatchBudget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.budget(t, e.alice, "P", false)
	q := e.budget(t, e.alice, "Q", false)
	x := e.account(t, e.alice, p.ID)
	catP := e.category(t, e.alice, p.ID)
	catQ := e.category(t, e.alice, q.ID)

	tests := []struct {
		name     string
		in       core.TransactionInput
		wantKind core.Kind
	}{
		{"matching account", txnInput(p.ID, x.ID, nil), 0},
		{"matching category", txnInput(p.ID, x.ID, &catP.ID), 0},
		{"empty category counts as omitted", txnInput(p.ID, x.ID, new(string)), 0},
		{"account from other budget", txnInput(q.ID, x.ID, nil), core.KindRejected},
		{"category from other budget", txnInput(p.ID, x.ID, &catQ.ID), core.KindRejected},
		{"budget of other user", txnInput(p.ID, x.ID, nil), core.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := e.alice
			if tt.name == "budget of other user" {
				user = e.bob
			}
			before, _ := e.store.CountTransactions(ctx, store.TransactionFilter{BudgetIDs: []string{p.ID, q.ID}})

			_, err := e.transactions.Create(ctx, user, tt.in)

			after, _ := e.store.CountTransactions(ctx, store.TransactionFilter{BudgetIDs: []string{p.ID, q.ID}})
			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if after != before+1 {
					t.Fatalf("expected one new row, before=%d after=%d", before, after)
				}
				return
			}
			if !core.Is(err, tt.wantKind) {
				t.Fatalf("want %v, got %v", tt.wantKind, err)
			}
			if after != before {
				t.Fatalf("row persisted despite rejection: before=%d after=%d", before, after)
			}
		})
	}
}

func TestTransactionUpdateMovesBudget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.budget(t, e.alice, "P", false)
	q := e.budget(t, e.alice, "Q", false)
	xp := e.account(t, e.alice, p.ID)
	xq := e.account(t, e.alice, q.ID)

	txn, err := e.transactions.Create(ctx, e.alice, txnInput(p.ID, xp.ID, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := e.transactions.Update(ctx, e.alice, txn.ID, txnInput(q.ID, xp.ID, nil)); !core.Is(err, core.KindRejected) {
		t.Fatalf("stale account after move: want Rejected, got %v", err)
	}
	moved, err := e.transactions.Update(ctx, e.alice, txn.ID, txnInput(q.ID, xq.ID, nil))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.BudgetID != q.ID || !moved.CreatedAt.Equal(txn.CreatedAt) {
		t.Fatalf("unexpected moved transaction: %+v", moved)
	}
}

func TestAccountBalanceRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	b := e.budget(t, e.alice, "Home", false)

	a, err := e.accounts.Create(ctx, e.alice, core.AccountInput{Name: "Savings", Type: "savings", Balance: core.MustParseMoney("123.45"), BudgetID: b.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := e.accounts.Get(ctx, e.alice, a.ID)
	if err != nil || got.Balance.String() != "123.45" {
		t.Fatalf("balance = %s err=%v", got.Balance.String(), err)
	}

	empty := e.account(t, e.alice, b.ID)
	if empty.Balance.StringFixed(2) != "0.00" {
		t.Fatalf("default balance = %s", empty.Balance.String())
	}
}

func TestDeleteRestrictions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	p := e.budget(t, e.alice, "P", false)
	q := e.budget(t, e.alice, "Q", false)
	a := e.account(t, e.alice, p.ID)
	c := e.category(t, e.alice, p.ID)
	txn, err := e.transactions.Create(ctx, e.alice, txnInput(p.ID, a.ID, &c.ID))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.budgets.Delete(ctx, e.alice, p.ID); !core.Is(err, core.KindRejected) {
		t.Fatalf("budget with children: want Rejected, got %v", err)
	}
	if err := e.accounts.Delete(ctx, e.alice, a.ID); !core.Is(err, core.KindRejected) {
		t.Fatalf("referenced account: want Rejected, got %v", err)
	}
	if _, err := e.accounts.Update(ctx, e.alice, a.ID, core.AccountInput{Name: "A", Type: "t", BudgetID: q.ID}); !core.Is(err, core.KindRejected) {
		t.Fatalf("moving referenced account: want Rejected, got %v", err)
	}
	if _, err := e.categories.Update(ctx, e.alice, c.ID, core.CategoryInput{Name: "C", BudgetID: q.ID}); !core.Is(err, core.KindRejected) {
		t.Fatalf("moving referenced category: want Rejected, got %v", err)
	}

	if err := e.transactions.Delete(ctx, e.alice, txn.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := e.accounts.Update(ctx, e.alice, a.ID, core.AccountInput{Name: "A", Type: "t", BudgetID: q.ID}); err != nil {
		t.Fatalf("move free account: %v", err)
	}
	if err := e.categories.Delete(ctx, e.alice, c.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if err := e.budgets.Delete(ctx, e.alice, p.ID); err != nil {
		t.Fatalf("delete empty budget: %v", err)
	}
	if _, err := e.budgets.Get(ctx, e.alice, p.ID); !core.Is(err, core.KindNotFound) {
		t.Fatalf("deleted budget: want NotFound, got %v", err)
	}
}

func TestValidationIsRejected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	if _, err := e.budgets.Create(ctx, e.alice, core.BudgetInput{Name: "  "}); !core.Is(err, core.KindRejected) {
		t.Fatalf("empty name: %v", err)
	}
	if _, err := e.transactions.Create(ctx, e.alice, core.TransactionInput{Payee: "x"}); !core.Is(err, core.KindRejected) {
		t.Fatalf("missing date: %v", err)
	}

	b := e.budget(t, e.alice, "Home", false)
	a := e.account(t, e.alice, b.ID)
	noAmount := txnInput(b.ID, a.ID, nil)
	noAmount.Amount = nil
	_, err := e.transactions.Create(ctx, e.alice, noAmount)
	if !core.Is(err, core.KindRejected) || core.Message(err) != "amount is required" {
		t.Fatalf("missing amount: %v", err)
	}
	if n, _ := e.store.CountTransactions(ctx, store.TransactionFilter{BudgetIDs: []string{b.ID}}); n != 0 {
		t.Fatalf("transaction stored without amount: %d rows", n)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	e := newEnv(t)
	e.events.err = errors.New("broker down")

	if _, err := e.budgets.Create(context.Background(), e.alice, core.BudgetInput{Name: "Home"}); err != nil {
		t.Fatalf("create should succeed: %v", err)
	}
}

func TestTransactionListFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	b := e.budget(t, e.alice, "Home", false)
	a1 := e.account(t, e.alice, b.ID)
	a2 := e.account(t, e.alice, b.ID)
	c := e.category(t, e.alice, b.ID)
	e.transactions.Create(ctx, e.alice, txnInput(b.ID, a1.ID, &c.ID))
	e.transactions.Create(ctx, e.alice, txnInput(b.ID, a2.ID, nil))

	byAccount, err := e.transactions.List(ctx, e.alice, TransactionFilter{AccountID: a2.ID})
	if err != nil || len(byAccount) != 1 || byAccount[0].AccountID != a2.ID {
		t.Fatalf("by account: %+v err=%v", byAccount, err)
	}
	byCategory, err := e.transactions.List(ctx, e.alice, TransactionFilter{BudgetID: b.ID, CategoryID: c.ID})
	if err != nil || len(byCategory) != 1 {
		t.Fatalf("by category: %+v err=%v", byCategory, err)
	}
	if _, err := e.transactions.List(ctx, e.bob, TransactionFilter{AccountID: a1.ID}); !core.Is(err, core.KindNotFound) {
		t.Fatalf("foreign account filter: want NotFound, got %v", err)
	}
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	users := memory.New()
	tokens, err := auth.NewTokens("secret", "HS256", time.Minute)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	svc := NewUserService(users, tokens, auth.NewPasswords(4), nil)
	verifier := auth.NewVerifier(tokens, users)

	tok, err := svc.Register(ctx, core.Registration{Email: "Ada@Example.com", Name: "Ada", Password: "password1"})
	if err != nil || tok.TokenType != "bearer" {
		t.Fatalf("register: %+v err=%v", tok, err)
	}
	userID, err := verifier.Verify(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := svc.Register(ctx, core.Registration{Email: "ada@example.com", Name: "Ada", Password: "password1"}); !core.Is(err, core.KindRejected) {
		t.Fatalf("duplicate email: want Rejected, got %v", err)
	}
	if _, err := svc.Register(ctx, core.Registration{Email: "bad", Name: "X", Password: "password1"}); !core.Is(err, core.KindRejected) {
		t.Fatalf("bad email: want Rejected, got %v", err)
	}

	if _, err := svc.Login(ctx, core.Credentials{Email: "ada@example.com", Password: "password1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	_, wrongPassword := svc.Login(ctx, core.Credentials{Email: "ada@example.com", Password: "nope-nope"})
	_, unknownEmail := svc.Login(ctx, core.Credentials{Email: "who@example.com", Password: "password1"})
	if !core.Is(wrongPassword, core.KindUnauthenticated) || core.Message(wrongPassword) != core.Message(unknownEmail) {
		t.Fatalf("login failures should look alike: %v / %v", wrongPassword, unknownEmail)
	}

	me, err := svc.Get(ctx, userID, userID)
	if err != nil || me.Email != "ada@example.com" {
		t.Fatalf("profile: %+v err=%v", me, err)
	}
	if _, err := svc.Get(ctx, userID, "someone-else"); !core.Is(err, core.KindNotFound) {
		t.Fatalf("other profile: want NotFound, got %v", err)
	}
}
