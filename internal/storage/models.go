package storage

import (
	"time"

	"github.com/uptrace/bun"

	"spenny/internal/core"
)

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,notnull"`
	Name         string    `bun:"name,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type budgetRecord struct {
	bun.BaseModel `bun:"table:budgets,alias:b"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	IsDefault bool      `bun:"is_default,notnull"`
	UserID    string    `bun:"user_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Amounts travel as decimal strings in both directions.
type accountRecord struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Type      string    `bun:"type,notnull"`
	Balance   string    `bun:"balance,notnull"`
	BudgetID  string    `bun:"budget_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type categoryRecord struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	Allocated string    `bun:"allocated,notnull"`
	BudgetID  string    `bun:"budget_id,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type transactionRecord struct {
	bun.BaseModel `bun:"table:transactions,alias:t"`

	ID         string    `bun:"id,pk"`
	Date       time.Time `bun:"date,notnull"`
	Payee      string    `bun:"payee,notnull"`
	Amount     string    `bun:"amount,notnull"`
	Note       *string   `bun:"note"`
	Cleared    bool      `bun:"cleared,notnull"`
	BudgetID   string    `bun:"budget_id,notnull"`
	AccountID  string    `bun:"account_id,notnull"`
	CategoryID *string   `bun:"category_id"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func newUserRecord(u core.User) *userRecord {
	return &userRecord{ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.UTC()}
}

func (r *userRecord) toDomain() core.User {
	return core.User{ID: r.ID, Email: r.Email, Name: r.Name, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt.UTC()}
}

func newBudgetRecord(b core.Budget) *budgetRecord {
	return &budgetRecord{ID: b.ID, Name: b.Name, IsDefault: b.IsDefault, UserID: b.UserID, CreatedAt: b.CreatedAt.UTC()}
}

func (r *budgetRecord) toDomain() core.Budget {
	return core.Budget{ID: r.ID, Name: r.Name, IsDefault: r.IsDefault, UserID: r.UserID, CreatedAt: r.CreatedAt.UTC()}
}

func newAccountRecord(a core.Account) *accountRecord {
	return &accountRecord{ID: a.ID, Name: a.Name, Type: a.Type, Balance: a.Balance.String(), BudgetID: a.BudgetID, CreatedAt: a.CreatedAt.UTC()}
}

func (r *accountRecord) toDomain() (core.Account, error) {
	balance, err := core.ParseMoney(r.Balance)
	if err != nil {
		return core.Account{}, err
	}
	return core.Account{ID: r.ID, Name: r.Name, Type: r.Type, Balance: balance, BudgetID: r.BudgetID, CreatedAt: r.CreatedAt.UTC()}, nil
}

func newCategoryRecord(c core.Category) *categoryRecord {
	return &categoryRecord{ID: c.ID, Name: c.Name, Allocated: c.Allocated.String(), BudgetID: c.BudgetID, CreatedAt: c.CreatedAt.UTC()}
}

func (r *categoryRecord) toDomain() (core.Category, error) {
	allocated, err := core.ParseMoney(r.Allocated)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{ID: r.ID, Name: r.Name, Allocated: allocated, BudgetID: r.BudgetID, CreatedAt: r.CreatedAt.UTC()}, nil
}

func newTransactionRecord(t core.Transaction) *transactionRecord {
	return &transactionRecord{
		ID:         t.ID,
		Date:       t.Date.Time,
		Payee:      t.Payee,
		Amount:     t.Amount.String(),
		Note:       t.Note,
		Cleared:    t.Cleared,
		BudgetID:   t.BudgetID,
		AccountID:  t.AccountID,
		CategoryID: t.CategoryID,
		CreatedAt:  t.CreatedAt.UTC(),
	}
}

func (r *transactionRecord) toDomain() (core.Transaction, error) {
	amount, err := core.ParseMoney(r.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:         r.ID,
		Date:       core.DateOf(r.Date),
		Payee:      r.Payee,
		Amount:     amount,
		Note:       r.Note,
		Cleared:    r.Cleared,
		BudgetID:   r.BudgetID,
		AccountID:  r.AccountID,
		CategoryID: r.CategoryID,
		CreatedAt:  r.CreatedAt.UTC(),
	}, nil
}
