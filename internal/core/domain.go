package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	ResourceUser        ResourceKind = "user"
	ResourceBudget      ResourceKind = "budget"
	ResourceAccount     ResourceKind = "account"
	ResourceCategory    ResourceKind = "category"
	ResourceTransaction ResourceKind = "transaction"
)

const maxNameLength = 200

type (
	// ResourceKind tags the entity collections that take part in the ownership chain.
	ResourceKind string

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Budget struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		IsDefault bool      `json:"is_default"`
		UserID    string    `json:"user_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	Account struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Type      string    `json:"type"`
		Balance   Money     `json:"balance"`
		BudgetID  string    `json:"budget_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Allocated Money     `json:"allocated"`
		BudgetID  string    `json:"budget_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	Transaction struct {
		ID         string    `json:"id"`
		Date       Date      `json:"date"`
		Payee      string    `json:"payee"`
		Amount     Money     `json:"amount"`
		Note       *string   `json:"note"`
		Cleared    bool      `json:"cleared"`
		BudgetID   string    `json:"budget_id"`
		AccountID  string    `json:"account_id"`
		CategoryID *string   `json:"category_id"`
		CreatedAt  time.Time `json:"created_at"`
	}

	BudgetInput struct {
		Name      string `json:"name"`
		IsDefault bool   `json:"is_default"`
	}

	AccountInput struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Balance  Money  `json:"balance"`
		BudgetID string `json:"budget_id"`
	}

	CategoryInput struct {
		Name      string `json:"name"`
		Allocated Money  `json:"allocated"`
		BudgetID  string `json:"budget_id"`
	}

	TransactionInput struct {
		Date       Date    `json:"date"`
		Payee      string  `json:"payee"`
		Amount     *Money  `json:"amount"`
		Note       *string `json:"note"`
		Cleared    bool    `json:"cleared"`
		BudgetID   string  `json:"budget_id"`
		AccountID  string  `json:"account_id"`
		CategoryID *string `json:"category_id"`
	}

	Registration struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrNameTooLong      = errors.New("name too long (max 200 characters)")
	ErrEmptyPayee       = errors.New("payee cannot be empty")
	ErrEmptyType        = errors.New("account type cannot be empty")
	ErrMissingBudget    = errors.New("budget_id is required")
	ErrMissingAccount   = errors.New("account_id is required")
	ErrMissingAmount    = errors.New("amount is required")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

func validateName(name string, empty error) error {
	if strings.TrimSpace(name) == "" {
		return empty
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (in BudgetInput) Validate() error {
	return validateName(in.Name, ErrEmptyName)
}

func (in AccountInput) Validate() error {
	if err := validateName(in.Name, ErrEmptyName); err != nil {
		return err
	}
	if strings.TrimSpace(in.Type) == "" {
		return ErrEmptyType
	}
	if strings.TrimSpace(in.BudgetID) == "" {
		return ErrMissingBudget
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if err := validateName(in.Name, ErrEmptyName); err != nil {
		return err
	}
	if strings.TrimSpace(in.BudgetID) == "" {
		return ErrMissingBudget
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(in.Payee, ErrEmptyPayee); err != nil {
		return err
	}
	if in.Amount == nil {
		return ErrMissingAmount
	}
	if strings.TrimSpace(in.BudgetID) == "" {
		return ErrMissingBudget
	}
	if strings.TrimSpace(in.AccountID) == "" {
		return ErrMissingAccount
	}
	return nil
}

// HasCategory reports whether a category reference was supplied. An empty
// string counts as omitted.
func (in TransactionInput) HasCategory() bool {
	return in.CategoryID != nil && strings.TrimSpace(*in.CategoryID) != ""
}

func (c Credentials) Validate() error {
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(c.Password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

func (r Registration) Validate() error {
	if err := (Credentials{Email: r.Email, Password: r.Password}).Validate(); err != nil {
		return err
	}
	return validateName(r.Name, ErrEmptyName)
}

// NormalizeEmail lowercases and trims an address so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
