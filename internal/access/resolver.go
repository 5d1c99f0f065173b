// Package access answers "may this user touch this row" for every entity
// below a budget, and keeps foreign keys and the default-budget flag
// consistent on writes.
//
// Absent rows and rows owned by someone else are both reported as NotFound.
// Callers must not distinguish the two.
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"spenny/internal/cache"
	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// Lookup is the subset of the entity store the resolver reads from.
type Lookup interface {
	GetBudget(ctx context.Context, id string) (core.Budget, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
}

// Resolver walks resource -> budget -> user.
type Resolver struct {
	lookup Lookup
	owners cache.Cache[string]
	logger *slog.Logger
}

type ResolverOption func(*Resolver)

// WithOwnerCache remembers budget owners. A budget never changes owner, so
// the only invalidation needed is Forget on delete.
func WithOwnerCache(c cache.Cache[string]) ResolverOption {
	return func(r *Resolver) { r.owners = c }
}

func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{lookup: lookup, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind returns a resolver reading through lookup, typically a store bound to
// a transaction. The owner cache is shared.
func (r *Resolver) Bind(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup, owners: r.owners, logger: r.logger}
}

// ResolveOwner returns the budget that owns the resource.
func (r *Resolver) ResolveOwner(ctx context.Context, kind core.ResourceKind, id string) (string, error) {
	if !validID(id) {
		return "", core.NotFound(kind)
	}
	var (
		budgetID string
		err      error
	)
	switch kind {
	case core.ResourceBudget:
		var b core.Budget
		b, err = r.lookup.GetBudget(ctx, id)
		budgetID = b.ID
		if err == nil && r.owners != nil {
			r.owners.Set(b.ID, b.UserID)
		}
	case core.ResourceAccount:
		var a core.Account
		a, err = r.lookup.GetAccount(ctx, id)
		budgetID = a.BudgetID
	case core.ResourceCategory:
		var c core.Category
		c, err = r.lookup.GetCategory(ctx, id)
		budgetID = c.BudgetID
	case core.ResourceTransaction:
		var t core.Transaction
		t, err = r.lookup.GetTransaction(ctx, id)
		budgetID = t.BudgetID
	default:
		return "", core.Internal(errors.New("no ownership chain for " + string(kind)))
	}
	if err != nil {
		return "", store.Classify(err, kind)
	}
	return budgetID, nil
}

// IsOwnedBy reports whether userID transitively owns the resource. Missing
// rows yield false without an error; store failures are returned.
func (r *Resolver) IsOwnedBy(ctx context.Context, kind core.ResourceKind, id, userID string) (bool, error) {
	_, err := r.Authorize(ctx, kind, id, userID)
	switch {
	case err == nil:
		return true, nil
	case core.Is(err, core.KindNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Authorize returns the owning budget ID when userID owns the resource and
// NotFound for kind otherwise.
func (r *Resolver) Authorize(ctx context.Context, kind core.ResourceKind, id, userID string) (string, error) {
	budgetID, err := r.ResolveOwner(ctx, kind, id)
	if err != nil {
		return "", err
	}
	owner, err := r.budgetOwner(ctx, budgetID)
	if err != nil {
		if core.Is(err, core.KindNotFound) {
			return "", core.NotFound(kind)
		}
		return "", err
	}
	if owner != userID {
		r.logger.DebugContext(ctx, "Ownership check failed",
			spennylog.FieldComponent, spennylog.ComponentAccess,
			spennylog.FieldOperation, spennylog.OpAuthorize,
			spennylog.FieldResource, string(kind),
			spennylog.FieldResourceID, id,
			spennylog.FieldUserID, userID)
		return "", core.NotFound(kind)
	}
	return budgetID, nil
}

// Forget drops a cached budget owner. Called after a budget is deleted.
func (r *Resolver) Forget(budgetID string) {
	if r.owners != nil {
		r.owners.Delete(budgetID)
	}
}

func (r *Resolver) budgetOwner(ctx context.Context, budgetID string) (string, error) {
	if r.owners != nil {
		if owner, ok := r.owners.Get(budgetID); ok {
			return owner, nil
		}
	}
	b, err := r.lookup.GetBudget(ctx, budgetID)
	if err != nil {
		return "", store.Classify(err, core.ResourceBudget)
	}
	if r.owners != nil {
		r.owners.Set(b.ID, b.UserID)
	}
	return b.UserID, nil
}

// validID rejects identifiers that could never have been issued.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
