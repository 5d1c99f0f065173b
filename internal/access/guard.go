package access

import (
	"context"
	"errors"
	"strings"

	"spenny/internal/core"
	"spenny/internal/store"
)

const (
	ReasonAccountNotInBudget  = "account not in budget"
	ReasonCategoryNotInBudget = "category not in budget"
)

// Guard checks that the foreign keys of a write agree with each other and
// belong to the caller.
type Guard struct {
	resolver *Resolver
	lookup   Lookup
}

func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver, lookup: resolver.lookup}
}

// Bind returns a guard reading through lookup.
func (g *Guard) Bind(lookup Lookup) *Guard {
	return &Guard{resolver: g.resolver.Bind(lookup), lookup: lookup}
}

// ValidateForeignKeys applies, in order and stopping at the first failure:
// the budget must belong to userID (NotFound), the account if given must
// sit in that budget (Rejected), the category if given must sit in that
// budget (Rejected). Empty accountID or categoryID means "not supplied".
func (g *Guard) ValidateForeignKeys(ctx context.Context, userID, budgetID, accountID, categoryID string) error {
	if _, err := g.resolver.Authorize(ctx, core.ResourceBudget, budgetID, userID); err != nil {
		return err
	}

	if strings.TrimSpace(accountID) != "" {
		a, err := g.lookup.GetAccount(ctx, accountID)
		if err := notInBudget(err, a.BudgetID, budgetID, ReasonAccountNotInBudget, core.ResourceAccount); err != nil {
			return err
		}
	}

	if strings.TrimSpace(categoryID) != "" {
		c, err := g.lookup.GetCategory(ctx, categoryID)
		if err := notInBudget(err, c.BudgetID, budgetID, ReasonCategoryNotInBudget, core.ResourceCategory); err != nil {
			return err
		}
	}

	return nil
}

func notInBudget(lookupErr error, got, want, reason string, kind core.ResourceKind) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, store.ErrNotFound) {
			return core.Rejected(reason)
		}
		return store.Classify(lookupErr, kind)
	}
	if got != want {
		return core.Rejected(reason)
	}
	return nil
}
