package access

import (
	"context"
	"log/slog"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// WriteBudget persists the target budget once the other defaults are cleared.
type WriteBudget func(ctx context.Context, s store.Store) (core.Budget, error)

// DefaultBudgetEnforcer keeps at most one default budget per user.
type DefaultBudgetEnforcer struct {
	logger *spennylog.StructuredLogger
}

func NewDefaultBudgetEnforcer(logger *slog.Logger) *DefaultBudgetEnforcer {
	return &DefaultBudgetEnforcer{
		logger: spennylog.NewStructuredLogger(spennylog.FromSlog(logger, spennylog.ComponentAccess)),
	}
}

// SetDefault clears is_default on every other budget of userID and then runs
// write, which must store budgetID with is_default=true. On a store with
// transactions both steps commit together; otherwise a failure or a
// concurrent request between them can leave zero or two defaults, and the
// gap is logged.
func (e *DefaultBudgetEnforcer) SetDefault(ctx context.Context, s store.Store, userID, budgetID string, write WriteBudget) (core.Budget, int64, error) {
	var (
		saved   core.Budget
		cleared int64
	)
	atomic, err := store.Atomic(ctx, s, func(ctx context.Context, tx store.Store) error {
		n, err := tx.ClearDefaultBudgets(ctx, userID, budgetID)
		if err != nil {
			return store.Classify(err, core.ResourceBudget)
		}
		cleared = n
		saved, err = write(ctx, tx)
		return err
	})
	if !atomic {
		e.logger.LogConsistencyGap(ctx, spennylog.GapDefaultSwap, userID, budgetID)
	}
	if err != nil {
		return core.Budget{}, 0, err
	}
	return saved, cleared, nil
}
