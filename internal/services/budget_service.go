package services

import (
	"context"
	"errors"
	"strings"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

type BudgetService struct {
	base
}

func NewBudgetService(d Deps) *BudgetService {
	return &BudgetService{base: newBase(d, spennylog.ComponentBudget)}
}

func (s *BudgetService) Create(ctx context.Context, userID string, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, invalid(err)
	}
	b := core.Budget{
		ID:        s.NewID(),
		Name:      strings.TrimSpace(in.Name),
		IsDefault: in.IsDefault,
		UserID:    userID,
		CreatedAt: s.now(),
	}

	saved, cleared, err := s.write(ctx, s.Store, b, func(ctx context.Context, tx store.Store) (core.Budget, error) {
		created, err := tx.CreateBudget(ctx, b)
		return created, store.Classify(err, core.ResourceBudget)
	})
	if err != nil {
		return core.Budget{}, err
	}

	s.changed(ctx, core.ResourceBudget, core.ActionCreated, saved.ID, userID, saved.ID)
	if saved.IsDefault {
		s.defaultChanged(ctx, saved, cleared)
	}
	return saved, nil
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.Budget, error) {
	if _, err := s.Resolver.Authorize(ctx, core.ResourceBudget, id, userID); err != nil {
		return core.Budget{}, err
	}
	b, err := s.Store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, store.Classify(err, core.ResourceBudget)
	}
	return b, nil
}

// List returns the caller's budgets, optionally only the default one.
func (s *BudgetService) List(ctx context.Context, userID string, isDefault *bool) ([]core.Budget, error) {
	budgets, err := s.Store.ListBudgets(ctx, store.BudgetFilter{UserID: userID, IsDefault: isDefault})
	if err != nil {
		return nil, store.Classify(err, core.ResourceBudget)
	}
	return budgets, nil
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, in core.BudgetInput) (core.Budget, error) {
	if err := in.Validate(); err != nil {
		return core.Budget{}, invalid(err)
	}

	var (
		saved   core.Budget
		cleared int64
		wasDef  bool
	)
	err := s.atomically(ctx, userID, id, func(ctx context.Context, sc scope) error {
		if _, err := sc.resolver.Authorize(ctx, core.ResourceBudget, id, userID); err != nil {
			return err
		}
		current, err := sc.store.GetBudget(ctx, id)
		if err != nil {
			return store.Classify(err, core.ResourceBudget)
		}
		wasDef = current.IsDefault
		current.Name = strings.TrimSpace(in.Name)
		current.IsDefault = in.IsDefault

		saved, cleared, err = s.write(ctx, sc.store, current, func(ctx context.Context, tx store.Store) (core.Budget, error) {
			updated, err := tx.UpdateBudget(ctx, current)
			return updated, store.Classify(err, core.ResourceBudget)
		})
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}

	s.changed(ctx, core.ResourceBudget, core.ActionUpdated, saved.ID, userID, saved.ID)
	if saved.IsDefault && (!wasDef || cleared > 0) {
		s.defaultChanged(ctx, saved, cleared)
	}
	return saved, nil
}

// Delete removes a budget that no longer has accounts, categories or
// transactions.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	err := s.atomically(ctx, userID, id, func(ctx context.Context, sc scope) error {
		if _, err := sc.resolver.Authorize(ctx, core.ResourceBudget, id, userID); err != nil {
			return err
		}
		err := sc.store.DeleteBudget(ctx, id)
		if errors.Is(err, store.ErrReferenced) {
			return core.Rejected("budget still has accounts, categories or transactions")
		}
		return store.Classify(err, core.ResourceBudget)
	})
	if err != nil {
		return err
	}
	s.Resolver.Forget(id)
	s.changed(ctx, core.ResourceBudget, core.ActionDeleted, id, userID, id)
	return nil
}

// write stores b, going through the default-budget enforcer when b is
// flagged default.
func (s *BudgetService) write(ctx context.Context, st store.Store, b core.Budget, persist func(context.Context, store.Store) (core.Budget, error)) (core.Budget, int64, error) {
	if !b.IsDefault {
		saved, err := persist(ctx, st)
		return saved, 0, err
	}
	return s.Defaults.SetDefault(ctx, st, b.UserID, b.ID, persist)
}

func (s *BudgetService) defaultChanged(ctx context.Context, b core.Budget, cleared int64) {
	_, atomic := s.Store.(store.TxRunner)
	ev := core.NewEvent(core.ResourceBudget, core.ActionDefaultChanged, b.ID, b.UserID, b.ID)
	ev.Cleared = cleared
	ev.Atomic = atomic
	s.log.LogEntityChanged(ctx, spennylog.OpSetDefault, string(core.ResourceBudget), b.ID, b.UserID)
	s.publish(ctx, ev)
}
