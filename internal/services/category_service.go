package services

import (
	"context"
	"errors"
	"strings"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

type CategoryService struct {
	base
}

func NewCategoryService(d Deps) *CategoryService {
	return &CategoryService{base: newBase(d, spennylog.ComponentCategory)}
}

func (s *CategoryService) Create(ctx context.Context, userID string, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}
	c := core.Category{
		ID:        s.NewID(),
		Name:      strings.TrimSpace(in.Name),
		Allocated: amountOrZero(in.Allocated),
		BudgetID:  in.BudgetID,
		CreatedAt: s.now(),
	}

	var saved core.Category
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		if err := sc.guard.ValidateForeignKeys(ctx, userID, in.BudgetID, "", ""); err != nil {
			return err
		}
		var err error
		saved, err = sc.store.CreateCategory(ctx, c)
		return store.Classify(err, core.ResourceCategory)
	})
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, core.ResourceCategory, core.ActionCreated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id string) (core.Category, error) {
	if _, err := s.Resolver.Authorize(ctx, core.ResourceCategory, id, userID); err != nil {
		return core.Category{}, err
	}
	c, err := s.Store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, store.Classify(err, core.ResourceCategory)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID, budgetID string) ([]core.Category, error) {
	ids, err := scopeBudgets(ctx, s.base, userID, budgetID)
	if err != nil {
		return nil, err
	}
	categories, err := s.Store.ListCategories(ctx, store.CategoryFilter{BudgetIDs: ids})
	if err != nil {
		return nil, store.Classify(err, core.ResourceCategory)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, id string, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}

	var saved core.Category
	err := s.atomically(ctx, userID, in.BudgetID, func(ctx context.Context, sc scope) error {
		currentBudget, err := sc.resolver.Authorize(ctx, core.ResourceCategory, id, userID)
		if err != nil {
			return err
		}
		if err := sc.guard.ValidateForeignKeys(ctx, userID, in.BudgetID, "", ""); err != nil {
			return err
		}
		if in.BudgetID != currentBudget {
			n, err := sc.store.CountTransactions(ctx, store.TransactionFilter{BudgetIDs: []string{currentBudget}, CategoryID: id})
			if err != nil {
				return store.Classify(err, core.ResourceTransaction)
			}
			if n > 0 {
				return core.Rejected("category has transactions and cannot change budget")
			}
		}
		current, err := sc.store.GetCategory(ctx, id)
		if err != nil {
			return store.Classify(err, core.ResourceCategory)
		}
		current.Name = strings.TrimSpace(in.Name)
		current.Allocated = amountOrZero(in.Allocated)
		current.BudgetID = in.BudgetID

		saved, err = sc.store.UpdateCategory(ctx, current)
		return store.Classify(err, core.ResourceCategory)
	})
	if err != nil {
		return core.Category{}, err
	}
	s.changed(ctx, core.ResourceCategory, core.ActionUpdated, saved.ID, userID, saved.BudgetID)
	return saved, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, id string) error {
	var budgetID string
	err := s.atomically(ctx, userID, "", func(ctx context.Context, sc scope) error {
		var err error
		if budgetID, err = sc.resolver.Authorize(ctx, core.ResourceCategory, id, userID); err != nil {
			return err
		}
		err = sc.store.DeleteCategory(ctx, id)
		if errors.Is(err, store.ErrReferenced) {
			return core.Rejected("category is referenced by transactions")
		}
		return store.Classify(err, core.ResourceCategory)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, core.ResourceCategory, core.ActionDeleted, id, userID, budgetID)
	return nil
}
