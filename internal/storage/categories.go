package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"spenny/internal/core"
	"spenny/internal/store"
)

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	rec := new(categoryRecord)
	if err := r.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return core.Category{}, mapError(err)
	}
	return decodeCategory(rec)
}

func (r *Repository) ListCategories(ctx context.Context, f store.CategoryFilter) ([]core.Category, error) {
	if len(f.BudgetIDs) == 0 {
		return []core.Category{}, nil
	}
	var recs []categoryRecord
	err := r.db.NewSelect().
		Model(&recs).
		Where("?TableAlias.budget_id IN (?)", bun.In(f.BudgetIDs)).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Category, 0, len(recs))
	for i := range recs {
		c, err := decodeCategory(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) CountCategories(ctx context.Context, f store.CategoryFilter) (int, error) {
	if len(f.BudgetIDs) == 0 {
		return 0, nil
	}
	n, err := r.db.NewSelect().
		Model((*categoryRecord)(nil)).
		Where("?TableAlias.budget_id IN (?)", bun.In(f.BudgetIDs)).
		Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	rec := newCategoryRecord(c)
	if _, err := r.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return core.Category{}, mapError(err)
	}
	return decodeCategory(rec)
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	rec := newCategoryRecord(c)
	res, err := r.db.NewUpdate().
		Model(rec).
		Column("name", "allocated", "budget_id").
		WherePK().
		Exec(ctx)
	if err != nil {
		return core.Category{}, mapError(err)
	}
	if noRowsAffected(res) {
		return core.Category{}, store.ErrNotFound
	}
	return r.GetCategory(ctx, c.ID)
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*categoryRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if noRowsAffected(res) {
		return store.ErrNotFound
	}
	return nil
}

func decodeCategory(rec *categoryRecord) (core.Category, error) {
	c, err := rec.toDomain()
	if err != nil {
		return core.Category{}, fmt.Errorf("decode category %s: %w", rec.ID, err)
	}
	return c, nil
}
