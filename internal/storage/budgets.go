package storage

import (
	"context"

	"spenny/internal/core"
	"spenny/internal/store"
)

func (r *Repository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	rec := new(budgetRecord)
	if err := r.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return core.Budget{}, mapError(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) ListBudgets(ctx context.Context, f store.BudgetFilter) ([]core.Budget, error) {
	var recs []budgetRecord
	q := r.db.NewSelect().Model(&recs)
	if f.UserID != "" {
		q = q.Where("?TableAlias.user_id = ?", f.UserID)
	}
	if f.IsDefault != nil {
		q = q.Where("?TableAlias.is_default = ?", *f.IsDefault)
	}
	if err := q.Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Budget, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].toDomain())
	}
	return out, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	rec := newBudgetRecord(b)
	if _, err := r.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return core.Budget{}, mapError(err)
	}
	return rec.toDomain(), nil
}

// UpdateBudget writes name and is_default only; the owner never changes.
func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.NewUpdate().
		Model((*budgetRecord)(nil)).
		Set("name = ?", b.Name).
		Set("is_default = ?", b.IsDefault).
		Where("id = ?", b.ID).
		Exec(ctx)
	if err != nil {
		return core.Budget{}, mapError(err)
	}
	if noRowsAffected(res) {
		return core.Budget{}, store.ErrNotFound
	}
	return r.GetBudget(ctx, b.ID)
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*budgetRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if noRowsAffected(res) {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ClearDefaultBudgets(ctx context.Context, userID, exceptID string) (int64, error) {
	q := r.db.NewUpdate().
		Model((*budgetRecord)(nil)).
		Set("is_default = ?", false).
		Where("user_id = ?", userID).
		Where("is_default = ?", true)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}
