package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"spenny/internal/core"
	"spenny/internal/store"
)

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	rec := new(accountRecord)
	if err := r.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return core.Account{}, mapError(err)
	}
	return decodeAccount(rec)
}

func (r *Repository) ListAccounts(ctx context.Context, f store.AccountFilter) ([]core.Account, error) {
	if len(f.BudgetIDs) == 0 {
		return []core.Account{}, nil
	}
	var recs []accountRecord
	err := r.db.NewSelect().
		Model(&recs).
		Where("?TableAlias.budget_id IN (?)", bun.In(f.BudgetIDs)).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Account, 0, len(recs))
	for i := range recs {
		a, err := decodeAccount(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) CountAccounts(ctx context.Context, f store.AccountFilter) (int, error) {
	if len(f.BudgetIDs) == 0 {
		return 0, nil
	}
	n, err := r.db.NewSelect().
		Model((*accountRecord)(nil)).
		Where("?TableAlias.budget_id IN (?)", bun.In(f.BudgetIDs)).
		Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	rec := newAccountRecord(a)
	if _, err := r.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return core.Account{}, mapError(err)
	}
	return decodeAccount(rec)
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	rec := newAccountRecord(a)
	res, err := r.db.NewUpdate().
		Model(rec).
		Column("name", "type", "balance", "budget_id").
		WherePK().
		Exec(ctx)
	if err != nil {
		return core.Account{}, mapError(err)
	}
	if noRowsAffected(res) {
		return core.Account{}, store.ErrNotFound
	}
	return r.GetAccount(ctx, a.ID)
}

func (r *Repository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*accountRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if noRowsAffected(res) {
		return store.ErrNotFound
	}
	return nil
}

func decodeAccount(rec *accountRecord) (core.Account, error) {
	a, err := rec.toDomain()
	if err != nil {
		return core.Account{}, fmt.Errorf("decode account %s: %w", rec.ID, err)
	}
	return a, nil
}
