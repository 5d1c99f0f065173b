package storage

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"spenny/internal/core"
	"spenny/internal/store"
)

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	rec := new(transactionRecord)
	if err := r.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return core.Transaction{}, mapError(err)
	}
	return decodeTransaction(rec)
}

func (r *Repository) transactionQuery(q *bun.SelectQuery, f store.TransactionFilter) *bun.SelectQuery {
	q = q.Where("?TableAlias.budget_id IN (?)", bun.In(f.BudgetIDs))
	if f.AccountID != "" {
		q = q.Where("?TableAlias.account_id = ?", f.AccountID)
	}
	if f.CategoryID != "" {
		q = q.Where("?TableAlias.category_id = ?", f.CategoryID)
	}
	return q
}

func (r *Repository) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	if len(f.BudgetIDs) == 0 {
		return []core.Transaction{}, nil
	}
	var recs []transactionRecord
	err := r.transactionQuery(r.db.NewSelect().Model(&recs), f).
		Order("date DESC", "created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]core.Transaction, 0, len(recs))
	for i := range recs {
		t, err := decodeTransaction(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) CountTransactions(ctx context.Context, f store.TransactionFilter) (int, error) {
	if len(f.BudgetIDs) == 0 {
		return 0, nil
	}
	n, err := r.transactionQuery(r.db.NewSelect().Model((*transactionRecord)(nil)), f).Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	rec := newTransactionRecord(t)
	if _, err := r.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return core.Transaction{}, mapError(err)
	}
	return decodeTransaction(rec)
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	rec := newTransactionRecord(t)
	res, err := r.db.NewUpdate().
		Model(rec).
		Column("date", "payee", "amount", "note", "cleared", "budget_id", "account_id", "category_id").
		WherePK().
		Exec(ctx)
	if err != nil {
		return core.Transaction{}, mapError(err)
	}
	if noRowsAffected(res) {
		return core.Transaction{}, store.ErrNotFound
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().Model((*transactionRecord)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return mapError(err)
	}
	if noRowsAffected(res) {
		return store.ErrNotFound
	}
	return nil
}

func decodeTransaction(rec *transactionRecord) (core.Transaction, error) {
	t, err := rec.toDomain()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s: %w", rec.ID, err)
	}
	return t, nil
}
