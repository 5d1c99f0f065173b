package storage

import (
	"context"

	"spenny/internal/core"
)

func (r *Repository) GetUser(ctx context.Context, id string) (core.User, error) {
	rec := new(userRecord)
	if err := r.db.NewSelect().Model(rec).Where("?TableAlias.id = ?", id).Limit(1).Scan(ctx); err != nil {
		return core.User{}, mapError(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	rec := new(userRecord)
	if err := r.db.NewSelect().Model(rec).Where("LOWER(?TableAlias.email) = ?", core.NormalizeEmail(email)).Limit(1).Scan(ctx); err != nil {
		return core.User{}, mapError(err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	rec := newUserRecord(u)
	if _, err := r.db.NewInsert().Model(rec).Exec(ctx); err != nil {
		return core.User{}, mapError(err)
	}
	return rec.toDomain(), nil
}
