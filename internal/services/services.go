// Package services runs every CRUD operation through the ownership
// resolver, the referential guard and, for budgets, the default-budget
// enforcer before touching the entity store.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"spenny/internal/access"
	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// Publisher receives committed entity changes.
type Publisher interface {
	Publish(ctx context.Context, ev core.Event) error
}

// Deps wires the services together. Store, Resolver, Guard and Defaults are
// required; Events may be nil.
type Deps struct {
	Store    store.Store
	Resolver *access.Resolver
	Guard    *access.Guard
	Defaults *access.DefaultBudgetEnforcer
	Events   Publisher
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() string
}

// NewDeps builds resolver, guard and enforcer over s with default clocks.
func NewDeps(s store.Store, events Publisher, logger *slog.Logger, opts ...access.ResolverOption) Deps {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := access.NewResolver(s, append([]access.ResolverOption{access.WithLogger(logger)}, opts...)...)
	return Deps{
		Store:    s,
		Resolver: resolver,
		Guard:    access.NewGuard(resolver),
		Defaults: access.NewDefaultBudgetEnforcer(logger),
		Events:   events,
		Logger:   logger,
	}
}

type base struct {
	Deps
	component string
	log       *spennylog.StructuredLogger
}

func newBase(d Deps, component string) base {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return base{
		Deps:      d,
		component: component,
		log:       spennylog.NewStructuredLogger(spennylog.FromSlog(d.Logger, component)),
	}
}

// scope is the resolver and guard bound to one store handle.
type scope struct {
	store    store.Store
	resolver *access.Resolver
	guard    *access.Guard
}

// atomically runs a validate-then-write sequence in one store transaction
// when the store has them. Otherwise the sequence runs as is and the gap is
// logged.
func (b base) atomically(ctx context.Context, userID, budgetID string, fn func(ctx context.Context, sc scope) error) error {
	atomic, err := store.Atomic(ctx, b.Store, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, scope{store: tx, resolver: b.Resolver.Bind(tx), guard: b.Guard.Bind(tx)})
	})
	if !atomic && err == nil {
		b.log.LogConsistencyGap(ctx, spennylog.GapValidateBeforeWrite, userID, budgetID)
	}
	return err
}

func (b base) now() time.Time {
	return b.Now().UTC()
}

// publish is best effort: the write already committed.
func (b base) publish(ctx context.Context, ev core.Event) {
	if b.Events == nil {
		return
	}
	if err := b.Events.Publish(ctx, ev); err != nil {
		b.Logger.WarnContext(ctx, "Failed to publish event",
			spennylog.FieldOperation, spennylog.OpPublish,
			spennylog.FieldEvent, ev.Type,
			spennylog.FieldResourceID, ev.ResourceID,
			spennylog.FieldError, err)
	}
}

func (b base) changed(ctx context.Context, kind core.ResourceKind, action core.Action, id, userID, budgetID string) {
	op := spennylog.OpUpdate
	switch action {
	case core.ActionCreated:
		op = spennylog.OpCreate
	case core.ActionDeleted:
		op = spennylog.OpDelete
	}
	b.log.LogEntityChanged(ctx, op, string(kind), id, userID)
	b.publish(ctx, core.NewEvent(kind, action, id, userID, budgetID))
}

// userBudgetIDs lists the IDs of every budget userID owns.
func userBudgetIDs(ctx context.Context, s store.Store, userID string) ([]string, error) {
	budgets, err := s.ListBudgets(ctx, store.BudgetFilter{UserID: userID})
	if err != nil {
		return nil, store.Classify(err, core.ResourceBudget)
	}
	ids := make([]string, 0, len(budgets))
	for _, b := range budgets {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// invalid turns an input validation error into Rejected.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	return core.Rejected(err.Error())
}
