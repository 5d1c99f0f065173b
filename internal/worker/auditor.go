// Package worker holds the background consumers that run beside the API.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
	"spenny/internal/store"
)

// BudgetLister is the slice of the entity store the auditor reads.
type BudgetLister interface {
	ListBudgets(ctx context.Context, f store.BudgetFilter) ([]core.Budget, error)
}

// Finding is the result of checking one user's default budgets.
type Finding struct {
	UserID     string
	DefaultIDs []string
}

// Violated reports whether the user has more than one default budget.
func (f Finding) Violated() bool {
	return len(f.DefaultIDs) > 1
}

// Stats counts what the auditor has seen since start.
type Stats struct {
	Processed  int64
	Ignored    int64
	Violations int64
	NonAtomic  int64
}

// Auditor watches default-budget changes and reports users left with more
// than one default. It only observes; repairs are left to the owner.
type Auditor struct {
	budgets BudgetLister
	logger  *slog.Logger

	processed  atomic.Int64
	ignored    atomic.Int64
	violations atomic.Int64
	nonAtomic  atomic.Int64
}

func NewAuditor(budgets BudgetLister, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		budgets: budgets,
		logger:  logger.With(spennylog.FieldComponent, spennylog.ComponentAuditor),
	}
}

// HandleEvent processes a single entity event from AMQP. Only
// budget.default_changed is audited; other events are acknowledged and skipped.
func (a *Auditor) HandleEvent(ctx context.Context, ev core.Event) error {
	if ev.Type != core.EventType(core.ResourceBudget, core.ActionDefaultChanged) {
		a.ignored.Add(1)
		return nil
	}
	if ev.UserID == "" {
		a.ignored.Add(1)
		a.logger.WarnContext(ctx, "Default change event without user", spennylog.FieldResourceID, ev.ResourceID)
		return nil
	}

	if !ev.Atomic {
		a.nonAtomic.Add(1)
		a.logger.InfoContext(ctx, "Default swap ran without a store transaction",
			spennylog.FieldUserID, ev.UserID,
			spennylog.FieldBudgetID, ev.ResourceID,
			spennylog.FieldConsistencyGap, spennylog.GapDefaultSwap)
	}

	if _, err := a.CheckUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("audit user %s: %w", ev.UserID, err)
	}
	a.processed.Add(1)
	return nil
}

// CheckUser lists the user's default budgets and logs a warning when there
// is more than one.
func (a *Auditor) CheckUser(ctx context.Context, userID string) (Finding, error) {
	isDefault := true
	defaults, err := a.budgets.ListBudgets(ctx, store.BudgetFilter{UserID: userID, IsDefault: &isDefault})
	if err != nil {
		return Finding{}, fmt.Errorf("list default budgets: %w", err)
	}

	finding := Finding{UserID: userID, DefaultIDs: make([]string, 0, len(defaults))}
	for _, b := range defaults {
		finding.DefaultIDs = append(finding.DefaultIDs, b.ID)
	}
	sort.Strings(finding.DefaultIDs)

	if finding.Violated() {
		a.violations.Add(1)
		a.logger.WarnContext(ctx, "User has more than one default budget",
			spennylog.FieldUserID, userID,
			"default_count", len(finding.DefaultIDs),
			"budget_ids", finding.DefaultIDs)
	} else {
		a.logger.DebugContext(ctx, "Default budgets consistent",
			spennylog.FieldUserID, userID,
			"default_count", len(finding.DefaultIDs))
	}
	return finding, nil
}

func (a *Auditor) Stats() Stats {
	return Stats{
		Processed:  a.processed.Load(),
		Ignored:    a.ignored.Load(),
		Violations: a.violations.Load(),
		NonAtomic:  a.nonAtomic.Load(),
	}
}
