package core

import "time"

// Action is what happened to an entity.
type Action string

const (
	ActionCreated        Action = "created"
	ActionUpdated        Action = "updated"
	ActionDeleted        Action = "deleted"
	ActionDefaultChanged Action = "default_changed"
)

// Event describes a committed change to an owned entity. Events are
// published after the write and never carry monetary values or names.
type Event struct {
	Type       string       `json:"type"`
	Resource   ResourceKind `json:"resource"`
	ResourceID string       `json:"resource_id"`
	UserID     string       `json:"user_id"`
	BudgetID   string       `json:"budget_id,omitempty"`
	// Cleared counts the budgets that lost their default flag.
	Cleared   int64     `json:"cleared,omitempty"`
	Atomic    bool      `json:"atomic"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType is the routing key for a resource/action pair, e.g. "budget.created".
func EventType(resource ResourceKind, action Action) string {
	return string(resource) + "." + string(action)
}

func NewEvent(resource ResourceKind, action Action, id, userID, budgetID string) Event {
	return Event{
		Type:       EventType(resource, action),
		Resource:   resource,
		ResourceID: id,
		UserID:     userID,
		BudgetID:   budgetID,
		Timestamp:  time.Now().UTC(),
	}
}
