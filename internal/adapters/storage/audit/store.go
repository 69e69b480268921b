package audit

import (
	"context"

	domain "practice/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event. Events are never updated.
	// PRE: event has been validated
	Save(ctx context.Context, event domain.Event) error

	// List returns events matching filter, newest first. Ties keep insertion order reversed.
	// PRE: filter.Limit > 0
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)

	// Count returns the number of events matching filter, ignoring Limit and Offset.
	Count(ctx context.Context, filter ListFilter) (int, error)

	// GetByID retrieves a specific audit event.
	// POST: Returns the event or domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

// ListFilter narrows the audit trail. Empty fields are unbounded.
type ListFilter struct {
	Category   domain.Category
	Action     domain.Action
	Severity   domain.Severity
	ActorID    string
	ResourceID string
	From       string // inclusive YYYY-MM-DD
	To         string // inclusive YYYY-MM-DD
	Limit      int
	Offset     int
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
