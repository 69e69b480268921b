package appointment

import (
	"context"

	domain "practice/internal/domain/appointment"
)

// Store persists Appointment state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Appointment, error)
	// Save returns domain.ErrSlotTaken when another active appointment holds the slot.
	Save(ctx context.Context, value domain.Appointment) error
	// ListActiveInRange returns booked and completed appointments with from <= date <= to.
	ListActiveInRange(ctx context.Context, from, to string) ([]domain.Appointment, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Appointment, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for the admin appointment list.
type ListFilter struct {
	Status    string
	From      string // inclusive YYYY-MM-DD, empty for unbounded
	To        string // inclusive YYYY-MM-DD, empty for unbounded
	AccountID string
	Limit     int
	Offset    int
}
