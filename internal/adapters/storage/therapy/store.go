package therapy

import (
	"context"

	domain "practice/internal/domain/therapy"
)

// Store persists Therapy state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Therapy, error)
	Save(ctx context.Context, value domain.Therapy) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Therapy, error)
	// InUse reports whether any appointment references the therapy.
	InUse(ctx context.Context, id string) (bool, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	ActiveOnly bool
}
