package advice

import (
	"context"

	domain "practice/internal/domain/advice"
)

// Store persists Advice state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Advice, error)
	GetBySlug(ctx context.Context, slug string) (domain.Advice, error)
	Save(ctx context.Context, value domain.Advice) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Advice, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter carries filtering parameters for List and Count.
// Published articles are ordered by PublishedAt, others by CreatedAt, newest first.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
