package profile

import (
	"context"

	domain "practice/internal/domain/profile"
)

// Store persists Profile state.
type Store interface {
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	Save(ctx context.Context, value domain.Profile) error
	// GetMany returns the profiles that exist for the given accounts, keyed by account ID.
	GetMany(ctx context.Context, accountIDs []string) (map[string]domain.Profile, error)
}
