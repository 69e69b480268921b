package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"practice/internal/domain/profile"
)

// ProfileStoreForUpdate defines the store interface needed by UpdateProfile.
type ProfileStoreForUpdate interface {
	GetByAccountID(ctx context.Context, accountID string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// ProfileInput carries the profile form after the avatar is resolved.
type ProfileInput struct {
	AccountID string
	Name      string
	Phone     string
	ChildName string
	AvatarKey string
}

// ProfileDeps holds dependencies for UpdateProfile.
type ProfileDeps struct {
	ProfileStore ProfileStoreForUpdate
	Now          func() time.Time
}

// ExecuteUpdateProfile saves the actor's own profile, or any profile for an admin.
// POST: Profile persisted; created if it did not exist
func ExecuteUpdateProfile(ctx context.Context, actor Actor, input ProfileInput, deps ProfileDeps) (profile.Profile, error) {
	if actor.AccountID != input.AccountID && !actor.IsAdmin() {
		return profile.Profile{}, ErrForbidden
	}
	p, err := deps.ProfileStore.GetByAccountID(ctx, input.AccountID)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{}, err
	}
	p.AccountID = input.AccountID
	p.Name = strings.TrimSpace(input.Name)
	p.Phone = strings.TrimSpace(input.Phone)
	p.ChildName = strings.TrimSpace(input.ChildName)
	p.AvatarKey = input.AvatarKey
	p.UpdatedAt = nowOrDefault(deps.Now)

	if err := p.Validate(); err != nil {
		return profile.Profile{}, err
	}
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return profile.Profile{}, err
	}
	slog.Info("profile_event", "event", "updated", "account_id", p.AccountID, "actor", actor.AccountID)
	return p, nil
}
