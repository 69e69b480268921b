package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"practice/internal/domain/account"
	"practice/internal/domain/profile"
)

// ProfileStoreForRegister defines the store interface needed to create a profile.
type ProfileStoreForRegister interface {
	Save(ctx context.Context, p profile.Profile) error
}

// RegisterClientInput carries the public sign-up form.
type RegisterClientInput struct {
	Email     string
	Password  string
	Name      string
	Phone     string
	ChildName string
}

// RegisterClientDeps holds dependencies for RegisterClient.
type RegisterClientDeps struct {
	AccountStore AccountStoreForCreate
	ProfileStore ProfileStoreForRegister
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteRegisterClient creates a client account together with its profile.
// PRE: Profile fields pass validation; email is unused
// POST: Account (role client) and profile are persisted
func ExecuteRegisterClient(ctx context.Context, input RegisterClientInput, deps RegisterClientDeps) (account.Account, error) {
	now := nowOrDefault(deps.Now)
	p := profile.Profile{
		AccountID: "pending",
		Name:      strings.TrimSpace(input.Name),
		Phone:     strings.TrimSpace(input.Phone),
		ChildName: strings.TrimSpace(input.ChildName),
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return account.Account{}, err
	}

	acct, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    input.Email,
		Password: input.Password,
		Role:     account.RoleClient,
	}, CreateAccountDeps{AccountStore: deps.AccountStore, GenerateID: deps.GenerateID, Now: deps.Now})
	if err != nil {
		return account.Account{}, err
	}

	p.AccountID = acct.ID
	if err := deps.ProfileStore.Save(ctx, p); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "client_registered", "account_id", acct.ID)
	return acct, nil
}
