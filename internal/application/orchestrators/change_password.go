package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"practice/internal/domain/account"
)

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordDeps holds dependencies for ChangePassword.
type ChangePasswordDeps struct {
	AccountStore AccountStoreForChangePassword
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from current password")
)

// ExecuteChangePassword validates the current password and updates to the new one.
// PRE: AccountID is valid, both passwords are non-empty
// POST: Password hash is replaced
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, deps ChangePasswordDeps) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return account.ErrEmptyPassword
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}

	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}

	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	slog.Info("auth_event", "event", "password_changed", "account_id", input.AccountID)
	return nil
}

// AccountStoreForResetPassword defines the store interface needed by ResetPassword.
type AccountStoreForResetPassword interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ExecuteResetPassword sets a new password for the account with email and clears any lockout.
// Used by operators from the command line; no current password is required.
// PRE: newPassword meets the password rules
// POST: Password hash is replaced, failed login count is zero
func ExecuteResetPassword(ctx context.Context, email, newPassword string, store AccountStoreForResetPassword) (account.Account, error) {
	acct, err := store.GetByEmail(ctx, account.NormalizeEmail(email))
	if err != nil {
		return account.Account{}, err
	}
	if err := acct.SetPassword(newPassword); err != nil {
		return account.Account{}, err
	}
	acct.ResetFailedLogins()
	if err := store.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}
	slog.Info("auth_event", "event", "password_reset", "account_id", acct.ID)
	return acct, nil
}
