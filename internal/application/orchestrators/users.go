package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"practice/internal/domain/account"
)

var (
	ErrCannotModifySelf = errors.New("you cannot delete or change the role of your own account")
)

// AccountStoreForAdmin defines the store interface needed by user administration.
type AccountStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Delete(ctx context.Context, id string) error
}

// UserAdminDeps holds dependencies for user administration.
type UserAdminDeps struct {
	AccountStore AccountStoreForAdmin
}

// ExecuteDeleteUser removes an account; its profile and appointments go with it.
// PRE: actor is an admin other than the target
func ExecuteDeleteUser(ctx context.Context, actor Actor, accountID string, deps UserAdminDeps) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.AccountID == accountID {
		return ErrCannotModifySelf
	}
	if _, err := deps.AccountStore.GetByID(ctx, accountID); err != nil {
		return err
	}
	if err := deps.AccountStore.Delete(ctx, accountID); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "account_deleted", "account_id", accountID, "actor", actor.AccountID)
	return nil
}

// ExecuteChangeRole sets the role of another account.
// PRE: actor is an admin other than the target; role is valid
func ExecuteChangeRole(ctx context.Context, actor Actor, accountID, role string, deps UserAdminDeps) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.AccountID == accountID {
		return ErrCannotModifySelf
	}
	if !slices.Contains(account.ValidRoles, role) {
		return account.ErrInvalidRole
	}
	acct, err := deps.AccountStore.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Role == role {
		return nil
	}
	acct.Role = role
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "role_changed", "account_id", accountID, "role", role, "actor", actor.AccountID)
	return nil
}
