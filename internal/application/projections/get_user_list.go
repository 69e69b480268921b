package projections

import (
	"context"
	"time"

	"practice/internal/adapters/storage/account"
	"practice/internal/application/listutil"
)

// GetUserListQuery carries query parameters.
type GetUserListQuery struct {
	Role    string
	Search  string
	Page    int
	PerPage int
}

// UserRow is one account in the admin user table.
type UserRow struct {
	ID        string
	Email     string
	Name      string
	Role      string
	CreatedAt time.Time
	Locked    bool
}

// GetUserListResult carries the query result.
type GetUserListResult struct {
	Users []UserRow
	Page  listutil.Page
}

// GetUserListDeps holds dependencies for GetUserList.
type GetUserListDeps struct {
	AccountStore AccountStore
	ProfileStore ProfileStore
	Now          func() time.Time
}

// QueryGetUserList returns one page of accounts joined with their profile names.
// PRE: Valid query parameters
// POST: Accounts without a profile have an empty Name
func QueryGetUserList(ctx context.Context, query GetUserListQuery, deps GetUserListDeps) (GetUserListResult, error) {
	filter := account.ListFilter{Role: query.Role, Search: query.Search}
	total, err := deps.AccountStore.Count(ctx, filter)
	if err != nil {
		return GetUserListResult{}, err
	}
	page := listutil.NewPage(query.Page, query.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	accounts, err := deps.AccountStore.List(ctx, filter)
	if err != nil {
		return GetUserListResult{}, err
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	profiles, err := deps.ProfileStore.GetMany(ctx, ids)
	if err != nil {
		return GetUserListResult{}, err
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	result := GetUserListResult{Page: page}
	for _, a := range accounts {
		result.Users = append(result.Users, UserRow{
			ID:        a.ID,
			Email:     a.Email,
			Name:      profiles[a.ID].Name,
			Role:      a.Role,
			CreatedAt: a.CreatedAt,
			Locked:    a.IsLocked(now),
		})
	}
	return result, nil
}
