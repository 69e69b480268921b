package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"practice/internal/adapters/storage"
	domain "practice/internal/domain/profile"
)

const profileColumns = "account_id, name, phone, child_name, avatar_key, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new profile SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByAccountID retrieves the profile of an account.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profile WHERE account_id = ?", accountID)
	p, err := scanProfile(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, err
}

// Save inserts or updates a profile.
// PRE: entity has been validated; the account exists
func (s *SQLiteStore) Save(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_id) DO UPDATE SET
		   name=excluded.name, phone=excluded.phone, child_name=excluded.child_name,
		   avatar_key=excluded.avatar_key, updated_at=excluded.updated_at`,
		p.AccountID, p.Name, p.Phone, p.ChildName, p.AvatarKey, storage.FormatTime(p.UpdatedAt))
	return err
}

// GetMany loads profiles for several accounts in one query.
func (s *SQLiteStore) GetMany(ctx context.Context, accountIDs []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(accountIDs)), ",")
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+profileColumns+" FROM profile WHERE account_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[p.AccountID] = p
	}
	return out, rows.Err()
}

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var p domain.Profile
	var updatedAt string
	if err := scan(&p.AccountID, &p.Name, &p.Phone, &p.ChildName, &p.AvatarKey, &updatedAt); err != nil {
		return domain.Profile{}, err
	}
	p.UpdatedAt = storage.ParseTime(updatedAt)
	return p, nil
}
