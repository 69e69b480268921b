package advice

import (
	"context"
	"database/sql"
	"errors"

	"practice/internal/adapters/storage"
	domain "practice/internal/domain/advice"
)

const adviceColumns = `id, title, slug, body, image_key, status, author_id, created_at, updated_at, published_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new advice SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an article by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Advice, error) {
	return s.getOne(ctx, `SELECT `+adviceColumns+` FROM advice WHERE id = ?`, id)
}

// GetBySlug retrieves an article by slug.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetBySlug(ctx context.Context, slug string) (domain.Advice, error) {
	return s.getOne(ctx, `SELECT `+adviceColumns+` FROM advice WHERE slug = ?`, slug)
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg string) (domain.Advice, error) {
	a, err := scanAdvice(s.db.QueryRowContext(ctx, query, arg).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Advice{}, domain.ErrNotFound
	}
	return a, err
}

// Save inserts or updates an article.
// PRE: entity has been validated
// POST: Entity is persisted; a slug clash yields domain.ErrSlugTaken
func (s *SQLiteStore) Save(ctx context.Context, a domain.Advice) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO advice (`+adviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, slug=excluded.slug, body=excluded.body, image_key=excluded.image_key,
		   status=excluded.status, updated_at=excluded.updated_at, published_at=excluded.published_at`,
		a.ID, a.Title, a.Slug, a.Body, a.ImageKey, a.Status, a.AuthorID,
		storage.FormatTime(a.CreatedAt), storage.NullableTime(a.UpdatedAt), storage.NullableTime(a.PublishedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrSlugTaken
	}
	return err
}

// Delete removes an article.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM advice WHERE id = ?`, id)
	return err
}

// List returns articles matching the filter, newest first.
// PRE: filter.Limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Advice, error) {
	where, args := filterClause(filter)
	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adviceColumns+` FROM advice`+where+
			` ORDER BY COALESCE(published_at, created_at) DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Advice
	for rows.Next() {
		a, err := scanAdvice(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the number of articles matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM advice`+where, args...).Scan(&n)
	return n, err
}

func filterClause(filter ListFilter) (string, []any) {
	if filter.Status == "" {
		return "", nil
	}
	return ` WHERE status = ?`, []any{filter.Status}
}

func scanAdvice(scan func(dest ...any) error) (domain.Advice, error) {
	var a domain.Advice
	var createdAt string
	var updatedAt, publishedAt sql.NullString
	err := scan(&a.ID, &a.Title, &a.Slug, &a.Body, &a.ImageKey, &a.Status, &a.AuthorID,
		&createdAt, &updatedAt, &publishedAt)
	if err != nil {
		return domain.Advice{}, err
	}
	a.CreatedAt = storage.ParseTime(createdAt)
	a.UpdatedAt = storage.ParseNullTime(updatedAt)
	a.PublishedAt = storage.ParseNullTime(publishedAt)
	return a, nil
}
