package therapy

import (
	"context"
	"database/sql"
	"errors"

	"practice/internal/adapters/storage"
	domain "practice/internal/domain/therapy"
)

const therapyColumns = `id, title, summary, description, duration_min, price_cents, image_key,
		active, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new therapy SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a therapy by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Therapy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+therapyColumns+` FROM therapy WHERE id = ?`, id)
	th, err := scanTherapy(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Therapy{}, domain.ErrNotFound
	}
	return th, err
}

// Save inserts or updates a therapy.
// PRE: entity has been validated
func (s *SQLiteStore) Save(ctx context.Context, th domain.Therapy) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO therapy (`+therapyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, summary=excluded.summary, description=excluded.description,
		   duration_min=excluded.duration_min, price_cents=excluded.price_cents,
		   image_key=excluded.image_key, active=excluded.active, updated_at=excluded.updated_at`,
		th.ID, th.Title, th.Summary, th.Description, th.DurationMin, th.PriceCents, th.ImageKey,
		storage.BoolToInt(th.Active), storage.FormatTime(th.CreatedAt), storage.NullableTime(th.UpdatedAt))
	return err
}

// Delete removes a therapy.
// PRE: InUse(id) is false
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM therapy WHERE id = ?`, id)
	return err
}

// List returns therapies ordered by title.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Therapy, error) {
	query := `SELECT ` + therapyColumns + ` FROM therapy`
	if filter.ActiveOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY title COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Therapy
	for rows.Next() {
		th, err := scanTherapy(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// InUse reports whether any appointment references the therapy.
func (s *SQLiteStore) InUse(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointment WHERE therapy_id = ?`, id).Scan(&n)
	return n > 0, err
}

func scanTherapy(scan func(dest ...any) error) (domain.Therapy, error) {
	var th domain.Therapy
	var active int
	var createdAt string
	var updatedAt sql.NullString
	err := scan(&th.ID, &th.Title, &th.Summary, &th.Description, &th.DurationMin, &th.PriceCents,
		&th.ImageKey, &active, &createdAt, &updatedAt)
	if err != nil {
		return domain.Therapy{}, err
	}
	th.Active = active == 1
	th.CreatedAt = storage.ParseTime(createdAt)
	th.UpdatedAt = storage.ParseNullTime(updatedAt)
	return th, nil
}
