package appointment

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"practice/internal/adapters/storage"
	domain "practice/internal/domain/appointment"
)

const appointmentColumns = `id, account_id, therapy_id, date, start_time, status, notes, created_at, cancelled_at`

// SQLiteStore implements Store using SQLite.
// INVARIANT: idx_appointment_active_slot keeps at most one non-cancelled row per (date, start_time)
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new appointment SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an appointment by ID.
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointment WHERE id = ?`, id)
	a, err := scanAppointment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, domain.ErrNotFound
	}
	return a, err
}

// Save inserts or updates an appointment.
// PRE: entity has been validated
// POST: Entity is persisted, or domain.ErrSlotTaken if the slot is held
func (s *SQLiteStore) Save(ctx context.Context, a domain.Appointment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO appointment (`+appointmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   therapy_id=excluded.therapy_id, date=excluded.date, start_time=excluded.start_time,
		   status=excluded.status, notes=excluded.notes, cancelled_at=excluded.cancelled_at`,
		a.ID, a.AccountID, a.TherapyID, a.Date, a.StartTime, a.Status, a.Notes,
		storage.FormatTime(a.CreatedAt), storage.NullableTime(a.CancelledAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrSlotTaken
	}
	return err
}

// ListActiveInRange returns non-cancelled appointments between from and to inclusive.
// POST: Ordered by date, start_time
func (s *SQLiteStore) ListActiveInRange(ctx context.Context, from, to string) ([]domain.Appointment, error) {
	return s.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointment
		 WHERE date >= ? AND date <= ? AND status != ? ORDER BY date, start_time`,
		from, to, domain.StatusCancelled)
}

// ListByAccount returns every appointment of one account, most recent slot first.
func (s *SQLiteStore) ListByAccount(ctx context.Context, accountID string) ([]domain.Appointment, error) {
	return s.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointment WHERE account_id = ? ORDER BY date DESC, start_time DESC`,
		accountID)
}

// List returns appointments matching the filter, most recent slot first.
// PRE: filter.Limit > 0
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Appointment, error) {
	where, args := filterClause(filter)
	args = append(args, filter.Limit, filter.Offset)
	return s.query(ctx,
		`SELECT `+appointmentColumns+` FROM appointment`+where+
			` ORDER BY date DESC, start_time DESC LIMIT ? OFFSET ?`, args...)
}

// Count returns the number of appointments matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&n)
	return n, err
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func filterClause(filter ListFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.From != "" {
		conds = append(conds, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.AccountID != "" {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanAppointment(scan func(dest ...any) error) (domain.Appointment, error) {
	var a domain.Appointment
	var createdAt string
	var cancelledAt sql.NullString
	err := scan(&a.ID, &a.AccountID, &a.TherapyID, &a.Date, &a.StartTime, &a.Status, &a.Notes, &createdAt, &cancelledAt)
	if err != nil {
		return domain.Appointment{}, err
	}
	a.CreatedAt = storage.ParseTime(createdAt)
	a.CancelledAt = storage.ParseNullTime(cancelledAt)
	return a, nil
}
