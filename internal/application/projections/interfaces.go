package projections

import (
	"context"

	"practice/internal/adapters/storage/account"
	"practice/internal/adapters/storage/advice"
	"practice/internal/adapters/storage/appointment"
	"practice/internal/adapters/storage/therapy"
	domainAccount "practice/internal/domain/account"
	domainAdvice "practice/internal/domain/advice"
	domainAppointment "practice/internal/domain/appointment"
	domainOutbox "practice/internal/domain/outbox"
	domainProfile "practice/internal/domain/profile"
	domainTherapy "practice/internal/domain/therapy"
)

// AccountStore interface for account queries.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (domainAccount.Account, error)
	List(ctx context.Context, filter account.ListFilter) ([]domainAccount.Account, error)
	Count(ctx context.Context, filter account.ListFilter) (int, error)
}

// ProfileStore interface for profile queries.
type ProfileStore interface {
	GetMany(ctx context.Context, accountIDs []string) (map[string]domainProfile.Profile, error)
}

// TherapyStore interface for therapy queries.
type TherapyStore interface {
	GetByID(ctx context.Context, id string) (domainTherapy.Therapy, error)
	List(ctx context.Context, filter therapy.ListFilter) ([]domainTherapy.Therapy, error)
}

// AdviceStore interface for advice queries.
type AdviceStore interface {
	GetBySlug(ctx context.Context, slug string) (domainAdvice.Advice, error)
	List(ctx context.Context, filter advice.ListFilter) ([]domainAdvice.Advice, error)
	Count(ctx context.Context, filter advice.ListFilter) (int, error)
}

// AppointmentStore interface for appointment queries.
type AppointmentStore interface {
	ListActiveInRange(ctx context.Context, from, to string) ([]domainAppointment.Appointment, error)
	ListByAccount(ctx context.Context, accountID string) ([]domainAppointment.Appointment, error)
	List(ctx context.Context, filter appointment.ListFilter) ([]domainAppointment.Appointment, error)
	Count(ctx context.Context, filter appointment.ListFilter) (int, error)
}

// OutboxStore interface for outbox queries.
type OutboxStore interface {
	ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// therapyTitles maps therapy IDs to titles, including retired therapies.
func therapyTitles(ctx context.Context, store TherapyStore) (map[string]string, error) {
	all, err := store.List(ctx, therapy.ListFilter{})
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(all))
	for _, t := range all {
		titles[t.ID] = t.Title
	}
	return titles, nil
}
