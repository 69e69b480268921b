package projections

import (
	"context"
	"sort"
	"strings"
	"time"

	"practice/internal/adapters/storage/account"
	"practice/internal/adapters/storage/advice"
	"practice/internal/adapters/storage/appointment"
	"practice/internal/adapters/storage/therapy"
	domainAccount "practice/internal/domain/account"
	domainAdvice "practice/internal/domain/advice"
	domainAppointment "practice/internal/domain/appointment"
	domainProfile "practice/internal/domain/profile"
	domainTherapy "practice/internal/domain/therapy"
)

// wednesday is 2026-10-21 10:30 UTC.
var wednesday = time.Date(2026, 10, 21, 10, 30, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type mockAccountStore struct {
	accounts []domainAccount.Account
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (domainAccount.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return domainAccount.Account{}, domainAccount.ErrNotFound
}

func (m *mockAccountStore) filter(f account.ListFilter) []domainAccount.Account {
	var out []domainAccount.Account
	for _, a := range m.accounts {
		if f.Role != "" && a.Role != f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(a.Email, f.Search) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (m *mockAccountStore) List(_ context.Context, f account.ListFilter) ([]domainAccount.Account, error) {
	return window(m.filter(f), f.Limit, f.Offset), nil
}

func (m *mockAccountStore) Count(_ context.Context, f account.ListFilter) (int, error) {
	return len(m.filter(f)), nil
}

type mockProfileStore struct {
	profiles map[string]domainProfile.Profile
}

func (m *mockProfileStore) GetMany(_ context.Context, ids []string) (map[string]domainProfile.Profile, error) {
	out := map[string]domainProfile.Profile{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockTherapyStore struct {
	therapies []domainTherapy.Therapy
}

func (m *mockTherapyStore) GetByID(_ context.Context, id string) (domainTherapy.Therapy, error) {
	for _, t := range m.therapies {
		if t.ID == id {
			return t, nil
		}
	}
	return domainTherapy.Therapy{}, domainTherapy.ErrNotFound
}

func (m *mockTherapyStore) List(_ context.Context, f therapy.ListFilter) ([]domainTherapy.Therapy, error) {
	var out []domainTherapy.Therapy
	for _, t := range m.therapies {
		if f.ActiveOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type mockAdviceStore struct {
	articles []domainAdvice.Advice // newest first
}

func (m *mockAdviceStore) GetBySlug(_ context.Context, slug string) (domainAdvice.Advice, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return domainAdvice.Advice{}, domainAdvice.ErrNotFound
}

func (m *mockAdviceStore) filter(status string) []domainAdvice.Advice {
	var out []domainAdvice.Advice
	for _, a := range m.articles {
		if status == "" || a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

func (m *mockAdviceStore) List(_ context.Context, f advice.ListFilter) ([]domainAdvice.Advice, error) {
	return window(m.filter(f.Status), f.Limit, f.Offset), nil
}

func (m *mockAdviceStore) Count(_ context.Context, f advice.ListFilter) (int, error) {
	return len(m.filter(f.Status)), nil
}

type mockAppointmentStore struct {
	items []domainAppointment.Appointment
}

func (m *mockAppointmentStore) ListActiveInRange(_ context.Context, from, to string) ([]domainAppointment.Appointment, error) {
	var out []domainAppointment.Appointment
	for _, a := range m.items {
		if a.IsActive() && a.Date >= from && a.Date <= to {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAppointmentStore) sorted(keep func(domainAppointment.Appointment) bool) []domainAppointment.Appointment {
	var out []domainAppointment.Appointment
	for _, a := range m.items {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date+out[i].StartTime > out[j].Date+out[j].StartTime
	})
	return out
}

func (m *mockAppointmentStore) ListByAccount(_ context.Context, accountID string) ([]domainAppointment.Appointment, error) {
	return m.sorted(func(a domainAppointment.Appointment) bool { return a.AccountID == accountID }), nil
}

func (m *mockAppointmentStore) match(f appointment.ListFilter) []domainAppointment.Appointment {
	return m.sorted(func(a domainAppointment.Appointment) bool {
		return (f.Status == "" || a.Status == f.Status) &&
			(f.From == "" || a.Date >= f.From) &&
			(f.To == "" || a.Date <= f.To) &&
			(f.AccountID == "" || a.AccountID == f.AccountID)
	})
}

func (m *mockAppointmentStore) List(_ context.Context, f appointment.ListFilter) ([]domainAppointment.Appointment, error) {
	return window(m.match(f), f.Limit, f.Offset), nil
}

func (m *mockAppointmentStore) Count(_ context.Context, f appointment.ListFilter) (int, error) {
	return len(m.match(f)), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func booked(id, accountID, date, start string) domainAppointment.Appointment {
	return domainAppointment.Appointment{
		ID: id, AccountID: accountID, TherapyID: "play", Date: date, StartTime: start,
		Status: domainAppointment.StatusBooked,
	}
}
