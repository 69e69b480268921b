package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	accountStore "practice/internal/adapters/storage/account"
	therapyStore "practice/internal/adapters/storage/therapy"
	"practice/internal/domain/account"
	"practice/internal/domain/advice"
	"practice/internal/domain/appointment"
	"practice/internal/domain/outbox"
	"practice/internal/domain/profile"
	"practice/internal/domain/therapy"
)

// monday is 2026-10-19 09:30 UTC.
var monday = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

var (
	admin  = Actor{AccountID: "admin-1", Role: account.RoleAdmin}
	client = Actor{AccountID: "client-1", Role: account.RoleClient}
)

// --- Mock account store ---

type mockAccountStore struct {
	accounts map[string]account.Account
	saveErr  error
}

func newMockAccountStore(accts ...account.Account) *mockAccountStore {
	m := &mockAccountStore{accounts: map[string]account.Account{}}
	for _, a := range accts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, email string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	delete(m.accounts, id)
	return nil
}

func (m *mockAccountStore) Count(_ context.Context, _ accountStore.ListFilter) (int, error) {
	return len(m.accounts), nil
}

// --- Mock profile store ---

type mockProfileStore struct {
	profiles map[string]profile.Profile
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: map[string]profile.Profile{}}
}

func (m *mockProfileStore) GetByAccountID(_ context.Context, id string) (profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, profile.ErrNotFound
	}
	return p, nil
}

func (m *mockProfileStore) Save(_ context.Context, p profile.Profile) error {
	m.profiles[p.AccountID] = p
	return nil
}

// --- Mock therapy store ---

type mockTherapyStore struct {
	therapies map[string]therapy.Therapy
	inUse     map[string]bool
}

func newMockTherapyStore(ts ...therapy.Therapy) *mockTherapyStore {
	m := &mockTherapyStore{therapies: map[string]therapy.Therapy{}, inUse: map[string]bool{}}
	for _, t := range ts {
		m.therapies[t.ID] = t
	}
	return m
}

func (m *mockTherapyStore) GetByID(_ context.Context, id string) (therapy.Therapy, error) {
	t, ok := m.therapies[id]
	if !ok {
		return therapy.Therapy{}, therapy.ErrNotFound
	}
	return t, nil
}

func (m *mockTherapyStore) Save(_ context.Context, t therapy.Therapy) error {
	m.therapies[t.ID] = t
	return nil
}

func (m *mockTherapyStore) Delete(_ context.Context, id string) error {
	delete(m.therapies, id)
	return nil
}

func (m *mockTherapyStore) List(_ context.Context, f therapyStore.ListFilter) ([]therapy.Therapy, error) {
	var out []therapy.Therapy
	for _, t := range m.therapies {
		if f.ActiveOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *mockTherapyStore) InUse(_ context.Context, id string) (bool, error) {
	return m.inUse[id], nil
}

// --- Mock advice store ---

type mockAdviceStore struct {
	articles map[string]advice.Advice
}

func newMockAdviceStore(as ...advice.Advice) *mockAdviceStore {
	m := &mockAdviceStore{articles: map[string]advice.Advice{}}
	for _, a := range as {
		m.articles[a.ID] = a
	}
	return m
}

func (m *mockAdviceStore) GetByID(_ context.Context, id string) (advice.Advice, error) {
	a, ok := m.articles[id]
	if !ok {
		return advice.Advice{}, advice.ErrNotFound
	}
	return a, nil
}

func (m *mockAdviceStore) GetBySlug(_ context.Context, slug string) (advice.Advice, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			return a, nil
		}
	}
	return advice.Advice{}, advice.ErrNotFound
}

func (m *mockAdviceStore) Save(_ context.Context, a advice.Advice) error {
	m.articles[a.ID] = a
	return nil
}

func (m *mockAdviceStore) Delete(_ context.Context, id string) error {
	delete(m.articles, id)
	return nil
}

// --- Mock appointment store ---

type mockAppointmentStore struct {
	mu    sync.Mutex
	items map[string]appointment.Appointment
}

func newMockAppointmentStore(as ...appointment.Appointment) *mockAppointmentStore {
	m := &mockAppointmentStore{items: map[string]appointment.Appointment{}}
	for _, a := range as {
		m.items[a.ID] = a
	}
	return m
}

func (m *mockAppointmentStore) GetByID(_ context.Context, id string) (appointment.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return appointment.Appointment{}, appointment.ErrNotFound
	}
	return a, nil
}

// Save enforces the active-slot uniqueness the SQLite index provides.
func (m *mockAppointmentStore) Save(_ context.Context, a appointment.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.IsActive() {
		for _, other := range m.items {
			if other.ID != a.ID && other.IsActive() && other.Date == a.Date && other.StartTime == a.StartTime {
				return appointment.ErrSlotTaken
			}
		}
	}
	m.items[a.ID] = a
	return nil
}

// --- Mock outbox store ---

type mockOutboxStore struct {
	entries map[string]outbox.Entry
	order   []string
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: map[string]outbox.Entry{}}
}

func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, outbox.ErrNotFound
	}
	return e, nil
}

func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

var errStore = errors.New("store unavailable")
