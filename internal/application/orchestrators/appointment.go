package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"practice/internal/domain/account"
	"practice/internal/domain/appointment"
	"practice/internal/domain/profile"
	"practice/internal/domain/therapy"
	"practice/internal/domain/week"
)

// AppointmentStoreForBooking defines the store interface needed by booking orchestrators.
type AppointmentStoreForBooking interface {
	GetByID(ctx context.Context, id string) (appointment.Appointment, error)
	Save(ctx context.Context, a appointment.Appointment) error
}

// TherapyLookup resolves the therapy being booked.
type TherapyLookup interface {
	GetByID(ctx context.Context, id string) (therapy.Therapy, error)
}

// AccountLookup resolves the email of the booking client.
type AccountLookup interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}

// ProfileLookup resolves the display name of the booking client.
type ProfileLookup interface {
	GetByAccountID(ctx context.Context, accountID string) (profile.Profile, error)
}

// AppointmentDeps holds dependencies for appointment orchestrators.
type AppointmentDeps struct {
	AppointmentStore AppointmentStoreForBooking
	TherapyStore     TherapyLookup
	AccountStore     AccountLookup
	ProfileStore     ProfileLookup
	Notifier         *Notifier
	HorizonWeeks     int
	Location         *time.Location
	GenerateID       func() string
	Now              func() time.Time
}

func (d AppointmentDeps) now() time.Time {
	now := nowOrDefault(d.Now)
	if d.Location != nil {
		now = now.In(d.Location)
	}
	return now
}

// BookAppointmentInput carries a booking request for one slot.
type BookAppointmentInput struct {
	TherapyID string
	Date      string
	StartTime string
	Notes     string
}

// ExecuteBookAppointment books a free weekday slot for the actor.
// PRE: actor is signed in
// POST: Appointment persisted as booked and a confirmation email queued
// INVARIANT: at most one active appointment per (date, start time)
func ExecuteBookAppointment(ctx context.Context, actor Actor, input BookAppointmentInput, deps AppointmentDeps) (appointment.Appointment, error) {
	if actor.AccountID == "" {
		return appointment.Appointment{}, ErrForbidden
	}
	now := deps.now()

	th, err := deps.TherapyStore.GetByID(ctx, input.TherapyID)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if !th.Active {
		return appointment.Appointment{}, therapy.ErrInactive
	}

	a := appointment.Appointment{
		ID:        newID(deps.GenerateID),
		AccountID: actor.AccountID,
		TherapyID: th.ID,
		Date:      strings.TrimSpace(input.Date),
		StartTime: strings.TrimSpace(input.StartTime),
		Status:    appointment.StatusBooked,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: now,
	}
	if err := a.Validate(); err != nil {
		return appointment.Appointment{}, err
	}
	if err := a.CheckBookable(now, week.LastBookableDay(now, deps.HorizonWeeks)); err != nil {
		return appointment.Appointment{}, err
	}

	if err := deps.AppointmentStore.Save(ctx, a); err != nil {
		slog.Info("appointment_event", "event", "booking_rejected", "date", a.Date, "start", a.StartTime, "error", err)
		return appointment.Appointment{}, err
	}
	slog.Info("appointment_event", "event", "booked", "appointment_id", a.ID, "account_id", a.AccountID, "date", a.Date, "start", a.StartTime)

	notifyAppointment(ctx, deps, a, th, "Your appointment is confirmed.", "Appointment confirmed")
	return a, nil
}

// ExecuteCancelAppointment cancels a booked appointment.
// Clients may cancel only their own future appointments; admins may cancel any booked one.
// POST: Status cancelled, slot freed, cancellation email queued
func ExecuteCancelAppointment(ctx context.Context, actor Actor, id string, deps AppointmentDeps) (appointment.Appointment, error) {
	a, err := deps.AppointmentStore.GetByID(ctx, id)
	if err != nil {
		return appointment.Appointment{}, err
	}
	now := deps.now()
	if !actor.IsAdmin() {
		if a.AccountID != actor.AccountID {
			return appointment.Appointment{}, appointment.ErrNotOwner
		}
		start, err := a.StartsAt(now.Location())
		if err != nil {
			return appointment.Appointment{}, err
		}
		if !start.After(now) {
			return appointment.Appointment{}, appointment.ErrInPast
		}
	}
	if err := a.Cancel(now); err != nil {
		return appointment.Appointment{}, err
	}
	if err := deps.AppointmentStore.Save(ctx, a); err != nil {
		return appointment.Appointment{}, err
	}
	slog.Info("appointment_event", "event", "cancelled", "appointment_id", a.ID, "actor", actor.AccountID)

	if th, err := deps.TherapyStore.GetByID(ctx, a.TherapyID); err == nil {
		notifyAppointment(ctx, deps, a, th, "Your appointment has been cancelled.", "Appointment cancelled")
	}
	return a, nil
}

// ExecuteCompleteAppointment marks a booked appointment as held.
// PRE: actor is an admin
func ExecuteCompleteAppointment(ctx context.Context, actor Actor, id string, deps AppointmentDeps) (appointment.Appointment, error) {
	if !actor.IsAdmin() {
		return appointment.Appointment{}, ErrForbidden
	}
	a, err := deps.AppointmentStore.GetByID(ctx, id)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if err := a.Complete(); err != nil {
		return appointment.Appointment{}, err
	}
	if err := deps.AppointmentStore.Save(ctx, a); err != nil {
		return appointment.Appointment{}, err
	}
	slog.Info("appointment_event", "event", "completed", "appointment_id", a.ID)
	return a, nil
}

// notifyAppointment queues an email about a. Failures are logged; the booking change stands.
func notifyAppointment(ctx context.Context, deps AppointmentDeps, a appointment.Appointment, th therapy.Therapy, lead, subject string) {
	if deps.Notifier == nil || deps.AccountStore == nil {
		return
	}
	acct, err := deps.AccountStore.GetByID(ctx, a.AccountID)
	if err != nil {
		slog.Error("appointment_event", "event", "notify_skipped", "appointment_id", a.ID, "error", err)
		return
	}
	name := acct.Email
	if deps.ProfileStore != nil {
		if p, err := deps.ProfileStore.GetByAccountID(ctx, a.AccountID); err == nil {
			name = p.DisplayName(acct.Email)
		}
	}

	when := a.Date + " " + a.StartTime
	if start, err := a.StartsAt(deps.now().Location()); err == nil {
		when = week.FormatLongDate(start) + " at " + a.StartTime
	}
	html, err := renderAppointmentEmail(appointmentEmailData{
		Name: name, Lead: lead, Therapy: th.Title, When: when, Notes: a.Notes,
	})
	if err != nil {
		slog.Error("appointment_event", "event", "notify_render_failed", "appointment_id", a.ID, "error", err)
		return
	}
	payload := EmailPayload{
		To:      deps.Notifier.recipients(acct.Email),
		Subject: subject + ": " + th.Title,
		HTML:    html,
	}
	if err := deps.Notifier.Enqueue(ctx, payload); err != nil {
		slog.Error("appointment_event", "event", "notify_failed", "appointment_id", a.ID, "error", err)
	}
}
