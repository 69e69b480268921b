package appointment

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Appointment statuses
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ValidStatuses contains all valid appointment statuses.
var ValidStatuses = []string{StatusBooked, StatusCancelled, StatusCompleted}

// Layouts used for the stored date and start time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// MaxNotesLength bounds the free-text note a client leaves with a booking.
const MaxNotesLength = 500

// SlotTimes are the bookable start times on every weekday. Sessions run for an hour,
// so the last one ends at 16:00.
var SlotTimes = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}

// Domain errors
var (
	ErrEmptyAccountID = errors.New("appointment account ID cannot be empty")
	ErrEmptyTherapyID = errors.New("appointment therapy ID cannot be empty")
	ErrInvalidDate    = errors.New("appointment date must be YYYY-MM-DD")
	ErrInvalidSlot    = errors.New("appointment start time is not a bookable slot")
	ErrWeekend        = errors.New("appointments are only available Monday to Friday")
	ErrInPast         = errors.New("appointment time has already passed")
	ErrBeyondHorizon  = errors.New("appointment is beyond the booking horizon")
	ErrInvalidStatus  = errors.New("appointment status must be one of: booked, cancelled, completed")
	ErrNotesTooLong   = errors.New("appointment notes cannot exceed 500 characters")
	ErrSlotTaken      = errors.New("this slot has already been booked")
	ErrNotCancellable = errors.New("only booked appointments can be cancelled")
	ErrNotCompletable = errors.New("only booked appointments can be completed")
	ErrNotFound       = errors.New("appointment not found")
	ErrNotOwner       = errors.New("appointment belongs to another account")
)

// Appointment is one booked session in a weekday slot.
type Appointment struct {
	ID          string
	AccountID   string
	TherapyID   string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM, one of SlotTimes
	Status      string // booked, cancelled, completed
	Notes       string
	CreatedAt   time.Time
	CancelledAt time.Time
}

// Validate checks if the Appointment has valid data.
// PRE: Appointment struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Appointment) Validate() error {
	if strings.TrimSpace(a.AccountID) == "" {
		return ErrEmptyAccountID
	}
	if strings.TrimSpace(a.TherapyID) == "" {
		return ErrEmptyTherapyID
	}
	day, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		return ErrInvalidDate
	}
	if !IsWeekday(day) {
		return ErrWeekend
	}
	if !IsSlot(a.StartTime) {
		return ErrInvalidSlot
	}
	if !slices.Contains(ValidStatuses, a.Status) {
		return ErrInvalidStatus
	}
	if len([]rune(a.Notes)) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// StartsAt returns the start instant in loc.
// PRE: Date and StartTime are well-formed
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.StartTime, loc)
}

// CheckBookable verifies the requested slot against the clock and the booking horizon.
// windowEnd is the last bookable calendar day (inclusive).
// PRE: Validate() returned nil
// POST: Returns nil if the slot starts after now and on or before windowEnd
func (a *Appointment) CheckBookable(now time.Time, windowEnd time.Time) error {
	start, err := a.StartsAt(now.Location())
	if err != nil {
		return ErrInvalidDate
	}
	if !start.After(now) {
		return ErrInPast
	}
	y, m, d := windowEnd.Date()
	limit := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if !start.Before(limit) {
		return ErrBeyondHorizon
	}
	return nil
}

// Cancel moves a booked appointment to cancelled.
// PRE: Status is booked
// POST: Status is cancelled, CancelledAt is now
func (a *Appointment) Cancel(now time.Time) error {
	if a.Status != StatusBooked {
		return ErrNotCancellable
	}
	a.Status = StatusCancelled
	a.CancelledAt = now
	return nil
}

// Complete marks a booked appointment as held.
// PRE: Status is booked
// POST: Status is completed
func (a *Appointment) Complete() error {
	if a.Status != StatusBooked {
		return ErrNotCompletable
	}
	a.Status = StatusCompleted
	return nil
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

// IsSlot reports whether hhmm is a bookable start time.
func IsSlot(hhmm string) bool {
	return slices.Contains(SlotTimes, hhmm)
}

// IsWeekday reports whether day falls Monday to Friday.
func IsWeekday(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
