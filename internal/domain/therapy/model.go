package therapy

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length constants for user-editable fields.
const (
	MaxTitleLength   = 120
	MaxSummaryLength = 300
	MaxDurationMin   = 240
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("therapy title cannot be empty")
	ErrTitleTooLong    = errors.New("therapy title cannot exceed 120 characters")
	ErrSummaryTooLong  = errors.New("therapy summary cannot exceed 300 characters")
	ErrInvalidDuration = errors.New("therapy duration must be between 1 and 240 minutes")
	ErrNegativePrice   = errors.New("therapy price cannot be negative")
	ErrNotFound        = errors.New("therapy not found")
	ErrInactive        = errors.New("therapy is not currently offered")
)

// Therapy is a service offered by the practice.
// Description supports Markdown formatting.
type Therapy struct {
	ID          string
	Title       string
	Summary     string
	Description string
	DurationMin int
	PriceCents  int
	ImageKey    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Therapy has valid data.
// PRE: Therapy struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Therapy) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if utf8.RuneCountInString(t.Summary) > MaxSummaryLength {
		return ErrSummaryTooLong
	}
	if t.DurationMin <= 0 || t.DurationMin > MaxDurationMin {
		return ErrInvalidDuration
	}
	if t.PriceCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// PriceLabel formats the price for display, e.g. "$95.00". Zero is "Free".
func (t Therapy) PriceLabel() string {
	if t.PriceCents == 0 {
		return "Free"
	}
	return fmt.Sprintf("$%d.%02d", t.PriceCents/100, t.PriceCents%100)
}

// DurationLabel formats the session length, e.g. "50 min" or "1 h 30 min".
func (t Therapy) DurationLabel() string {
	h, m := t.DurationMin/60, t.DurationMin%60
	switch {
	case h == 0:
		return fmt.Sprintf("%d min", m)
	case m == 0:
		return fmt.Sprintf("%d h", h)
	default:
		return fmt.Sprintf("%d h %d min", h, m)
	}
}
