package week

import (
	"fmt"
	"sync"
	"time"
)

// DefaultHorizonWeeks is how many weeks past the current one can be browsed and booked.
const DefaultHorizonWeeks = 8

// DaysPerWindow is the number of weekdays shown at once (Monday to Friday).
const DaysPerWindow = 5

// ISOLayout is the date layout used as the identity of a Day.
const ISOLayout = "2006-01-02"

// Day is one weekday of the visible window.
type Day struct {
	Date       time.Time // midnight in the navigator's location
	ISODate    string    // 2006-01-02
	Weekday    time.Weekday
	DayOfMonth int
}

// Navigator tracks which Monday-to-Friday window is visible.
// The whole state is the week offset from the week containing today.
// INVARIANT: 0 <= offset <= horizon
type Navigator struct {
	mu      sync.Mutex
	now     func() time.Time
	horizon int
	offset  int
}

// NewNavigator creates a navigator anchored on the week containing now().
// PRE: now is non-nil
// POST: offset is 0; a negative horizon is treated as 0
func NewNavigator(now func() time.Time, horizonWeeks int) *Navigator {
	if horizonWeeks < 0 {
		horizonWeeks = 0
	}
	return &Navigator{now: now, horizon: horizonWeeks}
}

// Offset returns the number of weeks between the visible window and the current week.
func (n *Navigator) Offset() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.offset
}

// Horizon returns the last reachable offset.
func (n *Navigator) Horizon() int {
	return n.horizon
}

// GoNext reports whether moving one week forward stays within the horizon.
// INVARIANT: state is not mutated
func (n *Navigator) GoNext() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.offset+1 <= n.horizon
}

// GoPrevious reports whether moving one week back stays at or after the current week.
// INVARIANT: state is not mutated
func (n *Navigator) GoPrevious() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.offset-1 >= 0
}

// MoveWeek moves the window by one week. direction must be +1 or -1.
// PRE: none
// POST: offset changes by direction if the move stays in bounds, otherwise nothing changes
func (n *Navigator) MoveWeek(direction int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if direction != 1 && direction != -1 {
		return
	}
	next := n.offset + direction
	if next < 0 || next > n.horizon {
		return
	}
	n.offset = next
}

// Restore replays single-week moves until offset is reached or a bound stops it.
// Used to rebuild a navigator from a query parameter.
// POST: Offset() == clamp(offset, 0, horizon) when starting from 0
func (n *Navigator) Restore(offset int) {
	for n.Offset() < offset && n.GoNext() {
		n.MoveWeek(1)
	}
	for n.Offset() > offset && n.GoPrevious() {
		n.MoveWeek(-1)
	}
}

// WeekDays returns Monday to Friday of the visible week.
// Repeated calls without navigation return equal sequences.
func (n *Navigator) WeekDays() []Day {
	n.mu.Lock()
	offset := n.offset
	n.mu.Unlock()

	monday := StartOfWeek(n.now()).AddDate(0, 0, 7*offset)
	days := make([]Day, 0, DaysPerWindow)
	for i := 0; i < DaysPerWindow; i++ {
		d := monday.AddDate(0, 0, i)
		days = append(days, Day{
			Date:       d,
			ISODate:    d.Format(ISOLayout),
			Weekday:    d.Weekday(),
			DayOfMonth: d.Day(),
		})
	}
	return days
}

// CurrentMonthLabel names the month of the visible window.
// A window straddling two months names both ("October / November 2026");
// straddling two years names both years.
func (n *Navigator) CurrentMonthLabel() string {
	days := n.WeekDays()
	return MonthLabel(days[0].Date, days[len(days)-1].Date)
}

// MonthLabel formats the month span between first and last.
func MonthLabel(first, last time.Time) string {
	switch {
	case first.Year() != last.Year():
		return fmt.Sprintf("%s %d / %s %d", first.Month(), first.Year(), last.Month(), last.Year())
	case first.Month() != last.Month():
		return fmt.Sprintf("%s / %s %d", first.Month(), last.Month(), last.Year())
	default:
		return fmt.Sprintf("%s %d", first.Month(), first.Year())
	}
}

// StartOfWeek returns midnight of the Monday of the week containing t, in t's location.
// Sunday belongs to the week that started six days earlier.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// FormatDayLabel renders a short column header such as "Mon 19".
func FormatDayLabel(d Day) string {
	return d.Date.Format("Mon 2")
}

// FormatLongDate renders a date such as "Monday, 19 October 2026".
func FormatLongDate(t time.Time) string {
	return t.Format("Monday, 2 January 2006")
}

// ParseISODate parses a Day identity back into a date in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(ISOLayout, s, loc)
}

// LastBookableDay returns the Friday of the furthest week a navigator with the
// given horizon can reach from now.
func LastBookableDay(now time.Time, horizonWeeks int) time.Time {
	if horizonWeeks < 0 {
		horizonWeeks = 0
	}
	return StartOfWeek(now).AddDate(0, 0, 7*horizonWeeks+DaysPerWindow-1)
}
