package projections

import (
	"context"
	"time"

	"practice/internal/domain/appointment"
	"practice/internal/domain/week"
)

// SlotStatus is how a slot is shown on the schedule.
type SlotStatus string

// Slot statuses
const (
	SlotFree  SlotStatus = "free"
	SlotTaken SlotStatus = "taken"
	SlotMine  SlotStatus = "mine"
	SlotPast  SlotStatus = "past"
)

// GetWeekScheduleQuery carries query parameters.
type GetWeekScheduleQuery struct {
	Week     int    // requested offset, clamped into the horizon
	ViewerID string // signed-in account, empty for visitors
}

// ScheduleSlot is one cell of the schedule grid.
type ScheduleSlot struct {
	Date          string
	StartTime     string
	Status        SlotStatus
	AppointmentID string // set for SlotMine
}

// ScheduleDay is one column of the schedule grid.
type ScheduleDay struct {
	Day   week.Day
	Label string
	Slots []ScheduleSlot
}

// GetWeekScheduleResult carries the query result.
type GetWeekScheduleResult struct {
	MonthLabel  string
	Offset      int
	HasPrevious bool
	HasNext     bool
	Days        []ScheduleDay
	SlotTimes   []string
}

// PreviousWeek returns the offset of the previous window.
func (r GetWeekScheduleResult) PreviousWeek() int { return r.Offset - 1 }

// NextWeek returns the offset of the next window.
func (r GetWeekScheduleResult) NextWeek() int { return r.Offset + 1 }

// GetWeekScheduleDeps holds dependencies for GetWeekSchedule.
type GetWeekScheduleDeps struct {
	AppointmentStore AppointmentStore
	HorizonWeeks     int
	Location         *time.Location
	Now              func() time.Time
}

// QueryGetWeekSchedule builds the Monday-to-Friday slot grid for one week.
// PRE: Valid query parameters
// POST: Days has week.DaysPerWindow entries, each with one slot per appointment.SlotTimes
// INVARIANT: a slot that has started is past even when it is booked by someone else
func QueryGetWeekSchedule(ctx context.Context, query GetWeekScheduleQuery, deps GetWeekScheduleDeps) (GetWeekScheduleResult, error) {
	clock := deps.Now
	if clock == nil {
		clock = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.Local
	}
	now := func() time.Time { return clock().In(loc) }

	nav := week.NewNavigator(now, deps.HorizonWeeks)
	nav.Restore(query.Week)
	days := nav.WeekDays()

	booked, err := deps.AppointmentStore.ListActiveInRange(ctx, days[0].ISODate, days[len(days)-1].ISODate)
	if err != nil {
		return GetWeekScheduleResult{}, err
	}
	bySlot := make(map[string]appointment.Appointment, len(booked))
	for _, a := range booked {
		bySlot[a.Date+" "+a.StartTime] = a
	}

	current := now()
	result := GetWeekScheduleResult{
		MonthLabel:  week.MonthLabel(days[0].Date, days[len(days)-1].Date),
		Offset:      nav.Offset(),
		HasPrevious: nav.GoPrevious(),
		HasNext:     nav.GoNext(),
		SlotTimes:   appointment.SlotTimes,
	}
	for _, d := range days {
		col := ScheduleDay{Day: d, Label: week.FormatDayLabel(d)}
		for _, hhmm := range appointment.SlotTimes {
			slot := ScheduleSlot{Date: d.ISODate, StartTime: hhmm, Status: SlotFree}
			start, _ := time.ParseInLocation(appointment.DateLayout+" "+appointment.TimeLayout, d.ISODate+" "+hhmm, loc)
			a, taken := bySlot[d.ISODate+" "+hhmm]
			switch {
			case !start.After(current):
				slot.Status = SlotPast
			case taken && query.ViewerID != "" && a.AccountID == query.ViewerID:
				slot.Status = SlotMine
				slot.AppointmentID = a.ID
			case taken:
				slot.Status = SlotTaken
			}
			col.Slots = append(col.Slots, slot)
		}
		result.Days = append(result.Days, col)
	}
	return result, nil
}
