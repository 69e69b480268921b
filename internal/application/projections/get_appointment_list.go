package projections

import (
	"context"
	"time"

	"practice/internal/adapters/storage/appointment"
	"practice/internal/application/listutil"
	domainAppointment "practice/internal/domain/appointment"
	"practice/internal/domain/week"
)

// GetAppointmentListQuery carries query parameters.
type GetAppointmentListQuery struct {
	Status  string
	From    string // inclusive YYYY-MM-DD
	To      string // inclusive YYYY-MM-DD
	Page    int
	PerPage int
}

// AppointmentRow is an appointment joined with its client and therapy.
type AppointmentRow struct {
	Appointment  domainAppointment.Appointment
	ClientEmail  string
	ClientName   string
	TherapyTitle string
	When         string
	CanCancel    bool
}

// GetAppointmentListResult carries the query result.
type GetAppointmentListResult struct {
	Appointments []AppointmentRow
	Page         listutil.Page
}

// GetAppointmentListDeps holds dependencies for appointment queries.
type GetAppointmentListDeps struct {
	AppointmentStore AppointmentStore
	AccountStore     AccountStore
	ProfileStore     ProfileStore
	TherapyStore     TherapyStore
	Location         *time.Location
	Now              func() time.Time
}

func (d GetAppointmentListDeps) now() time.Time {
	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	if d.Location != nil {
		now = now.In(d.Location)
	}
	return now
}

// QueryGetAppointmentList returns one page of appointments for the admin table, latest slot first.
// PRE: Valid query parameters
// POST: Rows for deleted accounts keep an empty ClientEmail
func QueryGetAppointmentList(ctx context.Context, query GetAppointmentListQuery, deps GetAppointmentListDeps) (GetAppointmentListResult, error) {
	filter := appointment.ListFilter{Status: query.Status, From: query.From, To: query.To}
	total, err := deps.AppointmentStore.Count(ctx, filter)
	if err != nil {
		return GetAppointmentListResult{}, err
	}
	page := listutil.NewPage(query.Page, query.PerPage, total)
	filter.Limit, filter.Offset = page.PerPage, page.Offset()

	list, err := deps.AppointmentStore.List(ctx, filter)
	if err != nil {
		return GetAppointmentListResult{}, err
	}
	rows, err := appointmentRows(ctx, list, true, deps)
	if err != nil {
		return GetAppointmentListResult{}, err
	}
	return GetAppointmentListResult{Appointments: rows, Page: page}, nil
}

// GetMyAppointmentsResult carries the query result.
type GetMyAppointmentsResult struct {
	Upcoming []AppointmentRow // soonest first
	Past     []AppointmentRow // most recent first, cancelled included
}

// QueryGetMyAppointments splits a client's appointments into upcoming and past.
// INVARIANT: only booked appointments that have not started are upcoming
func QueryGetMyAppointments(ctx context.Context, accountID string, deps GetAppointmentListDeps) (GetMyAppointmentsResult, error) {
	list, err := deps.AppointmentStore.ListByAccount(ctx, accountID)
	if err != nil {
		return GetMyAppointmentsResult{}, err
	}
	rows, err := appointmentRows(ctx, list, false, deps)
	if err != nil {
		return GetMyAppointmentsResult{}, err
	}

	var result GetMyAppointmentsResult
	for _, r := range rows {
		if r.CanCancel {
			result.Upcoming = append([]AppointmentRow{r}, result.Upcoming...)
		} else {
			result.Past = append(result.Past, r)
		}
	}
	return result, nil
}

// appointmentRows joins appointments with therapy titles and, when withClients, client details.
// CanCancel is set for booked appointments that have not started.
func appointmentRows(ctx context.Context, list []domainAppointment.Appointment, withClients bool, deps GetAppointmentListDeps) ([]AppointmentRow, error) {
	titles, err := therapyTitles(ctx, deps.TherapyStore)
	if err != nil {
		return nil, err
	}

	emails := map[string]string{}
	names := map[string]string{}
	if withClients {
		var ids []string
		for _, a := range list {
			if _, seen := emails[a.AccountID]; seen {
				continue
			}
			emails[a.AccountID] = ""
			ids = append(ids, a.AccountID)
			if acct, err := deps.AccountStore.GetByID(ctx, a.AccountID); err == nil {
				emails[a.AccountID] = acct.Email
			}
		}
		profiles, err := deps.ProfileStore.GetMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		for id, p := range profiles {
			names[id] = p.Name
		}
	}

	now := deps.now()
	rows := make([]AppointmentRow, 0, len(list))
	for _, a := range list {
		row := AppointmentRow{
			Appointment:  a,
			ClientEmail:  emails[a.AccountID],
			ClientName:   names[a.AccountID],
			TherapyTitle: titles[a.TherapyID],
			When:         a.Date + " " + a.StartTime,
		}
		if start, err := a.StartsAt(now.Location()); err == nil {
			row.When = week.FormatLongDate(start) + " at " + a.StartTime
			row.CanCancel = a.Status == domainAppointment.StatusBooked && start.After(now)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
