package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/imageupload"
	"practice/internal/application/orchestrators"
	"practice/internal/application/projections"
	"practice/internal/domain/audit"
	"practice/internal/domain/image"
	"practice/internal/domain/profile"
)

// previewWait bounds how long a re-rendered form waits for the image preview.
const previewWait = 2 * time.Second

func (s *server) appointmentDeps() orchestrators.AppointmentDeps {
	return orchestrators.AppointmentDeps{
		AppointmentStore: s.stores.AppointmentStore,
		TherapyStore:     s.stores.TherapyStore,
		AccountStore:     s.stores.AccountStore,
		ProfileStore:     s.stores.ProfileStore,
		Notifier:         s.opts.Notifier,
		HorizonWeeks:     s.opts.HorizonWeeks,
		Location:         s.opts.Location,
		GenerateID:       s.opts.GenerateID,
		Now:              s.opts.Now,
	}
}

func (s *server) appointmentListDeps() projections.GetAppointmentListDeps {
	return projections.GetAppointmentListDeps{
		AppointmentStore: s.stores.AppointmentStore,
		AccountStore:     s.stores.AccountStore,
		ProfileStore:     s.stores.ProfileStore,
		TherapyStore:     s.stores.TherapyStore,
		Location:         s.opts.Location,
		Now:              s.opts.Now,
	}
}

// loadProfile returns the account's profile, or an empty one keyed by the account.
func (s *server) loadProfile(ctx context.Context, accountID string) (profile.Profile, error) {
	p, err := s.stores.ProfileStore.GetByAccountID(ctx, accountID)
	if errors.Is(err, profile.ErrNotFound) {
		return profile.Profile{AccountID: accountID}, nil
	}
	return p, err
}

func (s *server) avatarURL(p profile.Profile) string {
	return imageURL(s.cdnBase(), p.AvatarKey, image.FolderAvatar)
}

// handleProfile handles GET /profile
func (s *server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	p, err := s.loadProfile(r.Context(), sess.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	mine, err := projections.QueryGetMyAppointments(r.Context(), sess.AccountID, s.appointmentListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "profile.html", map[string]any{
		"Profile":   p,
		"AvatarURL": s.avatarURL(p),
		"Upcoming":  mine.Upcoming,
	})
}

// handleProfileEditForm handles GET /profile/edit
func (s *server) handleProfileEditForm(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	p, err := s.loadProfile(r.Context(), sess.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "profile_edit.html", map[string]any{
		"Values":     url.Values{"name": {p.Name}, "phone": {p.Phone}, "child_name": {p.ChildName}},
		"PreviewURL": s.avatarURL(p),
	})
}

// handleProfileEdit handles POST /profile/edit (multipart, optional avatar).
func (s *server) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	ctx := r.Context()
	p, err := s.loadProfile(ctx, sess.AccountID)
	if err != nil {
		internalError(w, err)
		return
	}
	session, err := parseImageForm(w, r, p.AccountID, s.avatarURL(p))
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	target := newProfileTarget(r.Form, p)

	input, err := imageupload.Submit(ctx, s.opts.Uploader, target, session)
	if err == nil && input != nil {
		_, err = orchestrators.ExecuteUpdateProfile(ctx, actorFrom(sess), *input, orchestrators.ProfileDeps{
			ProfileStore: s.stores.ProfileStore,
			Now:          s.opts.Now,
		})
		if err == nil {
			http.Redirect(w, r, "/profile", http.StatusSeeOther)
			return
		}
	}
	s.renderImageForm(w, r, "profile_edit.html", target.form, session, err, nil)
}

// renderImageForm re-renders an image form after a failed submission, keeping the
// typed values and the preview of a chosen file.
func (s *server) renderImageForm(w http.ResponseWriter, r *http.Request, page string, form *imageupload.FieldForm, session *imageupload.Session, err error, extra map[string]any) {
	status := http.StatusBadRequest
	data := map[string]any{
		"Values":      form.Values(),
		"FieldErrors": form.Errors(),
	}
	if err != nil {
		known, ok := errorStatus(err)
		if !ok {
			internalError(w, err)
			return
		}
		status = known
		data["Error"] = userMessage(err)
	}
	waitCtx, cancel := context.WithTimeout(r.Context(), previewWait)
	defer cancel()
	session.WaitPreview(waitCtx)
	data["PreviewURL"] = session.PreviewURL()
	data["UploadState"] = string(session.State())
	for k, v := range extra {
		data[k] = v
	}
	s.render(w, r, status, page, data)
}

// handleMyAppointments handles GET /profile/appointments
func (s *server) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	mine, err := projections.QueryGetMyAppointments(r.Context(), sess.AccountID, s.appointmentListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "my_appointments.html", map[string]any{
		"Upcoming":  mine.Upcoming,
		"Past":      mine.Past,
		"Cancelled": r.URL.Query().Get("cancelled") == "1",
	})
}

// handleBook handles POST /appointments. Failures go back to the schedule with a message.
func (s *server) handleBook(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	week := r.FormValue("week")

	appt, err := orchestrators.ExecuteBookAppointment(r.Context(), actorFrom(sess), orchestrators.BookAppointmentInput{
		TherapyID: r.FormValue("therapy_id"),
		Date:      r.FormValue("date"),
		StartTime: r.FormValue("start_time"),
		Notes:     r.FormValue("notes"),
	}, s.appointmentDeps())

	q := url.Values{"week": {week}}
	if err != nil {
		if _, ok := errorStatus(err); !ok {
			internalError(w, err)
			return
		}
		q.Set("error", userMessage(err))
	} else {
		s.audit(r, s.auditEvent(r, audit.CategoryAppointment, audit.ActionBook).
			WithResource("appointment", appt.ID).WithDescription(appt.Date+" "+appt.StartTime))
		q.Set("booked", "1")
	}
	http.Redirect(w, r, "/schedule?"+q.Encode(), http.StatusSeeOther)
}

// handleCancel handles POST /appointments/{id}/cancel
func (s *server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	_, err := orchestrators.ExecuteCancelAppointment(r.Context(), actorFrom(sess), id, s.appointmentDeps())
	if err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryAppointment, audit.ActionCancel).WithResource("appointment", id))
	http.Redirect(w, r, "/profile/appointments?cancelled=1", http.StatusSeeOther)
}
