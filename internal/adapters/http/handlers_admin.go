package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/imageupload"
	"practice/internal/application/listutil"
	"practice/internal/application/orchestrators"
	"practice/internal/application/projections"
	"practice/internal/domain/account"
	"practice/internal/domain/advice"
	"practice/internal/domain/appointment"
	"practice/internal/domain/audit"
	"practice/internal/domain/image"
	"practice/internal/domain/therapy"
)

func (s *server) newID() string {
	if s.opts.GenerateID != nil {
		return s.opts.GenerateID()
	}
	return generateID()
}

func (s *server) therapyDeps(id string) orchestrators.TherapyDeps {
	return orchestrators.TherapyDeps{
		TherapyStore: s.stores.TherapyStore,
		GenerateID:   func() string { return id },
		Now:          s.opts.Now,
	}
}

func (s *server) adviceDeps(id string) orchestrators.AdviceDeps {
	return orchestrators.AdviceDeps{
		AdviceStore: s.stores.AdviceStore,
		GenerateID:  func() string { return id },
		Now:         s.opts.Now,
	}
}

// handleAdminDashboard handles GET /admin
func (s *server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	today := s.now().Format(appointment.DateLayout)
	upcoming, err := projections.QueryGetAppointmentList(r.Context(), projections.GetAppointmentListQuery{
		Status:  appointment.StatusBooked,
		From:    today,
		Page:    1,
		PerPage: listutil.PerPageOptions[0],
	}, s.appointmentListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	outboxStatus, err := projections.QueryGetOutboxStatus(r.Context(), s.stores.OutboxStore)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_dashboard.html", map[string]any{
		"Upcoming":      upcoming.Appointments,
		"UpcomingTotal": upcoming.Page.Total,
		"Outbox":        outboxStatus,
	})
}

// handleAdminTherapies handles GET /admin/therapies
func (s *server) handleAdminTherapies(w http.ResponseWriter, r *http.Request) {
	cards, err := projections.QueryGetTherapyList(r.Context(), projections.GetTherapyListQuery{}, s.therapyListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_therapies.html", map[string]any{
		"Therapies": cards,
		"Error":     r.URL.Query().Get("error"),
	})
}

// handleAdminTherapyForm handles GET /admin/therapies/new and GET /admin/therapies/{id}
func (s *server) handleAdminTherapyForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.render(w, r, http.StatusOK, "admin_therapy_form.html", map[string]any{
			"Values": url.Values{"active": {"on"}, "duration_min": {"50"}},
		})
		return
	}
	t, err := s.stores.TherapyStore.GetByID(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	values := url.Values{
		"title":        {t.Title},
		"summary":      {t.Summary},
		"description":  {t.Description},
		"duration_min": {strconv.Itoa(t.DurationMin)},
		"price":        {strconv.FormatFloat(float64(t.PriceCents)/100, 'f', 2, 64)},
	}
	if t.Active {
		values.Set("active", "on")
	}
	s.render(w, r, http.StatusOK, "admin_therapy_form.html", map[string]any{
		"ID":         t.ID,
		"Values":     values,
		"PreviewURL": imageURL(s.cdnBase(), t.ImageKey, image.FolderTherapy),
	})
}

// handleAdminTherapySave handles POST /admin/therapies and POST /admin/therapies/{id}
func (s *server) handleAdminTherapySave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)

	current := therapy.Therapy{ID: r.PathValue("id")}
	creating := current.ID == ""
	if creating {
		current.ID = s.newID()
	} else {
		existing, err := s.stores.TherapyStore.GetByID(ctx, current.ID)
		if err != nil {
			httpError(w, err)
			return
		}
		current = existing
	}

	session, err := parseImageForm(w, r, current.ID, imageURL(s.cdnBase(), current.ImageKey, image.FolderTherapy))
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	target := newTherapyTarget(r.Form, current)

	input, err := imageupload.Submit(ctx, s.opts.Uploader, target, session)
	if err == nil && input != nil {
		action := audit.ActionUpdate
		if creating {
			input.ID = ""
			action = audit.ActionCreate
			_, err = orchestrators.ExecuteCreateTherapy(ctx, actorFrom(sess), *input, s.therapyDeps(current.ID))
		} else {
			_, err = orchestrators.ExecuteUpdateTherapy(ctx, actorFrom(sess), *input, s.therapyDeps(current.ID))
		}
		if err == nil {
			s.audit(r, s.auditEvent(r, audit.CategoryCatalog, action).
				WithResource("therapy", current.ID).WithDescription(input.Title))
			http.Redirect(w, r, "/admin/therapies", http.StatusSeeOther)
			return
		}
	}
	var extra map[string]any
	if !creating {
		extra = map[string]any{"ID": current.ID}
	}
	s.renderImageForm(w, r, "admin_therapy_form.html", target.form, session, err, extra)
}

// handleAdminTherapyDelete handles POST /admin/therapies/{id}/delete
func (s *server) handleAdminTherapyDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteTherapy(r.Context(), actorFrom(sess), id, s.therapyDeps(""))
	if errors.Is(err, orchestrators.ErrTherapyInUse) {
		http.Redirect(w, r, "/admin/therapies?"+url.Values{"error": {userMessage(err)}}.Encode(), http.StatusSeeOther)
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryCatalog, audit.ActionDelete).WithResource("therapy", id))
	http.Redirect(w, r, "/admin/therapies", http.StatusSeeOther)
}

// handleAdminAdvice handles GET /admin/advice?status=&page=
func (s *server) handleAdminAdvice(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), advice.ValidStatuses)
	result, err := projections.QueryGetAdviceList(r.Context(), projections.GetAdviceListQuery{
		Status:  params.Status,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, s.adviceListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_advice.html", map[string]any{
		"Articles": result.Articles,
		"Page":     result.Page,
		"Status":   params.Status,
		"Statuses": advice.ValidStatuses,
	})
}

// handleAdminAdviceForm handles GET /admin/advice/new and GET /admin/advice/{id}
func (s *server) handleAdminAdviceForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.render(w, r, http.StatusOK, "admin_advice_form.html", map[string]any{"Values": url.Values{}})
		return
	}
	a, err := s.stores.AdviceStore.GetByID(r.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_advice_form.html", map[string]any{
		"ID":         a.ID,
		"Published":  a.IsPublished(),
		"Slug":       a.Slug,
		"Values":     url.Values{"title": {a.Title}, "slug": {a.Slug}, "body": {a.Body}},
		"PreviewURL": imageURL(s.cdnBase(), a.ImageKey, image.FolderAdvice),
	})
}

// handleAdminAdviceSave handles POST /admin/advice and POST /admin/advice/{id}
func (s *server) handleAdminAdviceSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSessionFromContext(ctx)

	current := advice.Advice{ID: r.PathValue("id")}
	creating := current.ID == ""
	if creating {
		current.ID = s.newID()
	} else {
		existing, err := s.stores.AdviceStore.GetByID(ctx, current.ID)
		if err != nil {
			httpError(w, err)
			return
		}
		current = existing
	}

	session, err := parseImageForm(w, r, current.ID, imageURL(s.cdnBase(), current.ImageKey, image.FolderAdvice))
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	target := newAdviceTarget(r.Form, current)

	input, err := imageupload.Submit(ctx, s.opts.Uploader, target, session)
	if err == nil && input != nil {
		action := audit.ActionUpdate
		if creating {
			input.ID = ""
			action = audit.ActionCreate
			_, err = orchestrators.ExecuteCreateAdvice(ctx, actorFrom(sess), *input, s.adviceDeps(current.ID))
		} else {
			_, err = orchestrators.ExecuteUpdateAdvice(ctx, actorFrom(sess), *input, s.adviceDeps(current.ID))
		}
		if err == nil {
			s.audit(r, s.auditEvent(r, audit.CategoryAdvice, action).
				WithResource("advice", current.ID).WithDescription(input.Title))
			http.Redirect(w, r, "/admin/advice", http.StatusSeeOther)
			return
		}
	}
	extra := map[string]any{}
	if !creating {
		extra["ID"] = current.ID
		extra["Published"] = current.IsPublished()
		extra["Slug"] = current.Slug
	}
	s.renderImageForm(w, r, "admin_advice_form.html", target.form, session, err, extra)
}

// handleAdminAdvicePublish handles POST /admin/advice/{id}/publish
func (s *server) handleAdminAdvicePublish(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	a, err := orchestrators.ExecutePublishAdvice(r.Context(), actorFrom(sess), r.PathValue("id"), s.adviceDeps(""))
	if err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryAdvice, audit.ActionPublish).
		WithResource("advice", a.ID).WithDescription(a.Title))
	http.Redirect(w, r, "/admin/advice", http.StatusSeeOther)
}

// handleAdminAdviceDelete handles POST /admin/advice/{id}/delete
func (s *server) handleAdminAdviceDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	if err := orchestrators.ExecuteDeleteAdvice(r.Context(), actorFrom(sess), id, s.adviceDeps("")); err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryAdvice, audit.ActionDelete).WithResource("advice", id))
	http.Redirect(w, r, "/admin/advice", http.StatusSeeOther)
}

// handleAdminUsers handles GET /admin/users?role=&q=&page=
func (s *server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := listutil.Parse(q, nil)
	role := q.Get("role")
	if role != account.RoleAdmin && role != account.RoleClient {
		role = ""
	}
	result, err := projections.QueryGetUserList(r.Context(), projections.GetUserListQuery{
		Role:    role,
		Search:  params.Search,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, projections.GetUserListDeps{
		AccountStore: s.stores.AccountStore,
		ProfileStore: s.stores.ProfileStore,
		Now:          s.opts.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	s.render(w, r, http.StatusOK, "admin_users.html", map[string]any{
		"Users":  result.Users,
		"Page":   result.Page,
		"Role":   role,
		"Roles":  account.ValidRoles,
		"Search": params.Search,
		"SelfID": sess.AccountID,
		"Error":  q.Get("error"),
	})
}

// userAdminResult redirects back to the user list, carrying a known error as a message.
func userAdminResult(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
		return
	}
	if status, ok := errorStatus(err); !ok || status == http.StatusNotFound {
		httpError(w, err)
		return
	}
	http.Redirect(w, r, "/admin/users?"+url.Values{"error": {userMessage(err)}}.Encode(), http.StatusSeeOther)
}

// handleAdminUserRole handles POST /admin/users/{id}/role. The user's sessions end.
func (s *server) handleAdminUserRole(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	role := r.FormValue("role")
	err := orchestrators.ExecuteChangeRole(r.Context(), actorFrom(sess), id, role, orchestrators.UserAdminDeps{
		AccountStore: s.stores.AccountStore,
	})
	if err == nil {
		err = s.sessions.DeleteAccount(r.Context(), id)
		s.audit(r, s.auditEvent(r, audit.CategoryAccount, audit.ActionUpdate).
			WithSeverity(audit.SeverityWarning).WithResource("account", id).WithDescription("Role changed to "+role))
	}
	userAdminResult(w, r, err)
}

// handleAdminUserDelete handles POST /admin/users/{id}/delete
func (s *server) handleAdminUserDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteUser(r.Context(), actorFrom(sess), id, orchestrators.UserAdminDeps{
		AccountStore: s.stores.AccountStore,
	})
	if err == nil {
		err = s.sessions.DeleteAccount(r.Context(), id)
		s.audit(r, s.auditEvent(r, audit.CategoryAccount, audit.ActionDelete).
			WithSeverity(audit.SeverityWarning).WithResource("account", id))
	}
	userAdminResult(w, r, err)
}

// handleAdminAppointments handles GET /admin/appointments?status=&from=&to=&page=
func (s *server) handleAdminAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := listutil.Parse(q, appointment.ValidStatuses)
	from, to := validDate(q.Get("from")), validDate(q.Get("to"))
	result, err := projections.QueryGetAppointmentList(r.Context(), projections.GetAppointmentListQuery{
		Status:  params.Status,
		From:    from,
		To:      to,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, s.appointmentListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_appointments.html", map[string]any{
		"Appointments": result.Appointments,
		"Page":         result.Page,
		"Status":       params.Status,
		"Statuses":     appointment.ValidStatuses,
		"From":         from,
		"To":           to,
	})
}

// validDate returns s when it is a YYYY-MM-DD date, "" otherwise.
func validDate(s string) string {
	if _, err := time.Parse(appointment.DateLayout, s); err != nil {
		return ""
	}
	return s
}

// handleAdminAppointmentComplete handles POST /admin/appointments/{id}/complete
func (s *server) handleAdminAppointmentComplete(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	if _, err := orchestrators.ExecuteCompleteAppointment(r.Context(), actorFrom(sess), id, s.appointmentDeps()); err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryAppointment, audit.ActionComplete).WithResource("appointment", id))
	http.Redirect(w, r, backTo(r, "/admin/appointments"), http.StatusSeeOther)
}

// handleAdminAppointmentCancel handles POST /admin/appointments/{id}/cancel
func (s *server) handleAdminAppointmentCancel(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	id := r.PathValue("id")
	if _, err := orchestrators.ExecuteCancelAppointment(r.Context(), actorFrom(sess), id, s.appointmentDeps()); err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategoryAppointment, audit.ActionCancel).WithResource("appointment", id))
	http.Redirect(w, r, backTo(r, "/admin/appointments"), http.StatusSeeOther)
}

// backTo returns the local "back" form value, or fallback.
func backTo(r *http.Request, fallback string) string {
	if back := r.FormValue("back"); back != "" && safeNext(back) == back {
		return back
	}
	return fallback
}
