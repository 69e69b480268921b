package web

import (
	"errors"
	"net/http"
	"strconv"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/listutil"
	"practice/internal/application/projections"
	"practice/internal/domain/advice"
	"practice/internal/domain/appointment"
	"practice/internal/domain/therapy"
)

func (s *server) therapyListDeps() projections.GetTherapyListDeps {
	return projections.GetTherapyListDeps{TherapyStore: s.stores.TherapyStore, CDNBase: s.cdnBase()}
}

func (s *server) adviceListDeps() projections.GetAdviceListDeps {
	return projections.GetAdviceListDeps{AdviceStore: s.stores.AdviceStore, CDNBase: s.cdnBase()}
}

// handleHome handles GET /
func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	result, err := projections.QueryGetHome(r.Context(), projections.GetHomeDeps{
		TherapyStore: s.stores.TherapyStore,
		AdviceStore:  s.stores.AdviceStore,
		CDNBase:      s.cdnBase(),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "home.html", map[string]any{
		"Therapies": result.Therapies,
		"Advice":    result.Advice,
	})
}

// handleServices handles GET /services
func (s *server) handleServices(w http.ResponseWriter, r *http.Request) {
	cards, err := projections.QueryGetTherapyList(r.Context(), projections.GetTherapyListQuery{ActiveOnly: true}, s.therapyListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "services.html", map[string]any{"Therapies": cards})
}

// handleService handles GET /services/{id}
func (s *server) handleService(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	card, err := projections.QueryGetTherapy(r.Context(), r.PathValue("id"), sess.IsAdmin(), s.therapyListDeps())
	if errors.Is(err, therapy.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "service.html", map[string]any{"Therapy": card})
}

// handleAdviceList handles GET /advice?page=N
func (s *server) handleAdviceList(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), nil)
	result, err := projections.QueryGetAdviceList(r.Context(), projections.GetAdviceListQuery{
		Status:  advice.StatusPublished,
		Page:    params.Page,
		PerPage: params.PerPage,
	}, s.adviceListDeps())
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "advice_list.html", map[string]any{
		"Articles": result.Articles,
		"Page":     result.Page,
	})
}

// handleAdviceArticle handles GET /advice/{slug}. Admins may preview drafts.
func (s *server) handleAdviceArticle(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	card, err := projections.QueryGetAdviceArticle(r.Context(), r.PathValue("slug"), sess.IsAdmin(), s.adviceListDeps())
	if errors.Is(err, advice.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "advice_article.html", map[string]any{"Article": card})
}

// handleSchedule handles GET /schedule?week=N
func (s *server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("week"))
	sess, _ := middleware.GetSessionFromContext(r.Context())

	result, err := projections.QueryGetWeekSchedule(r.Context(), projections.GetWeekScheduleQuery{
		Week:     offset,
		ViewerID: sess.AccountID,
	}, projections.GetWeekScheduleDeps{
		AppointmentStore: s.stores.AppointmentStore,
		HorizonWeeks:     s.opts.HorizonWeeks,
		Location:         s.opts.Location,
		Now:              s.opts.Now,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	var therapies []projections.TherapyCard
	if sess.AccountID != "" {
		if therapies, err = projections.QueryGetTherapyList(r.Context(), projections.GetTherapyListQuery{ActiveOnly: true}, s.therapyListDeps()); err != nil {
			internalError(w, err)
			return
		}
	}
	s.render(w, r, http.StatusOK, "schedule.html", map[string]any{
		"Schedule":  result,
		"Therapies": therapies,
		"Slot":      r.URL.Query().Get("slot"),
		"Date":      r.URL.Query().Get("date"),
		"Booked":    r.URL.Query().Get("booked") == "1",
		"Error":     r.URL.Query().Get("error"),
		"MaxNotes":  appointment.MaxNotesLength,
	})
}
