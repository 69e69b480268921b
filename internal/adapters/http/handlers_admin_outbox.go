package web

import (
	"net/http"
	"time"

	"practice/internal/application/projections"
	"practice/internal/domain/audit"
)

// perfWindow is how far back the performance page aggregates.
const perfWindow = time.Hour

// handleAdminOutbox handles GET /admin/outbox (status counts and failed entries).
func (s *server) handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	status, err := projections.QueryGetOutboxStatus(r.Context(), s.stores.OutboxStore)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_outbox.html", map[string]any{
		"Outbox":     status,
		"HasWorker":  s.opts.Outbox != nil,
		"LastAction": r.URL.Query().Get("done"),
	})
}

// handleAdminOutboxRetry handles POST /admin/outbox/{id}/retry
func (s *server) handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if s.opts.Outbox == nil {
		http.Error(w, "outbox worker is not running", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	if err := s.opts.Outbox.ProcessSingle(r.Context(), id); err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategorySystem, audit.ActionRetry).WithResource("outbox", id))
	http.Redirect(w, r, "/admin/outbox?done=retried", http.StatusSeeOther)
}

// handleAdminOutboxAbandon handles POST /admin/outbox/{id}/abandon
func (s *server) handleAdminOutboxAbandon(w http.ResponseWriter, r *http.Request) {
	if s.opts.Outbox == nil {
		http.Error(w, "outbox worker is not running", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	if err := s.opts.Outbox.AbandonEntry(r.Context(), id); err != nil {
		httpError(w, err)
		return
	}
	s.audit(r, s.auditEvent(r, audit.CategorySystem, audit.ActionAbandon).WithResource("outbox", id))
	http.Redirect(w, r, "/admin/outbox?done=abandoned", http.StatusSeeOther)
}

// handleAdminPerf handles GET /admin/perf
func (s *server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Window": perfWindow.String()}
	if s.opts.Collector != nil {
		data["Snapshot"] = s.opts.Collector.Snapshot(s.opts.Now().Add(-perfWindow), 10)
	}
	s.render(w, r, http.StatusOK, "admin_perf.html", data)
}
