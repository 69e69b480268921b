package web

import (
	"log/slog"
	"net/http"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/listutil"
	"practice/internal/application/orchestrators"
	"practice/internal/application/projections"
	"practice/internal/domain/audit"
)

// auditEvent starts an event attributed to the signed-in user.
func (s *server) auditEvent(r *http.Request, category audit.Category, action audit.Action) audit.Event {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return s.auditEventFor(r, sess, category, action)
}

// auditEventFor starts an event attributed to sess, which need not be in the request context yet.
func (s *server) auditEventFor(r *http.Request, sess middleware.Session, category audit.Category, action audit.Action) audit.Event {
	return audit.NewEvent(s.opts.Now(), sess.AccountID, sess.Email, sess.Role, category, action).
		WithRequest(middleware.ClientIP(r), r.UserAgent())
}

// audit records event. A failure is logged and never fails the request.
func (s *server) audit(r *http.Request, event audit.Event) {
	err := orchestrators.ExecuteRecordAudit(r.Context(), event, orchestrators.RecordAuditDeps{
		AuditStore: s.stores.AuditStore,
	})
	if err != nil {
		slog.Error("audit_event", "event", "record_failed", "action", string(event.Action), "error", err)
	}
}

// handleAdminAudit handles GET /admin/audit?category=&severity=&resource=&from=&to=&page=
func (s *server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if s.stores.AuditStore == nil {
		http.Error(w, "audit trail is not configured", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	params := listutil.Parse(q, nil)
	query := projections.GetAuditTrailQuery{
		Category:   q.Get("category"),
		Severity:   q.Get("severity"),
		ResourceID: q.Get("resource"),
		From:       validDate(q.Get("from")),
		To:         validDate(q.Get("to")),
		Page:       params.Page,
		PerPage:    params.PerPage,
	}
	result, err := projections.QueryGetAuditTrail(r.Context(), query, s.stores.AuditStore)
	if err != nil {
		internalError(w, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin_audit.html", map[string]any{
		"Events":     result.Events,
		"Page":       result.Page,
		"Categories": result.Categories,
		"Severities": []audit.Severity{audit.SeverityInfo, audit.SeverityWarning, audit.SeverityCritical},
		"Query":      query,
	})
}
