package web

import (
	"net/http"

	"practice/internal/adapters/http/middleware"
	"practice/internal/adapters/objectstore"
	"practice/internal/application/orchestrators"
)

// handlePresign handles POST /api/uploads/presign
// Request: {"folder":"therapy","itemId":"...","contentType":"image/png"}
// Response: {"uploadUrl":"...","viewUrl":"...","key":"..."}
func (s *server) handlePresign(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	var req objectstore.PresignRequest
	if err := strictDecode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	resp, err := orchestrators.ExecuteIssueUploadDestination(r.Context(), actorFrom(sess), orchestrators.IssueUploadInput{
		Folder:      req.Folder,
		ItemID:      req.ItemID,
		ContentType: req.ContentType,
	}, orchestrators.IssueUploadDeps{Issuer: s.opts.Issuer})
	if err != nil {
		status, ok := errorStatus(err)
		if !ok {
			internalErrorLog(err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upload service unavailable"})
			return
		}
		writeJSON(w, status, map[string]string{"error": userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
