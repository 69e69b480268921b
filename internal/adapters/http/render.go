package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"practice/internal/adapters/http/middleware"
	"practice/internal/application/imageupload"
	"practice/internal/application/listutil"
	"practice/internal/application/orchestrators"
	"practice/internal/domain/account"
	"practice/internal/domain/advice"
	"practice/internal/domain/appointment"
	"practice/internal/domain/image"
	"practice/internal/domain/outbox"
	"practice/internal/domain/profile"
	"practice/internal/domain/therapy"
	"practice/internal/domain/week"
)

//go:embed templates/*.html
var templateFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// baseFuncs are request independent. Request bound funcs are declared here with
// placeholders and replaced on a clone per request.
var baseFuncs = template.FuncMap{
	"renderMarkdown": renderMarkdown,
	"longDate":       week.FormatLongDate,
	"dateTime":       func(t time.Time) string { return t.Format("2 Jan 2006 15:04") },
	"pageLink":       listutil.Link,
	"add":            func(a, b int) int { return a + b },
	"csrfToken":      func() string { return "" },
	"currentRole":    func() string { return "" },
	"currentEmail":   func() string { return "" },
	"isLoggedIn":     func() bool { return false },
	"isAdmin":        func() bool { return false },
	"query":          func() url.Values { return url.Values{} },
	"imageSrc":       imageSrc,
}

// imageSrc marks an inline image preview as a safe URL. Any other value goes
// through the normal URL escaping, which blocks non-image data URLs.
func imageSrc(u string) any {
	if strings.HasPrefix(u, "data:image/") && !strings.HasPrefix(u, "data:image/svg") {
		return template.URL(u)
	}
	return u
}

// pageSet holds every page parsed together with the layout.
type pageSet struct {
	pages map[string]*template.Template
}

func mustParsePages() *pageSet {
	ps, err := parsePages(templateFS)
	if err != nil {
		panic(err)
	}
	return ps
}

func parsePages(fsys fs.FS) (*pageSet, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	ps := &pageSet{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(baseFuncs).ParseFS(fsys, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		ps.pages[base] = tpl
	}
	return ps, nil
}

// render writes page with status. data is exposed to templates as-is.
func (s *server) render(w http.ResponseWriter, r *http.Request, status int, page string, data map[string]any) {
	tpl, ok := s.pages.pages[page]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %q", page))
		return
	}
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	tpl, err := tpl.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfToken":    func() string { return csrf.Token(r) },
		"currentRole":  func() string { return sess.Role },
		"currentEmail": func() string { return sess.Email },
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return loggedIn && sess.IsAdmin() },
		"query":        func() url.Values { return r.URL.Query() },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func internalError(w http.ResponseWriter, err error) {
	internalErrorLog(err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func internalErrorLog(err error) {
	slog.Error("internal_error", "error", err.Error())
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func actorFrom(sess middleware.Session) orchestrators.Actor {
	return orchestrators.Actor{AccountID: sess.AccountID, Role: sess.Role}
}

// Errors a user can act on, grouped by response status. Anything else is internal.
var (
	badRequestErrors = []error{
		account.ErrInvalidEmail, account.ErrEmptyEmail, account.ErrEmailTooLong, account.ErrInvalidRole,
		account.ErrEmptyPassword, account.ErrPasswordTooShort,
		orchestrators.ErrInvalidCredentials, orchestrators.ErrAccountLocked,
		orchestrators.ErrCurrentPasswordWrong, orchestrators.ErrNewPasswordSame, orchestrators.ErrCannotModifySelf,
		therapy.ErrEmptyTitle, therapy.ErrTitleTooLong, therapy.ErrSummaryTooLong, therapy.ErrInvalidDuration,
		therapy.ErrNegativePrice, therapy.ErrInactive,
		advice.ErrEmptyTitle, advice.ErrTitleTooLong, advice.ErrEmptyBody, advice.ErrInvalidSlug,
		advice.ErrInvalidStatus, advice.ErrAlreadyPublished,
		profile.ErrEmptyAccountID, profile.ErrEmptyName, profile.ErrNameTooLong, profile.ErrPhoneTooLong,
		appointment.ErrEmptyTherapyID, appointment.ErrInvalidDate, appointment.ErrInvalidSlot, appointment.ErrWeekend,
		appointment.ErrInPast, appointment.ErrBeyondHorizon, appointment.ErrInvalidStatus, appointment.ErrNotesTooLong,
		appointment.ErrNotCancellable, appointment.ErrNotCompletable,
		image.ErrInvalidFolder, image.ErrEmptyItemID,
		outbox.ErrTerminal,
	}
	forbiddenErrors = []error{orchestrators.ErrForbidden, appointment.ErrNotOwner}
	notFoundErrors  = []error{
		account.ErrNotFound, profile.ErrNotFound, therapy.ErrNotFound, advice.ErrNotFound,
		appointment.ErrNotFound, outbox.ErrNotFound,
	}
	conflictErrors = []error{
		account.ErrEmailTaken, advice.ErrSlugTaken, appointment.ErrSlotTaken, orchestrators.ErrTherapyInUse,
	}
)

// errorStatus maps a known error to its HTTP status. ok is false for internal errors.
func errorStatus(err error) (status int, ok bool) {
	var uploadFailed *image.UploadFailedError
	switch {
	case err == nil:
		return http.StatusOK, true
	case errors.As(err, &uploadFailed):
		return http.StatusBadGateway, true
	case errors.Is(err, image.ErrInvalidContentType):
		return http.StatusUnsupportedMediaType, true
	case errors.Is(err, imageupload.ErrUpload):
		return http.StatusBadGateway, true
	case isAny(err, forbiddenErrors):
		return http.StatusForbidden, true
	case isAny(err, notFoundErrors):
		return http.StatusNotFound, true
	case isAny(err, conflictErrors):
		return http.StatusConflict, true
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest, true
	}
	return 0, false
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// userMessage is the text shown for a known error.
func userMessage(err error) string {
	var uploadFailed *image.UploadFailedError
	switch {
	case errors.As(err, &uploadFailed):
		return "The image could not be uploaded. Please try again."
	case errors.Is(err, image.ErrInvalidContentType):
		return "Please choose a JPEG, PNG, WebP or SVG image."
	case errors.Is(err, imageupload.ErrUpload):
		return "The image could not be uploaded. Please try again."
	}
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}

// httpError writes a known error as plain text, or an internal error otherwise.
func httpError(w http.ResponseWriter, err error) {
	status, ok := errorStatus(err)
	if !ok {
		internalError(w, err)
		return
	}
	http.Error(w, userMessage(err), status)
}
