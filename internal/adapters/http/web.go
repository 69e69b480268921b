package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"practice/internal/adapters/http/middleware"
	"practice/internal/adapters/http/perf"
	"practice/internal/adapters/objectstore"
	accountStore "practice/internal/adapters/storage/account"
	adviceStore "practice/internal/adapters/storage/advice"
	appointmentStore "practice/internal/adapters/storage/appointment"
	auditStore "practice/internal/adapters/storage/audit"
	outboxStore "practice/internal/adapters/storage/outbox"
	profileStore "practice/internal/adapters/storage/profile"
	therapyStore "practice/internal/adapters/storage/therapy"
	"practice/internal/application/imageupload"
	"practice/internal/application/orchestrators"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore     accountStore.Store
	ProfileStore     profileStore.Store
	TherapyStore     therapyStore.Store
	AdviceStore      adviceStore.Store
	AppointmentStore appointmentStore.Store
	OutboxStore      outboxStore.Store
	AuditStore       auditStore.Store // nil disables the audit trail
}

// Options configures the HTTP surface.
type Options struct {
	StaticDir  string
	Sessions   middleware.SessionBackend // nil uses an in-memory store
	SessionTTL time.Duration
	Collector  *perf.Collector

	// Uploader runs image form submissions; Issuer serves /api/uploads/presign.
	Uploader *imageupload.Uploader
	Issuer   orchestrators.UploadIssuer
	// Media is the local object store. When set, PUT /media/upload and GET /media/ are served.
	Media *objectstore.LocalStore

	Notifier *orchestrators.Notifier
	Outbox   *orchestrators.OutboxProcessor

	CSRFKey        []byte
	Secure         bool
	TrustedOrigins []string
	RateLimiter    *middleware.RateLimiter // nil allows 5 unsafe requests per second per client
	SlowRequest    time.Duration

	HorizonWeeks int
	Location     *time.Location
	Now          func() time.Time
	GenerateID   func() string
}

// server carries handler dependencies.
type server struct {
	stores   Stores
	opts     Options
	sessions middleware.SessionBackend
	pages    *pageSet
}

// NewMux wires HTTP handlers for the app.
// PRE: CSRFKey is 32 bytes; Uploader and Issuer are non-nil
func NewMux(s Stores, opts Options) http.Handler {
	if opts.Sessions == nil {
		opts.Sessions = middleware.NewMemorySessionStore(opts.SessionTTL)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = middleware.DefaultSessionTTL
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewRateLimiter(5, 10)
	}

	srv := &server{stores: s, opts: opts, sessions: opts.Sessions, pages: mustParsePages()}

	mux := http.NewServeMux()
	srv.registerRoutes(mux)

	var imgOrigins []string
	if origin := originOf(srv.cdnBase()); origin != "" {
		imgOrigins = append(imgOrigins, origin)
	}
	exempt := []string{}
	if opts.Media != nil {
		exempt = append(exempt, "/media/upload")
	}

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders(imgOrigins...),
		middleware.CSRF(middleware.CSRFOptions{
			Key:            opts.CSRFKey,
			Secure:         opts.Secure,
			TrustedOrigins: opts.TrustedOrigins,
			ExemptPaths:    exempt,
		}),
		middleware.Auth(srv.sessions),
		middleware.RateLimit(opts.RateLimiter),
		middleware.Timing(middleware.TimingOptions{
			Collector: opts.Collector,
			Slow:      opts.SlowRequest,
			Routes:    mux,
		}),
	)
}

func (s *server) cdnBase() string {
	if s.opts.Uploader == nil {
		return ""
	}
	return s.opts.Uploader.CDNBase()
}

func (s *server) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// originOf returns scheme://host of an absolute URL, or "" for a relative one.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
