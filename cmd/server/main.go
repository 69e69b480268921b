package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice/internal/adapters/email"
	web "practice/internal/adapters/http"
	"practice/internal/adapters/http/middleware"
	"practice/internal/adapters/http/perf"
	"practice/internal/adapters/objectstore"
	"practice/internal/adapters/storage"
	accountStore "practice/internal/adapters/storage/account"
	adviceStore "practice/internal/adapters/storage/advice"
	appointmentStore "practice/internal/adapters/storage/appointment"
	auditStore "practice/internal/adapters/storage/audit"
	outboxStore "practice/internal/adapters/storage/outbox"
	profileStore "practice/internal/adapters/storage/profile"
	therapyStore "practice/internal/adapters/storage/therapy"
	"practice/internal/application/imageupload"
	"practice/internal/application/orchestrators"
	"practice/internal/config"
	"practice/internal/domain/outbox"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_event", "event", "fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.Logger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	// WAL allows concurrent readers
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery)

	stores := web.Stores{
		AccountStore:     accountStore.NewSQLiteStore(timedDB),
		ProfileStore:     profileStore.NewSQLiteStore(timedDB),
		TherapyStore:     therapyStore.NewSQLiteStore(timedDB),
		AdviceStore:      adviceStore.NewSQLiteStore(timedDB),
		AppointmentStore: appointmentStore.NewSQLiteStore(timedDB),
		OutboxStore:      outboxStore.NewSQLiteStore(timedDB),
		AuditStore:       auditStore.NewSQLiteStore(timedDB),
	}

	if err := orchestrators.ExecuteSeedAdmin(ctx, orchestrators.CreateAccountDeps{AccountStore: stores.AccountStore}, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	if err := orchestrators.ExecuteSeedCatalog(ctx, orchestrators.TherapyDeps{TherapyStore: stores.TherapyStore}); err != nil {
		return err
	}

	// Object store: the issuer serves /api/uploads/presign, the requester is what forms upload through.
	var (
		issuer  orchestrators.UploadIssuer
		media   *objectstore.LocalStore
		cdnBase = cfg.CDNBase
	)
	switch cfg.ObjectStore {
	case config.ObjectStoreS3:
		issuer = objectstore.NewS3Presigner(objectstore.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			CDNBase:         cfg.CDNBase,
		})
	default:
		media = objectstore.NewLocalStore(cfg.MediaDir, cfg.PublicURL, cfg.UploadSignKey)
		issuer = media
		cdnBase = media.CDNBase()
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	var requester imageupload.Requester = issuer
	if cfg.PresignEndpoint != "" {
		requester = objectstore.NewAPIClient(cfg.PresignEndpoint, httpClient)
	}
	uploader := imageupload.NewUploader(requester, objectstore.NewHTTPPutter(httpClient, collector), cdnBase, slog.Default())

	sender := email.NewSender(cfg.ResendKey, cfg.EmailFrom)
	if cfg.ResendKey == "" && cfg.IsProduction() {
		slog.Warn("email_event", "event", "delivery_disabled", "reason", "PRACTICE_RESEND_KEY is not set")
	}
	notifier := &orchestrators.Notifier{
		Outbox:     stores.OutboxStore,
		ReplyTo:    cfg.ReplyTo,
		PracticeTo: cfg.NotifyTo,
	}
	processor := orchestrators.NewOutboxProcessor(stores.OutboxStore, map[string]orchestrators.ActionExecutor{
		outbox.ActionTypeEmail: &orchestrators.EmailExecutor{Sender: sender, From: cfg.EmailFrom},
	})
	workerDone := orchestrators.StartBackgroundWorker(ctx, processor, cfg.OutboxTick)

	var sessions middleware.SessionBackend
	if cfg.RedisURL != "" {
		rs, err := middleware.NewRedisSessionStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		sessions = rs
		slog.Info("server_event", "event", "sessions", "backend", "redis")
	} else {
		sessions = middleware.NewMemorySessionStore(cfg.SessionTTL)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	handler := web.NewMux(stores, web.Options{
		StaticDir:      cfg.StaticDir,
		Sessions:       sessions,
		SessionTTL:     cfg.SessionTTL,
		Collector:      collector,
		Uploader:       uploader,
		Issuer:         issuer,
		Media:          media,
		Notifier:       notifier,
		Outbox:         processor,
		CSRFKey:        cfg.CSRFKey,
		Secure:         cfg.IsProduction(),
		TrustedOrigins: trustedOrigins(cfg.PublicURL),
		RateLimiter:    limiter,
		SlowRequest:    cfg.SlowReq,
		HorizonWeeks:   cfg.HorizonWeeks,
		Location:       cfg.Location,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "started",
			"version", version, "addr", cfg.Addr, "env", cfg.Env,
			"schema", storage.LatestSchemaVersion(), "object_store", cfg.ObjectStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	stop()
	<-workerDone
	return nil
}

// trustedOrigins lists the host of publicURL for the CSRF origin check.
func trustedOrigins(publicURL string) []string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
