// Package config loads server configuration from PRACTICE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Object store modes
const (
	ObjectStoreLocal = "local"
	ObjectStoreS3    = "s3"
)

// Config holds all server configuration.
type Config struct {
	// Server
	Addr       string
	Env        string // "development" or "production"
	PublicURL  string // absolute base used in issued upload URLs and emails
	StaticDir  string
	LogLevel   slog.Level
	LogJSON    bool
	SlowQuery  time.Duration
	SlowReq    time.Duration
	RateLimit  float64 // login/register attempts per second per client
	RateBurst  int
	CSRFKey    []byte
	SessionTTL time.Duration

	// Database
	DBPath string

	// Seed admin
	AdminEmail    string
	AdminPassword string

	// Booking
	HorizonWeeks int
	Location     *time.Location

	// Object store
	ObjectStore     string // "local" or "s3"
	MediaDir        string
	UploadSignKey   []byte
	CDNBase         string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	PresignEndpoint string // optional remote presign API; empty uses the in-process issuer

	// Email
	ResendKey  string
	EmailFrom  string
	ReplyTo    string
	NotifyTo   string // practice inbox copied on bookings
	OutboxTick time.Duration

	// Sessions
	RedisURL string // empty keeps sessions in memory
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}
	var errs []error
	intVar := func(key string, fallback int) int {
		raw := getenv(key)
		if raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return n
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		raw := getenv(key)
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return d
	}

	cfg := &Config{
		Addr:          env("PRACTICE_ADDR", ":8080"),
		Env:           env("PRACTICE_ENV", "development"),
		StaticDir:     env("PRACTICE_STATIC_DIR", "static"),
		DBPath:        env("PRACTICE_DB_PATH", "practice.db"),
		AdminEmail:    env("PRACTICE_ADMIN_EMAIL", "admin@practice.local"),
		AdminPassword: getenv("PRACTICE_ADMIN_PASSWORD"),
		HorizonWeeks:  intVar("PRACTICE_BOOKING_HORIZON_WEEKS", 8),
		ObjectStore:   env("PRACTICE_OBJECT_STORE", ObjectStoreLocal),
		MediaDir:      env("PRACTICE_MEDIA_DIR", "media"),
		S3Bucket:      getenv("PRACTICE_S3_BUCKET"),
		S3Region:      env("PRACTICE_S3_REGION", "us-east-1"),
		S3Endpoint:    getenv("PRACTICE_S3_ENDPOINT"),
		S3AccessKeyID: getenv("PRACTICE_S3_ACCESS_KEY_ID"),
		S3SecretKey:   getenv("PRACTICE_S3_SECRET_ACCESS_KEY"),
		ResendKey:     getenv("PRACTICE_RESEND_KEY"),
		EmailFrom:     env("PRACTICE_EMAIL_FROM", "Practice <noreply@practice.local>"),
		ReplyTo:       env("PRACTICE_REPLY_TO", "hello@practice.local"),
		NotifyTo:      getenv("PRACTICE_NOTIFY_TO"),
		RedisURL:      getenv("PRACTICE_REDIS_URL"),
		SlowQuery:     durationVar("PRACTICE_SLOW_QUERY", 50*time.Millisecond),
		SlowReq:       durationVar("PRACTICE_SLOW_REQUEST", 500*time.Millisecond),
		SessionTTL:    durationVar("PRACTICE_SESSION_TTL", 7*24*time.Hour),
		OutboxTick:    durationVar("PRACTICE_OUTBOX_INTERVAL", time.Minute),
		RateBurst:     intVar("PRACTICE_RATE_BURST", 5),

		PresignEndpoint: getenv("PRACTICE_PRESIGN_ENDPOINT"),
	}
	cfg.PublicURL = strings.TrimRight(env("PRACTICE_PUBLIC_URL", "http://localhost"+cfg.Addr), "/")
	cfg.CDNBase = strings.TrimRight(env("PRACTICE_CDN_BASE", cfg.PublicURL+"/media"), "/")
	cfg.LogJSON = cfg.IsProduction() || getenv("PRACTICE_LOG_FORMAT") == "json"

	if err := cfg.LogLevel.UnmarshalText([]byte(env("PRACTICE_LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("PRACTICE_LOG_LEVEL: %w", err))
	}

	rate, err := strconv.ParseFloat(env("PRACTICE_RATE_LIMIT", "1"), 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("PRACTICE_RATE_LIMIT: %w", err))
	}
	cfg.RateLimit = rate

	loc, err := time.LoadLocation(env("PRACTICE_TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("PRACTICE_TIMEZONE: %w", err))
		loc = time.Local
	}
	cfg.Location = loc

	cfg.CSRFKey = []byte(getenv("PRACTICE_CSRF_KEY"))
	cfg.UploadSignKey = []byte(getenv("PRACTICE_UPLOAD_SIGNING_KEY"))
	if !cfg.IsProduction() {
		if len(cfg.CSRFKey) == 0 {
			cfg.CSRFKey = []byte("dev-csrf-key-dev-csrf-key-32byte")
		}
		if len(cfg.UploadSignKey) == 0 {
			cfg.UploadSignKey = []byte("dev-upload-signing-key")
		}
		if cfg.AdminPassword == "" {
			cfg.AdminPassword = "change-me-please"
		}
	}

	errs = append(errs, cfg.validate())
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Env != "development" && c.Env != "production" {
		errs = append(errs, fmt.Errorf("PRACTICE_ENV must be development or production, got %q", c.Env))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("PRACTICE_DB_PATH is required"))
	}
	if len(c.CSRFKey) != 32 {
		errs = append(errs, errors.New("PRACTICE_CSRF_KEY must be 32 bytes"))
	}
	if c.HorizonWeeks < 0 {
		errs = append(errs, errors.New("PRACTICE_BOOKING_HORIZON_WEEKS cannot be negative"))
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		errs = append(errs, errors.New("PRACTICE_RATE_LIMIT and PRACTICE_RATE_BURST must be positive"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("PRACTICE_ADMIN_PASSWORD is required in production"))
	}
	switch c.ObjectStore {
	case ObjectStoreLocal:
		if len(c.UploadSignKey) == 0 {
			errs = append(errs, errors.New("PRACTICE_UPLOAD_SIGNING_KEY is required for the local object store"))
		}
	case ObjectStoreS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			errs = append(errs, errors.New("PRACTICE_S3_BUCKET and PRACTICE_S3_REGION are required for the s3 object store"))
		}
	default:
		errs = append(errs, fmt.Errorf("PRACTICE_OBJECT_STORE must be local or s3, got %q", c.ObjectStore))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Logger builds the process logger: JSON in production, text otherwise.
func (c *Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
