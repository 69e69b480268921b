package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

// TestLoad_Defaults verifies development defaults are usable without any variables.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Env != "development" || cfg.DBPath != "practice.db" {
		t.Errorf("server defaults = %+v", cfg)
	}
	if cfg.HorizonWeeks != 8 || cfg.ObjectStore != ObjectStoreLocal {
		t.Errorf("HorizonWeeks = %d, ObjectStore = %q", cfg.HorizonWeeks, cfg.ObjectStore)
	}
	if cfg.PublicURL != "http://localhost:8080" || cfg.CDNBase != "http://localhost:8080/media" {
		t.Errorf("PublicURL = %q, CDNBase = %q", cfg.PublicURL, cfg.CDNBase)
	}
	if cfg.SlowQuery != 50*time.Millisecond || cfg.LogLevel != slog.LevelInfo || cfg.LogJSON {
		t.Errorf("SlowQuery = %v, LogLevel = %v, LogJSON = %v", cfg.SlowQuery, cfg.LogLevel, cfg.LogJSON)
	}
	if len(cfg.CSRFKey) != 32 {
		t.Errorf("dev CSRF key length = %d", len(cfg.CSRFKey))
	}
}

// TestLoad_Overrides verifies variables are parsed into typed fields.
func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"PRACTICE_BOOKING_HORIZON_WEEKS": "4",
		"PRACTICE_LOG_LEVEL":             "debug",
		"PRACTICE_SLOW_QUERY":            "10ms",
		"PRACTICE_TIMEZONE":              "UTC",
		"PRACTICE_CDN_BASE":              "https://cdn.example.com/",
		"PRACTICE_OBJECT_STORE":          "s3",
		"PRACTICE_S3_BUCKET":             "media",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HorizonWeeks != 4 || cfg.LogLevel != slog.LevelDebug || cfg.SlowQuery != 10*time.Millisecond {
		t.Errorf("parsed = %d %v %v", cfg.HorizonWeeks, cfg.LogLevel, cfg.SlowQuery)
	}
	if cfg.Location != time.UTC || cfg.CDNBase != "https://cdn.example.com" {
		t.Errorf("Location = %v, CDNBase = %q", cfg.Location, cfg.CDNBase)
	}
}

// TestLoad_Invalid verifies every problem is reported at once.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"bad int", map[string]string{"PRACTICE_BOOKING_HORIZON_WEEKS": "eight"}, []string{"PRACTICE_BOOKING_HORIZON_WEEKS"}},
		{"bad store", map[string]string{"PRACTICE_OBJECT_STORE": "ftp"}, []string{"PRACTICE_OBJECT_STORE"}},
		{"s3 without bucket", map[string]string{"PRACTICE_OBJECT_STORE": "s3"}, []string{"PRACTICE_S3_BUCKET"}},
		{"production without secrets", map[string]string{"PRACTICE_ENV": "production"},
			[]string{"PRACTICE_CSRF_KEY", "PRACTICE_ADMIN_PASSWORD", "PRACTICE_UPLOAD_SIGNING_KEY"}},
		{"bad duration and level", map[string]string{"PRACTICE_SLOW_QUERY": "fast", "PRACTICE_LOG_LEVEL": "loud"},
			[]string{"PRACTICE_SLOW_QUERY", "PRACTICE_LOG_LEVEL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(envFrom(tt.env))
			if err == nil {
				t.Fatal("expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q does not mention %s", err, w)
				}
			}
		})
	}
}

// TestLoad_ProductionUsesJSON verifies the production log format.
func TestLoad_ProductionUsesJSON(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"PRACTICE_ENV":                "production",
		"PRACTICE_CSRF_KEY":           strings.Repeat("k", 32),
		"PRACTICE_ADMIN_PASSWORD":     "a long admin password",
		"PRACTICE_UPLOAD_SIGNING_KEY": "sign",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.LogJSON || !cfg.IsProduction() {
		t.Errorf("LogJSON = %v, IsProduction = %v", cfg.LogJSON, cfg.IsProduction())
	}
	if cfg.Logger() == nil {
		t.Error("Logger returned nil")
	}
}
