package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// ErrConflict is returned by stores when a uniqueness constraint rejects a write.
var ErrConflict = errors.New("unique constraint violated")

var gooseOnce sync.Once
var gooseErr error

// setupGoose points goose at the embedded migrations.
func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations)
		goose.SetLogger(gooseLogger{})
		gooseErr = goose.SetDialect("sqlite3")
	})
	return gooseErr
}

// gooseLogger routes goose progress lines through slog.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Info("migration_event", "event", "progress", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error("migration_event", "event", "fatal", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Open opens the SQLite database at path with WAL, a busy timeout and foreign keys.
// PRE: path is a file path or ":memory:"
// POST: the connection is pinged; the schema is not migrated
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return db, nil
}

// MigrateDB brings the schema up to the latest embedded migration.
// A file database that is behind is first snapshotted next to itself with VACUUM INTO.
// PRE: db is a valid SQLite connection; path is the file it was opened from or ":memory:"
// POST: WAL and foreign keys enabled, all migrations applied
func MigrateDB(db *sql.DB, path string) error {
	if err := setupGoose(); err != nil {
		return fmt.Errorf("configure migrations: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	latest := LatestSchemaVersion()
	if current > 0 && current < latest && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.pre-v%d.bak", path, latest)
		if _, err := db.Exec("VACUUM INTO ?", backup); err != nil {
			return fmt.Errorf("backup before migration: %w", err)
		}
		slog.Info("migration_event", "event", "backup_written", "path", backup, "from_version", current)
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	if current != latest {
		slog.Info("migration_event", "event", "migrated", "from_version", current, "to_version", latest)
	}
	return nil
}

// SchemaVersion returns the applied migration version, 0 for a fresh database.
func SchemaVersion(db *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// LatestSchemaVersion returns the highest embedded migration version.
func LatestSchemaVersion() int64 {
	if err := setupGoose(); err != nil {
		return 0
	}
	all, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil || len(all) == 0 {
		return 0
	}
	last, err := all.Last()
	if err != nil {
		return 0
	}
	return last.Version
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
