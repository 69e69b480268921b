package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

// openTestDB creates a file-backed SQLite database in a temp dir.
// A file is used rather than :memory: so every pooled connection sees the same schema.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

// getTableNames returns sorted table names from sqlite_master, excluding internal tables.
func getTableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan table name: %v", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// getTableSQL returns sorted CREATE statements from sqlite_master.
func getTableSQL(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT sql FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' AND sql IS NOT NULL ORDER BY name")
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	defer rows.Close()

	var sqls []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			t.Fatalf("failed to scan sql: %v", err)
		}
		sqls = append(sqls, strings.Join(strings.Fields(s), " "))
	}
	sort.Strings(sqls)
	return sqls
}

// expectedTables is the sorted list of tables after all migrations.
var expectedTables = []string{
	"account",
	"advice",
	"appointment",
	"audit_event",
	"goose_db_version",
	"outbox",
	"profile",
	"therapy",
}

// TestMigrateDB_Fresh verifies all migrations apply cleanly to an empty database.
func TestMigrateDB_Fresh(t *testing.T) {
	db, path := openTestDB(t)

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed on fresh db: %v", err)
	}

	version, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != LatestSchemaVersion() {
		t.Errorf("version = %d, want %d", version, LatestSchemaVersion())
	}
	if LatestSchemaVersion() != 4 {
		t.Errorf("LatestSchemaVersion = %d, want 4", LatestSchemaVersion())
	}

	tables := getTableNames(t, db)
	if strings.Join(tables, ",") != strings.Join(expectedTables, ",") {
		t.Errorf("tables:\ngot:  %v\nwant: %v", tables, expectedTables)
	}
}

// TestMigrateDB_Idempotent verifies that running MigrateDB twice keeps the version.
func TestMigrateDB_Idempotent(t *testing.T) {
	db, path := openTestDB(t)

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("first MigrateDB failed: %v", err)
	}
	version1, _ := SchemaVersion(db)

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("second MigrateDB failed: %v", err)
	}
	version2, _ := SchemaVersion(db)
	if version1 != version2 {
		t.Errorf("version changed after idempotent run: %d -> %d", version1, version2)
	}
}

// TestMigrateDB_SchemaDrift verifies two fresh databases end with identical schemas.
func TestMigrateDB_SchemaDrift(t *testing.T) {
	db, path := openTestDB(t)
	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	golden := getTableSQL(t, db)

	db2, path2 := openTestDB(t)
	if err := MigrateDB(db2, path2); err != nil {
		t.Fatalf("MigrateDB (second) failed: %v", err)
	}
	actual := getTableSQL(t, db2)

	if len(golden) != len(actual) {
		t.Fatalf("schema drift: golden has %d objects, actual has %d", len(golden), len(actual))
	}
	for i := range golden {
		if golden[i] != actual[i] {
			t.Errorf("schema drift at %d:\ngolden: %s\nactual: %s", i, golden[i], actual[i])
		}
	}
}

// TestMigrateDB_VersionProgression verifies SchemaVersion reports 0 before migration.
func TestMigrateDB_VersionProgression(t *testing.T) {
	db, path := openTestDB(t)

	v, err := SchemaVersion(db)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != 0 {
		t.Errorf("initial version = %d, want 0", v)
	}

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	v, _ = SchemaVersion(db)
	if v != LatestSchemaVersion() {
		t.Errorf("post-migration version = %d, want %d", v, LatestSchemaVersion())
	}
}

// TestMigrateDB_ExistingDB verifies MigrateDB adopts a database created before version tracking.
func TestMigrateDB_ExistingDB(t *testing.T) {
	db, path := openTestDB(t)

	_, err := db.Exec(`CREATE TABLE account (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL DEFAULT '', role TEXT NOT NULL, created_at TEXT NOT NULL, failed_logins INTEGER NOT NULL DEFAULT 0, locked_until TEXT)`)
	if err != nil {
		t.Fatalf("failed to create pre-migration table: %v", err)
	}
	_, err = db.Exec(`INSERT INTO account (id, email, role, created_at) VALUES ('a1', 'admin@test.com', 'admin', '2026-01-01T00:00:00Z')`)
	if err != nil {
		t.Fatalf("failed to insert pre-migration data: %v", err)
	}

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB on existing db failed: %v", err)
	}

	var email string
	if err := db.QueryRow("SELECT email FROM account WHERE id = 'a1'").Scan(&email); err != nil {
		t.Fatalf("pre-migration data lost: %v", err)
	}
	if email != "admin@test.com" {
		t.Errorf("email = %q, want %q", email, "admin@test.com")
	}
}

// TestMigrateDB_ActiveSlotIndex verifies the database rejects two active bookings of one slot.
func TestMigrateDB_ActiveSlotIndex(t *testing.T) {
	db, path := openTestDB(t)
	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}

	mustExec := func(q string) {
		t.Helper()
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	mustExec(`INSERT INTO account (id, email, role, created_at) VALUES ('a1', 'p@test.com', 'client', '2026-01-01T00:00:00Z')`)
	mustExec(`INSERT INTO therapy (id, title, duration_min, created_at) VALUES ('t1', 'Play', 50, '2026-01-01T00:00:00Z')`)
	mustExec(`INSERT INTO appointment (id, account_id, therapy_id, date, start_time, status, created_at) VALUES ('x1', 'a1', 't1', '2026-10-19', '09:00', 'cancelled', '2026-01-01T00:00:00Z')`)
	mustExec(`INSERT INTO appointment (id, account_id, therapy_id, date, start_time, status, created_at) VALUES ('x2', 'a1', 't1', '2026-10-19', '09:00', 'booked', '2026-01-01T00:00:00Z')`)

	_, err := db.Exec(`INSERT INTO appointment (id, account_id, therapy_id, date, start_time, status, created_at) VALUES ('x3', 'a1', 't1', '2026-10-19', '09:00', 'booked', '2026-01-01T00:00:00Z')`)
	if !IsUniqueViolation(err) {
		t.Errorf("second active booking error = %v, want unique violation", err)
	}
}

// TestMigrateDB_BackupBeforeUpgrade verifies a file database behind the latest version is snapshotted.
func TestMigrateDB_BackupBeforeUpgrade(t *testing.T) {
	db, path := openTestDB(t)
	if err := setupGoose(); err != nil {
		t.Fatal(err)
	}
	// Bring the database to version 1 only, then let MigrateDB finish the chain.
	if err := goose.UpTo(db, migrationsDir, 1); err != nil {
		t.Fatalf("partial migrate: %v", err)
	}

	if err := MigrateDB(db, path); err != nil {
		t.Fatalf("MigrateDB failed: %v", err)
	}
	backup := fmt.Sprintf("%s.pre-v%d.bak", path, LatestSchemaVersion())
	if _, err := os.Stat(backup); err != nil {
		t.Errorf("expected backup at %s: %v", backup, err)
	}
}
