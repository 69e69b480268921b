package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"practice/internal/adapters/storage"
	accountStore "practice/internal/adapters/storage/account"
	auditStore "practice/internal/adapters/storage/audit"
)

// stdinWith returns a pipe whose read end yields input.
func stdinWith(t *testing.T, input string) *os.File {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteString(input); err != nil {
		t.Fatal(err)
	}
	w.Close()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRun_CreateAdminThenReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")
	ctx := context.Background()

	var out bytes.Buffer
	if err := run(ctx, []string{"-db", dbPath, "create-admin", "Boss@Example.com"}, stdinWith(t, "first long password\n"), &out); err != nil {
		t.Fatalf("create-admin: %v", err)
	}
	if !strings.Contains(out.String(), "created admin boss@example.com") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := run(ctx, []string{"-db", dbPath, "reset-password", "boss@example.com"}, stdinWith(t, "second long password"), &out); err != nil {
		t.Fatalf("reset-password: %v", err)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	acct, err := accountStore.NewSQLiteStore(db).GetByEmail(ctx, "boss@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if acct.CheckPassword("second long password") != nil {
		t.Error("reset password not stored")
	}

	events, err := auditStore.NewSQLiteStore(db).List(ctx, auditStore.ListFilter{ResourceID: acct.ID, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Action != "update" || events[1].Action != "create" {
		t.Errorf("audit events = %+v, want update then create", events)
	}
}

func TestRun_Errors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")
	ctx := context.Background()
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", []string{"-db", dbPath}, "missing command"},
		{"unknown command", []string{"-db", dbPath, "drop-tables"}, "unknown command"},
		{"missing email", []string{"-db", dbPath, "create-admin"}, "exactly one email"},
		{"unknown account", []string{"-db", dbPath, "reset-password", "ghost@example.com"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(ctx, tt.args, stdinWith(t, "some long password\n"), &out)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRun_Migrate(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-db", filepath.Join(t.TempDir(), "ctl.db"), "migrate"}, stdinWith(t, ""), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "schema at version ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPromptNewPassword_Terminal(t *testing.T) {
	origRead, origTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTerm })
	isTerminal = func(int) bool { return true }

	answers := [][]byte{[]byte("one long password"), []byte("one long password")}
	readPassword = func(int) ([]byte, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	var out bytes.Buffer
	got, err := promptNewPassword(stdinWith(t, ""), &out)
	if err != nil || got != "one long password" {
		t.Errorf("got %q, %v", got, err)
	}

	answers = [][]byte{[]byte("one long password"), []byte("another password")}
	if _, err := promptNewPassword(stdinWith(t, ""), &out); err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Errorf("mismatch err = %v", err)
	}
}
