package outbox_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"practice/internal/adapters/storage/outbox"
	"practice/internal/adapters/storage/storagetest"
	domain "practice/internal/domain/outbox"
)

func entry(id string, created time.Time) domain.Entry {
	return domain.Entry{ID: id, ActionType: domain.ActionTypeEmail, Payload: `{"to":"a@b.c"}`,
		Status: domain.StatusPending, MaxAttempts: 2, CreatedAt: created}
}

// TestSQLiteStore_Lifecycle verifies pending, failed and status counts across attempts.
func TestSQLiteStore_Lifecycle(t *testing.T) {
	store := outbox.NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"e1", "e2", "e3"} {
		if err := store.Save(ctx, entry(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	pending, err := store.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 || pending[0].ID != "e1" {
		t.Fatalf("pending = %v", pending)
	}

	e := pending[0]
	for range 2 {
		e.MarkAttempt(base.Add(time.Hour))
		e.MarkFailed(errors.New("smtp down"))
	}
	if err := store.Save(ctx, e); err != nil {
		t.Fatal(err)
	}

	done := pending[1]
	done.MarkAttempt(base.Add(time.Hour))
	done.MarkSuccess("msg-1")
	if err := store.Save(ctx, done); err != nil {
		t.Fatal(err)
	}

	failed, _ := store.ListFailed(ctx, 10)
	if len(failed) != 1 || failed[0].ErrorMessage != "smtp down" || failed[0].Attempts != 2 {
		t.Errorf("failed = %+v", failed)
	}
	if !failed[0].LastAttemptedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("LastAttemptedAt = %v", failed[0].LastAttemptedAt)
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{domain.StatusPending: 1, domain.StatusFailed: 1, domain.StatusDone: 1}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("counts[%s] = %d, want %d", status, counts[status], n)
		}
	}

	got, _ := store.GetByID(ctx, "e2")
	if got.ExternalID != "msg-1" || got.Status != domain.StatusDone {
		t.Errorf("done = %+v", got)
	}
	if err := store.Delete(ctx, "e2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetByID(ctx, "e2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted = %v", err)
	}
}
