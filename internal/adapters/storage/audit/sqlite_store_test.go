package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"practice/internal/adapters/storage/audit"
	"practice/internal/adapters/storage/storagetest"
	domain "practice/internal/domain/audit"
)

// TestSQLiteStore_ListFilters verifies ordering, filters and counts.
func TestSQLiteStore_ListFilters(t *testing.T) {
	store := audit.NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()
	day1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	events := []domain.Event{
		domain.NewEvent(day1, "admin-1", "admin@practice.test", "admin", domain.CategoryCatalog, domain.ActionCreate).WithResource("therapy", "th-1"),
		domain.NewEvent(day1.Add(time.Hour), "admin-1", "admin@practice.test", "admin", domain.CategoryCatalog, domain.ActionDelete).WithResource("therapy", "th-1"),
		domain.NewEvent(day2, "", "parent@example.com", "", domain.CategorySecurity, domain.ActionLoginFail).WithSeverity(domain.SeverityWarning),
	}
	for _, e := range events {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	all, err := store.List(ctx, audit.ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].Action != domain.ActionLoginFail {
		t.Fatalf("List = %+v, want newest first", all)
	}
	if !all[2].Timestamp.Equal(day1) {
		t.Errorf("Timestamp = %v, want %v", all[2].Timestamp, day1)
	}

	tests := []struct {
		name   string
		filter audit.ListFilter
		want   int
	}{
		{"category", audit.ListFilter{Category: domain.CategoryCatalog}, 2},
		{"action", audit.ListFilter{Action: domain.ActionDelete}, 1},
		{"severity", audit.ListFilter{Severity: domain.SeverityWarning}, 1},
		{"actor", audit.ListFilter{ActorID: "admin-1"}, 2},
		{"resource", audit.ListFilter{ResourceID: "th-1"}, 2},
		{"from", audit.ListFilter{From: "2026-03-03"}, 1},
		{"to covers the whole day", audit.ListFilter{To: "2026-03-02"}, 2},
		{"no match", audit.ListFilter{Category: domain.CategoryAdvice}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := store.Count(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Count: %v", err)
			}
			if n != tt.want {
				t.Errorf("Count = %d, want %d", n, tt.want)
			}
			tt.filter.Limit = 10
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(List) = %d, want %d", len(got), tt.want)
			}
		})
	}

	page, err := store.List(ctx, audit.ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List page: %v", err)
	}
	if len(page) != 1 || page[0].ID != events[1].ID {
		t.Errorf("second page = %+v, want %s", page, events[1].ID)
	}
}

func TestSQLiteStore_GetByID(t *testing.T) {
	store := audit.NewSQLiteStore(storagetest.OpenDB(t))
	ctx := context.Background()

	e := domain.NewEvent(time.Now(), "a", "a@b.c", "admin", domain.CategoryAccount, domain.ActionUpdate).
		WithDescription("Changed role to admin").
		WithRequest("127.0.0.1", "test-agent")
	if err := store.Save(ctx, e); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Description != e.Description || got.IPAddress != "127.0.0.1" || got.UserAgent != "test-agent" {
		t.Errorf("got %+v", got)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID(missing) = %v, want ErrNotFound", err)
	}
}
