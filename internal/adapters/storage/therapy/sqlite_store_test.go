package therapy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"practice/internal/adapters/storage/storagetest"
	"practice/internal/adapters/storage/therapy"
	domain "practice/internal/domain/therapy"
)

// TestSQLiteStore_CRUD verifies save, list ordering, active filter and delete.
func TestSQLiteStore_CRUD(t *testing.T) {
	db := storagetest.OpenDB(t)
	store := therapy.NewSQLiteStore(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	items := []domain.Therapy{
		{ID: "t1", Title: "play therapy", DurationMin: 50, PriceCents: 9500, Active: true, CreatedAt: now},
		{ID: "t2", Title: "Family sessions", DurationMin: 90, PriceCents: 15000, Active: false, CreatedAt: now},
		{ID: "t3", Title: "Assessment", DurationMin: 60, Active: true, CreatedAt: now, ImageKey: "t3-key.png"},
	}
	for _, th := range items {
		if err := store.Save(ctx, th); err != nil {
			t.Fatalf("Save %s: %v", th.ID, err)
		}
	}

	all, err := store.List(ctx, therapy.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "t3" || all[2].ID != "t1" {
		t.Errorf("List order = %v", all)
	}

	active, _ := store.List(ctx, therapy.ListFilter{ActiveOnly: true})
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}

	got, err := store.GetByID(ctx, "t3")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ImageKey != "t3-key.png" || !got.Active || !got.UpdatedAt.IsZero() {
		t.Errorf("GetByID = %+v", got)
	}

	inUse, err := store.InUse(ctx, "t1")
	if err != nil || inUse {
		t.Errorf("InUse = %v, %v", inUse, err)
	}

	if err := store.Delete(ctx, "t2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetByID(ctx, "t2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete = %v, want ErrNotFound", err)
	}
}
