package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	accountStore "practice/internal/adapters/storage/account"
	"practice/internal/adapters/storage/profile"
	"practice/internal/adapters/storage/storagetest"
	"practice/internal/domain/account"
	domain "practice/internal/domain/profile"
)

// TestSQLiteStore_SaveAndGet verifies upsert and batch lookup.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	db := storagetest.OpenDB(t)
	ctx := context.Background()
	accounts := accountStore.NewSQLiteStore(db)
	for _, id := range []string{"a1", "a2"} {
		if err := accounts.Save(ctx, account.Account{ID: id, Email: id + "@x.test", Role: account.RoleClient, CreatedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	store := profile.NewSQLiteStore(db)

	if _, err := store.GetByAccountID(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing profile = %v, want ErrNotFound", err)
	}

	p := domain.Profile{AccountID: "a1", Name: "Ana", Phone: "021", ChildName: "Leo", UpdatedAt: time.Now()}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p.AvatarKey = "a1-01jabc.png"
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := store.GetByAccountID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByAccountID: %v", err)
	}
	if got.AvatarKey != "a1-01jabc.png" || got.ChildName != "Leo" {
		t.Errorf("got %+v", got)
	}

	many, err := store.GetMany(ctx, []string{"a1", "a2", "ghost"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if len(many) != 1 || many["a1"].Name != "Ana" {
		t.Errorf("GetMany = %v", many)
	}

	// Deleting the account removes the profile.
	if err := accounts.Delete(ctx, "a1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetByAccountID(ctx, "a1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("profile after account delete = %v, want ErrNotFound", err)
	}
}
