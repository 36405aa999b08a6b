package uploads

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoFindByStoredNameReturnsNewest(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, Record{ID: "old", StoredName: "a.png", OriginalName: "first.png", CreatedAt: base})
	_ = repo.Create(ctx, Record{ID: "new", StoredName: "a.png", OriginalName: "second.png", CreatedAt: base.Add(time.Hour)})
	_ = repo.Create(ctx, Record{ID: "other", StoredName: "b.png", CreatedAt: base.Add(2 * time.Hour)})

	rec, err := repo.FindByStoredName(ctx, "a.png")
	if err != nil {
		t.Fatalf("FindByStoredName: %v", err)
	}
	if rec.ID != "new" {
		t.Fatalf("expected newest record, got %s", rec.ID)
	}
	if _, err := repo.FindByStoredName(ctx, "c.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoListByScope(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_ = repo.Create(ctx, Record{ID: id, Scope: "s", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	_ = repo.Create(ctx, Record{ID: "x", Scope: "other", CreatedAt: base})

	records, err := repo.ListByScope(ctx, "s", 2, 0)
	if err != nil {
		t.Fatalf("ListByScope: %v", err)
	}
	if len(records) != 2 || records[0].ID != "c" || records[1].ID != "b" {
		t.Fatalf("unexpected page: %+v", records)
	}

	records, _ = repo.ListByScope(ctx, "s", 2, 2)
	if len(records) != 1 || records[0].ID != "a" {
		t.Fatalf("unexpected second page: %+v", records)
	}

	records, _ = repo.ListByScope(ctx, "s", 2, 10)
	if len(records) != 0 {
		t.Fatalf("expected empty page, got %+v", records)
	}
}

func TestMemoryRepoHonorsContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := repo.Create(ctx, Record{ID: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
