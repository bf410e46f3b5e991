package memory

import (
	"context"
	"errors"
	"testing"

	"docquiz-service/internal/app"
	"docquiz-service/internal/domain"
)

type row struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

func TestStoreInsertConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "quizzes", "q1", row{ID: "q1"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	err := store.Insert(ctx, "quizzes", "q1", row{ID: "q1"})
	if !errors.Is(err, domain.ErrStorageConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	var dest row
	err := store.Get(context.Background(), "quizzes", "nope", &dest)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdatePatchesFields(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Insert(ctx, "quizzes", "q1", row{ID: "q1", Title: "Draft"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := store.Update(ctx, "quizzes", "q1", map[string]any{"title": "Final"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var dest row
	if err := store.Get(ctx, "quizzes", "q1", &dest); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if dest.Title != "Final" || dest.ID != "q1" {
		t.Fatalf("patch not applied: %+v", dest)
	}
}

func TestStoreListFiltersOrdersAndPages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seed := []row{
		{ID: "a", OwnerID: "u1", CreatedAt: "2025-08-01T10:00:00Z"},
		{ID: "b", OwnerID: "u1", CreatedAt: "2025-08-03T10:00:00Z"},
		{ID: "c", OwnerID: "u2", CreatedAt: "2025-08-02T10:00:00Z"},
		{ID: "d", OwnerID: "u1", CreatedAt: "2025-08-02T10:00:00Z"},
	}
	for _, r := range seed {
		if err := store.Insert(ctx, "quizzes", r.ID, r); err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}

	var got []row
	err := store.List(ctx, "quizzes", app.ListQuery{
		Filters: map[string]string{"owner_id": "u1"},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   2,
	}, &got)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "d" {
		t.Fatalf("unexpected page: %+v", got)
	}

	got = nil
	err = store.List(ctx, "quizzes", app.ListQuery{
		Filters: map[string]string{"owner_id": "u1"},
		OrderBy: "created_at",
		Desc:    true,
		Limit:   2,
		Offset:  2,
	}, &got)
	if err != nil {
		t.Fatalf("list page 2 failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected second page: %+v", got)
	}
}

func TestStoreBlobConflictAndDownload(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Upload(ctx, "documents", "k1", []byte("%PDF"), "application/pdf"); err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	err := store.Upload(ctx, "documents", "k1", []byte("other"), "application/pdf")
	if !errors.Is(err, domain.ErrStorageConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	content, contentType, err := store.Download(ctx, "documents", "k1")
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if string(content) != "%PDF" || contentType != "application/pdf" {
		t.Fatalf("unexpected blob %q %q", content, contentType)
	}
}
