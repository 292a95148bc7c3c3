package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "warden.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRememberAndRecall(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Remember(ctx, "disks", "sda spins down after 20 minutes idle")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a generated note ID")
	}
	if first.Category != "disks" {
		t.Errorf("Category = %q, want disks", first.Category)
	}

	if _, err := store.Remember(ctx, "", "backup window is 02:00-04:00"); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	notes, err := store.Recall(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}

	filtered, err := store.Recall(ctx, "disks", 0)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != first.ID {
		t.Errorf("category filter returned %+v, want only the disks note", filtered)
	}
}

func TestRememberDefaultsCategory(t *testing.T) {
	store := newTestStore(t)

	note, err := store.Remember(context.Background(), "  ", "pool vault replaced 2026-08")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if note.Category != DefaultCategory {
		t.Errorf("Category = %q, want %q", note.Category, DefaultCategory)
	}
}

func TestRememberRejectsEmptyContent(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Remember(context.Background(), "disks", "   "); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestRecallLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := store.Remember(ctx, "general", content); err != nil {
			t.Fatalf("Remember: %v", err)
		}
	}

	notes, err := store.Recall(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(notes) != 2 {
		t.Errorf("got %d notes, want 2", len(notes))
	}
}

func TestForget(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	note, err := store.Remember(ctx, "disks", "sdb serial replaced under warranty")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	deleted, err := store.Forget(ctx, note.ID)
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if !deleted {
		t.Error("expected Forget to report the note existed")
	}

	deleted, err = store.Forget(ctx, note.ID)
	if err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if deleted {
		t.Error("expected second Forget to report missing note")
	}

	notes, err := store.Recall(ctx, "", 0)
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("got %d notes after delete, want 0", len(notes))
	}
}
