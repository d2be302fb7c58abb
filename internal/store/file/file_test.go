package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"stockroom/internal/store"
)

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	backend, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if _, found, err := backend.Load(ctx, store.Products); err != nil || found {
		t.Fatalf("expected missing collection, found=%v err=%v", found, err)
	}
	if err := backend.Save(ctx, store.Products, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	payload, found, err := backend.Load(ctx, store.Products)
	if err != nil || !found {
		t.Fatalf("Load: found=%v err=%v", found, err)
	}
	if string(payload) != `[{"id":1}]` {
		t.Fatalf("unexpected payload %s", payload)
	}
	if _, err := os.Stat(filepath.Join(dir, "products.json")); err != nil {
		t.Fatalf("expected products.json on disk: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := backend.Save(context.Background(), store.Sales, []byte(`[]`)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only sales.json, got %d entries", len(entries))
	}
}

func TestRejectsPathTraversal(t *testing.T) {
	backend, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := backend.Save(context.Background(), "../escape", []byte(`[]`)); err == nil {
		t.Fatalf("expected invalid collection name to be rejected")
	}
}

func TestCollectionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	expenses := store.NewCollection(first, store.Expenses, store.SeedExpenses)
	records, err := expenses.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if err := expenses.Replace(ctx, records[:2]); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	second, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reopened, err := store.NewCollection(second, store.Expenses, store.SeedExpenses).All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(reopened) != 2 {
		t.Fatalf("expected 2 persisted expenses, got %d", len(reopened))
	}
	if reopened[1].Amount.String() != "300.5" {
		t.Fatalf("expected amount to round-trip, got %s", reopened[1].Amount)
	}
}
