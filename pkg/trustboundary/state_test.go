package trustboundary

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRecord(provider string) BoundaryRecord {
	return BoundaryRecord{
		ID:               "tb-" + provider + "-00000000",
		Provider:         provider,
		Endpoint:         "https://iamcredentials.googleapis.com/v1/projects/-/serviceAccounts/test@example.com/allowedLocations",
		Locations:        []string{"us-central1", "us-east1", "europe-west1", "asia-east1"},
		EncodedLocations: "0xA30",
		ResolvedAt:       time.Now().UTC(),
		Version:          RecordVersion,
	}
}

func runRecordStoreTests(t *testing.T, store RecordStore) {
	ctx := context.Background()

	t.Run("SaveGet", func(t *testing.T) {
		record := testRecord("static")
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.Get(ctx, "static")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.EncodedLocations != "0xA30" {
			t.Errorf("expected encoded 0xA30, got %q", got.EncodedLocations)
		}
		if len(got.Locations) != 4 {
			t.Errorf("expected 4 locations, got %d", len(got.Locations))
		}
	})

	t.Run("SaveReplacesPerProvider", func(t *testing.T) {
		record := testRecord("static")
		record.EncodedLocations = "0x1F"
		if err := store.Save(ctx, record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := store.Get(ctx, "static")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.EncodedLocations != "0x1F" {
			t.Errorf("expected replacement record, got %q", got.EncodedLocations)
		}

		all, err := store.List(ctx, RecordFilter{Provider: "static"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected one record per provider, got %d", len(all))
		}
	})

	t.Run("ListFilter", func(t *testing.T) {
		if err := store.Save(ctx, testRecord("gce")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		all, err := store.List(ctx, RecordFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 records, got %d", len(all))
		}

		gce, err := store.List(ctx, RecordFilter{Provider: "gce"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gce) != 1 || gce[0].Provider != "gce" {
			t.Errorf("expected only the gce record, got %v", gce)
		}

		limited, err := store.List(ctx, RecordFilter{Limit: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(limited) != 1 {
			t.Errorf("expected 1 record with limit, got %d", len(limited))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if err == nil {
			t.Fatal("expected an error")
		}
		if !IsCategory(err, ErrCategoryNotFound) {
			t.Errorf("expected not_found category, got %v", err)
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		if err := store.Delete(ctx, "gce"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := store.Get(ctx, "gce"); err == nil {
			t.Fatal("expected record to be gone")
		}
		if err := store.Delete(ctx, "gce"); err != nil {
			t.Fatalf("expected idempotent delete, got %v", err)
		}
	})
}

func TestMemoryRecordStore(t *testing.T) {
	runRecordStoreTests(t, NewMemoryRecordStore())
}

func TestFileRecordStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileRecordStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runRecordStoreTests(t, store)
}

func TestFileRecordStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")
	ctx := context.Background()

	store, err := NewFileRecordStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(ctx, testRecord("static")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh store instance reads the same file.
	reloaded, err := NewFileRecordStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := reloaded.Get(ctx, "static")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.EncodedLocations != "0xA30" {
		t.Errorf("expected encoded 0xA30 after reload, got %q", got.EncodedLocations)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}
}

func TestFileRecordStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewFileRecordStore(path); err == nil {
		t.Fatal("expected an error for a corrupt state file")
	}
}
