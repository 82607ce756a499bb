package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := OpenRegistry(filepath.Join(t.TempDir(), "artifacts.db"))
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { registry.Close() })
	return registry
}

func TestRegistryLatestArtifact(t *testing.T) {
	registry := openTestRegistry(t)

	if err := registry.SaveArtifact("scaler", "1.0", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := registry.SaveArtifact("scaler", "1.1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rec, err := registry.LatestArtifact("scaler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Version != "1.1" || string(rec.Payload) != `{"v":2}` || rec.Size != 7 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRegistryReplacesSameVersion(t *testing.T) {
	registry := openTestRegistry(t)

	for _, payload := range []string{"first", "second"} {
		if err := registry.SaveArtifact("encoder", "1.0", []byte(payload)); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	records, err := registry.ListArtifacts()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	rec, err := registry.LatestArtifact("encoder")
	if err != nil || string(rec.Payload) != "second" {
		t.Fatalf("unexpected latest: %+v (%v)", rec, err)
	}
}

func TestRegistryNotFound(t *testing.T) {
	registry := openTestRegistry(t)

	_, err := registry.LatestArtifact("model")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryRejectsEmptyPayload(t *testing.T) {
	registry := openTestRegistry(t)

	if err := registry.SaveArtifact("model", "1.0", nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if err := registry.SaveArtifact("", "1.0", []byte("x")); err == nil {
		t.Fatalf("expected error for empty name")
	}
}
