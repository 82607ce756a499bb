package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"cardiai/db"
	"cardiai/pipeline"
)

func TestLoadFromDirectory(t *testing.T) {
	set, err := Load(NewDirSource("testdata", Files{}), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := set.Status()
	if !status.ModelLoaded || !status.ScalerLoaded || !status.EncoderLoaded {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.ExpectedFeatures != 10 || status.FeatureNames[0] != pipeline.ColumnAlcohol {
		t.Fatalf("unexpected feature names: %v", status.FeatureNames)
	}
	if status.ModelVersion != "1.0" || status.ModelType != "random_forest" {
		t.Fatalf("unexpected model info: %+v", status)
	}
	if set.ScalerOrder()[0] != pipeline.ColumnAge {
		t.Fatalf("unexpected scaler order: %v", set.ScalerOrder())
	}
	if set.Describe()["n_estimators"] != 3 {
		t.Fatalf("unexpected describe output: %v", set.Describe())
	}
}

func TestLoadedSchemaIsConsistent(t *testing.T) {
	set, err := Load(NewDirSource("testdata", Files{}), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assembler, err := pipeline.NewAssembler(set.Schema())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := assembler.Check(); err != nil {
		t.Fatalf("testdata artifacts are inconsistent: %v", err)
	}
}

func TestLoadFailsFastOnMissingArtifact(t *testing.T) {
	_, err := Load(NewDirSource("testdata", Files{Encoder: "missing.json"}), zap.NewNop())
	if err == nil {
		t.Fatalf("expected error for missing encoder")
	}
	if !strings.Contains(err.Error(), "missing.json") {
		t.Fatalf("error should name the artifact path: %v", err)
	}
}

func copyTestdata(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := DefaultFiles()
	for _, name := range []string{files.Model, files.Scaler, files.Encoder} {
		payload, err := os.ReadFile(filepath.Join("testdata", name))
		if err != nil {
			t.Fatalf("read testdata: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), payload, 0o600); err != nil {
			t.Fatalf("write testdata: %v", err)
		}
	}
	return dir
}

func TestLoadFailsOnCorruptScaler(t *testing.T) {
	dir := copyTestdata(t)
	if err := os.WriteFile(filepath.Join(dir, DefaultFiles().Scaler), []byte(`{"data_min":[1,2],"scale":[1]}`), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(NewDirSource(dir, Files{}), zap.NewNop()); err == nil {
		t.Fatalf("expected scaler validation error")
	}
}

func TestLoadFromRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	registry, err := db.OpenRegistry(path)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer registry.Close()

	dir := NewDirSource("testdata", Files{})
	for _, name := range Names() {
		payload, err := dir.Read(name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := registry.SaveArtifact(name, "1.0", payload); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	set, err := Load(NewRegistrySource(registry, path), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Status().ExpectedFeatures != 10 {
		t.Fatalf("unexpected status: %+v", set.Status())
	}
}

func TestLoadFromEmptyRegistryFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	registry, err := db.OpenRegistry(path)
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	defer registry.Close()

	_, err = Load(NewRegistrySource(registry, path), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "#model") {
		t.Fatalf("expected model lookup failure, got %v", err)
	}
}

func TestWatcherReportsArtifactChange(t *testing.T) {
	dir := copyTestdata(t)
	changed := make(chan string, 8)
	watcher, err := NewWatcher(NewDirSource(dir, Files{}), zap.NewNop(), func(name, path string) {
		changed <- name
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultFiles().Encoder), []byte(`{"mapping":{"Low":0}}`), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case name := <-changed:
		if name != NameEncoder {
			t.Fatalf("expected encoder change, got %s", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}
}
