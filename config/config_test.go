package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 8000 || cfg.Artifacts.Source != SourceFile {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Artifacts.Files.Model != "modelo_rf_final.json" {
		t.Fatalf("unexpected artifact files: %+v", cfg.Artifacts.Files)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
  rate_limit:
    requests_per_second: 2
log:
  level: debug
artifacts:
  source: sqlite
  registry_path: /var/lib/cardiai/artifacts.db
  watch: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 9090 || cfg.Http.Timeout != 5*time.Second {
		t.Fatalf("unexpected http config: %+v", cfg.Http)
	}
	if cfg.Http.RateLimit.RequestsPerSecond != 2 || cfg.Http.RateLimit.Burst != 40 {
		t.Fatalf("unexpected rate limit: %+v", cfg.Http.RateLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Artifacts.Source != SourceSQLite || !cfg.Artifacts.Watch {
		t.Fatalf("unexpected artifact config: %+v", cfg.Artifacts)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CARDIAI_HTTP_PORT", "8181")
	t.Setenv("CARDIAI_ARTIFACT_DIR", "/srv/models")
	t.Setenv("CARDIAI_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(writeConfig(t, "http:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 8181 {
		t.Fatalf("env must win over file, got %d", cfg.Http.Port)
	}
	if cfg.Artifacts.Dir != "/srv/models" || len(cfg.Http.AllowedOrigins) != 2 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	if _, err := Load(writeConfig(t, "artifacts:\n  source: s3\n")); err == nil {
		t.Fatalf("expected source error")
	}
	t.Setenv("CARDIAI_HTTP_PORT", "eighty")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Fatalf("expected port parse error")
	}
}
