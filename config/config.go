package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"cardiai/artifacts"
	"cardiai/logging"
)

// Artifact sources.
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

type Config struct {
	Http      HTTPConfig     `yaml:"http"`
	Log       logging.Config `yaml:"log"`
	Artifacts ArtifactConfig `yaml:"artifacts"`
}

type HTTPConfig struct {
	Port           int             `yaml:"port"`
	Timeout        time.Duration   `yaml:"timeout"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	MaxBodyBytes   int64           `yaml:"max_body_bytes"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	MaxClients        int     `yaml:"max_clients"`
}

type ArtifactConfig struct {
	Source       string          `yaml:"source"`
	Dir          string          `yaml:"dir"`
	Files        artifacts.Files `yaml:"files"`
	RegistryPath string          `yaml:"registry_path"`
	Watch        bool            `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		Http: HTTPConfig{
			Port:           8000,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   64 << 10,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 20,
				Burst:             40,
				MaxClients:        4096,
			},
		},
		Log: logging.Config{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Artifacts: ArtifactConfig{
			Source:       SourceFile,
			Dir:          "models",
			Files:        artifacts.DefaultFiles(),
			RegistryPath: "data/artifacts.db",
		},
	}
}

// Load reads path over the defaults, then applies .env and CARDIAI_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		// an empty file keeps the defaults
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is optional
	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	switch c.Artifacts.Source {
	case SourceFile:
		if c.Artifacts.Dir == "" {
			return errors.New("artifacts.dir is required for the file source")
		}
	case SourceSQLite:
		if c.Artifacts.RegistryPath == "" {
			return errors.New("artifacts.registry_path is required for the sqlite source")
		}
	default:
		return fmt.Errorf("unknown artifacts.source %q", c.Artifacts.Source)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := getEnv("CARDIAI_HTTP_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARDIAI_HTTP_PORT: %w", err)
		}
		cfg.Http.Port = port
	}
	if v := getEnv("CARDIAI_HTTP_TIMEOUT", ""); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CARDIAI_HTTP_TIMEOUT: %w", err)
		}
		cfg.Http.Timeout = timeout
	}
	if v := getEnv("CARDIAI_ALLOWED_ORIGINS", ""); v != "" {
		cfg.Http.AllowedOrigins = strings.Split(v, ",")
	}
	cfg.Log.Level = getEnv("CARDIAI_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("CARDIAI_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("CARDIAI_LOG_FILE", cfg.Log.File)
	cfg.Artifacts.Source = getEnv("CARDIAI_ARTIFACT_SOURCE", cfg.Artifacts.Source)
	cfg.Artifacts.Dir = getEnv("CARDIAI_ARTIFACT_DIR", cfg.Artifacts.Dir)
	cfg.Artifacts.RegistryPath = getEnv("CARDIAI_REGISTRY_PATH", cfg.Artifacts.RegistryPath)
	if v := getEnv("CARDIAI_ARTIFACT_WATCH", ""); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CARDIAI_ARTIFACT_WATCH: %w", err)
		}
		cfg.Artifacts.Watch = watch
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
