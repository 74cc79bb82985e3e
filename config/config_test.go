package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/typekit/config"
)

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
schema:
  dirs: ["types", "shared/types"]
  watch: true
  debounce: 2s

database:
  driver: "sqlite"
  dsn: ":memory:"

logging:
  level: "debug"
  format: "console"
`

	cfg := writeAndLoad(t, content)

	if len(cfg.Schema.Dirs) != 2 || cfg.Schema.Dirs[0] != "types" {
		t.Errorf("Schema.Dirs = %v, want [types shared/types]", cfg.Schema.Dirs)
	}
	if !cfg.Schema.Watch {
		t.Error("Schema.Watch = false, want true")
	}
	if cfg.Schema.Debounce != 2*time.Second {
		t.Errorf("Schema.Debounce = %v, want 2s", cfg.Schema.Debounce)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("Database.DSN = %s, want :memory:", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "{}\n")

	if len(cfg.Schema.Dirs) != 1 || cfg.Schema.Dirs[0] != "schemas" {
		t.Errorf("Schema.Dirs = %v, want [schemas]", cfg.Schema.Dirs)
	}
	if cfg.Schema.Debounce != 500*time.Millisecond {
		t.Errorf("Schema.Debounce = %v, want 500ms", cfg.Schema.Debounce)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "typekit.db" {
		t.Errorf("Database.DSN = %s, want typekit.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %s, want json", cfg.Logging.Format)
	}
}

func TestLoad_InvalidLevel(t *testing.T) {
	content := `
logging:
  level: "verbose"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("expected error for invalid logging level")
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	content := `
database:
  driver: "postgres"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TYPEKIT_SCHEMA_DIRS", "a, b ,c")
	t.Setenv("TYPEKIT_SCHEMA_WATCH", "true")
	t.Setenv("TYPEKIT_DATABASE_DSN", "/var/lib/typekit.db")
	t.Setenv("TYPEKIT_LOG_LEVEL", "warn")

	cfg := writeAndLoad(t, `
schema:
  dirs: ["ignored"]
logging:
  level: "info"
`)

	if len(cfg.Schema.Dirs) != 3 || cfg.Schema.Dirs[1] != "b" {
		t.Errorf("Schema.Dirs = %v, want [a b c]", cfg.Schema.Dirs)
	}
	if !cfg.Schema.Watch {
		t.Error("Schema.Watch = false, want true")
	}
	if cfg.Database.DSN != "/var/lib/typekit.db" {
		t.Errorf("Database.DSN = %s", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %s, want warn", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TYPEKIT_SCHEMA_DIRS", "types")
	t.Setenv("TYPEKIT_LOG_FORMAT", "console")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if len(cfg.Schema.Dirs) != 1 || cfg.Schema.Dirs[0] != "types" {
		t.Errorf("Schema.Dirs = %v, want [types]", cfg.Schema.Dirs)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("TYPEKIT_SCHEMA_DIRS", "env-types")

	// Missing file falls back to env.
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if cfg.Schema.Dirs[0] != "env-types" {
		t.Errorf("Schema.Dirs = %v, want [env-types]", cfg.Schema.Dirs)
	}
}
