package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/combine/internal/errors"
)

type envTestConfig struct {
	Port int `env:"COMBINE_TEST_PORT" envDefault:"123"`
}

func TestParseEnvUsesDefaults(t *testing.T) {
	var cfg envTestConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("Port = %d, want 123", cfg.Port)
	}
}

func TestParseEnvWrapsErrors(t *testing.T) {
	t.Setenv("COMBINE_TEST_PORT", "not-a-number")

	var cfg envTestConfig
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v, want parse env prefix", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "combine.json")
	content := `{"enabled": false, "paths": {"web": "public"}, "http": {"clientCacheMaxAge": 1}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COMBINE_ENABLED", "true")
	t.Setenv("COMBINE_WEB_DIR", "/var/www")
	t.Setenv("COMBINE_CLIENT_CACHE_MAX_AGE", "14")
	t.Setenv("COMBINE_GZIP", "false")
	t.Setenv("COMBINE_JS_CLASS", "passthrough")
	t.Setenv("COMBINE_CSS_METHOD", "inline")
	t.Setenv("COMBINE_PREFIX", "/bundles/")
	t.Setenv("COMBINE_METRICS", "false")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if !cfg.Enabled {
		t.Error("COMBINE_ENABLED should override the file")
	}
	if cfg.WebDir() != "/var/www" {
		t.Errorf("WebDir() = %q", cfg.WebDir())
	}
	if cfg.HTTP.ClientCacheMaxAge != 14 || cfg.HTTP.Gzip {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.JS.Class != "passthrough" || cfg.CSS.Method != "inline" {
		t.Errorf("JS = %+v, CSS = %+v", cfg.JS, cfg.CSS)
	}
	if cfg.Server.Prefix != "/bundles" || cfg.Server.Metrics {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !cfg.HTTP.LegacyUserAgentCheck {
		t.Error("unset variables should leave values alone")
	}
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("COMBINE_CLIENT_CACHE_MAX_AGE", "forever")

	_, err := FromEnv(t.TempDir())
	if !errors.HasCode(err, "E103") {
		t.Fatalf("err = %v, want E103", err)
	}
}
