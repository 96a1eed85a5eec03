package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.BasemapEnabled() {
		t.Fatal("basemap should be enabled by default")
	}
	if cfg.Basemap.URL != DefaultTileURL {
		t.Fatalf("unexpected url %q", cfg.Basemap.URL)
	}
	if cfg.Basemap.Attribution != DefaultAttribution {
		t.Fatalf("unexpected attribution %q", cfg.Basemap.Attribution)
	}
	if cfg.Style.Fill != "#ADD8E6" || cfg.Style.Edge != "#000000" || cfg.Style.Alpha != 0.6 {
		t.Fatalf("unexpected style %+v", cfg.Style)
	}
	if cfg.Basemap.CacheDir != "" {
		t.Fatalf("disk cache must be off by default, got %q", cfg.Basemap.CacheDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
basemap:
  enabled: false
  url: https://tiles.example.test/{z}/{x}/{tms_y}.png
  max_tiles: 9
  timeout: 5s
style:
  fill: "#FF0000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.BasemapEnabled() {
		t.Fatal("expected basemap disabled")
	}
	if cfg.Basemap.MaxTiles != 9 {
		t.Fatalf("expected max_tiles 9, got %d", cfg.Basemap.MaxTiles)
	}
	if cfg.Basemap.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %s", cfg.Basemap.Timeout)
	}
	if cfg.Basemap.MaxZoom != 19 {
		t.Fatalf("expected default max_zoom, got %d", cfg.Basemap.MaxZoom)
	}
	if cfg.Basemap.Attribution != "" {
		t.Fatalf("custom tile url must not get the OSM attribution, got %q", cfg.Basemap.Attribution)
	}
	if cfg.Style.Fill != "#FF0000" || cfg.Style.Edge != "#000000" {
		t.Fatalf("unexpected style %+v", cfg.Style)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
basemap:
  url: https://tiles.example.test/static.png
style:
  alpha: 3
  edge: black
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"basemap.url", "style.alpha", "style.edge"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := writeConfig(t, "basemap: [")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSetBasemap(t *testing.T) {
	cfg := Default()
	cfg.SetBasemap(false)
	if cfg.BasemapEnabled() {
		t.Fatal("expected basemap disabled")
	}
}
