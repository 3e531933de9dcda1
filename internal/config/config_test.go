package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	for _, e := range []string{"CANVIZ_API_PORT", "PORT", "CANVIZ_DATA_DIR", "CANVIZ_SITE_BASE_PATH"} {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Site.Title != "Canada in Data" {
		t.Errorf("Site.Title: got %q, want %q", cfg.Site.Title, "Canada in Data")
	}
	if cfg.Site.BasePath != "/" {
		t.Errorf("Site.BasePath: got %q, want %q", cfg.Site.BasePath, "/")
	}
	if cfg.Data.Dir != "./data" {
		t.Errorf("Data.Dir: got %q, want %q", cfg.Data.Dir, "./data")
	}
	if cfg.Data.Concurrency != 4 {
		t.Errorf("Data.Concurrency: got %d, want 4", cfg.Data.Concurrency)
	}
	if cfg.Data.DataCacheTTL() != 0 {
		t.Errorf("Data.DataCacheTTL: got %v, want 0", cfg.Data.DataCacheTTL())
	}
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("API.Addr: got %q", cfg.API.Addr())
	}
	if cfg.Build.OutDir != "./dist" || !cfg.Build.Clean {
		t.Errorf("Build: got %+v", cfg.Build)
	}
	if cfg.News.Enabled {
		t.Error("News.Enabled should be false by default")
	}
	if cfg.News.MaxItems != 5 {
		t.Errorf("News.MaxItems: got %d, want 5", cfg.News.MaxItems)
	}
	if cfg.News.FeedCacheTTL() != 30*time.Minute {
		t.Errorf("News.FeedCacheTTL: got %v, want 30m", cfg.News.FeedCacheTTL())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
site:
  base_path: "Project-CanViz"
  url: "https://example.org"
data:
  dir: "/srv/canviz/data"
  watch: true
  cache_ttl: 600
api:
  port: 9090
  cors_origins: ["https://example.org"]
build:
  out_dir: "/tmp/out"
  clean: false
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	os.Unsetenv("CANVIZ_API_PORT")
	os.Unsetenv("PORT")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Site.BasePath != "/Project-CanViz/" {
		t.Errorf("Site.BasePath: got %q, want %q", cfg.Site.BasePath, "/Project-CanViz/")
	}
	if cfg.Data.Dir != "/srv/canviz/data" {
		t.Errorf("Data.Dir: got %q", cfg.Data.Dir)
	}
	if !cfg.Data.Watch {
		t.Error("Data.Watch should be true")
	}
	if cfg.Data.DataCacheTTL() != 10*time.Minute {
		t.Errorf("Data.DataCacheTTL: got %v, want 10m", cfg.Data.DataCacheTTL())
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "https://example.org" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}
	if cfg.Build.OutDir != "/tmp/out" || cfg.Build.Clean {
		t.Errorf("Build: got %+v", cfg.Build)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	// Defaults survive for unset keys.
	if cfg.Site.Title != "Canada in Data" {
		t.Errorf("Site.Title: got %q", cfg.Site.Title)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnvPort(t *testing.T) {
	t.Setenv("PORT", "5000")
	os.Unsetenv("CANVIZ_API_PORT")

	cfg := &Config{API: APIConfig{Port: 8080}}
	overrideFromEnv(cfg)
	if cfg.API.Port != 5000 {
		t.Errorf("API.Port: got %d, want 5000", cfg.API.Port)
	}
}

func TestOverrideFromEnvPrefersCanvizPort(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("CANVIZ_API_PORT", "7000")

	cfg := &Config{API: APIConfig{Port: 7000}}
	overrideFromEnv(cfg)
	if cfg.API.Port != 7000 {
		t.Errorf("API.Port: got %d, want 7000", cfg.API.Port)
	}
}

func TestOverrideFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	os.Unsetenv("CANVIZ_API_PORT")

	cfg := &Config{API: APIConfig{Port: 8080}}
	overrideFromEnv(cfg)
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
}

// ── NormaliseBasePath ──

func TestNormaliseBasePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "/"},
		{"/", "/"},
		{"  ", "/"},
		{"Project-CanViz", "/Project-CanViz/"},
		{"/Project-CanViz", "/Project-CanViz/"},
		{"/Project-CanViz/", "/Project-CanViz/"},
		{"a/b/", "/a/b/"},
	}
	for _, tc := range tests {
		got := NormaliseBasePath(tc.input)
		if got != tc.want {
			t.Errorf("NormaliseBasePath(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckPaths ──

func TestCheckPaths(t *testing.T) {
	os.Unsetenv("CANVIZ_DATA_DIR")
	os.Unsetenv("CANVIZ_BUILD_OUT_DIR")
	os.Unsetenv("CANVIZ_DATA_BASE_URL")

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "cpi_sample.csv"), []byte("month,index\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		Data:  DataConfig{Dir: dataDir},
		Build: BuildConfig{OutDir: filepath.Join(dataDir, "missing")},
	}

	statuses := CheckPaths(cfg)
	if len(statuses) != 3 {
		t.Fatalf("CheckPaths: got %d statuses, want 3", len(statuses))
	}

	data := statuses[0]
	if !data.Exists || data.Files != 1 {
		t.Errorf("data dir: got %+v", data)
	}
	if data.Source != PathSourceConfig {
		t.Errorf("data dir source: got %q, want %q", data.Source, PathSourceConfig)
	}

	out := statuses[1]
	if out.Exists {
		t.Error("missing output dir should not exist")
	}
	if out.Note == "" {
		t.Error("missing output dir should carry a note")
	}

	remote := statuses[2]
	if remote.Exists || remote.Source != PathSourceNone {
		t.Errorf("remote: got %+v", remote)
	}
}

func TestCheckPathsSourceDetection(t *testing.T) {
	t.Setenv("CANVIZ_DATA_BASE_URL", "https://example.org/data/")

	cfg := &Config{Data: DataConfig{BaseURL: "https://example.org/data/"}}
	statuses := CheckPaths(cfg)
	remote := statuses[2]
	if !remote.Exists {
		t.Error("remote should be reported as set")
	}
	if remote.Source != PathSourceEnv {
		t.Errorf("remote source: got %q, want %q", remote.Source, PathSourceEnv)
	}
}
