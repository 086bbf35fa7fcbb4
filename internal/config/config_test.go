package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recheck/internal/config"
)

func TestDefaultValidatesAfterNormalize(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.Pipeline.BatchLimit <= 0 {
		t.Fatal("expected defaulted batch limit")
	}
	if cfg.Matching.FuzzyThreshold != 80 {
		t.Fatalf("expected default fuzzy threshold 80, got %d", cfg.Matching.FuzzyThreshold)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := strings.Join([]string{
		"[paths]",
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[portal]",
		`base_url = "https://portal.example.com/"`,
		"[pipeline]",
		"batch_limit = 25",
		"workers = 4",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected to load %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Portal.BaseURL != "https://portal.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Portal.BaseURL)
	}
	if cfg.Pipeline.BatchLimit != 25 || cfg.Pipeline.Workers != 4 {
		t.Fatalf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if cfg.Tools.Pdftoppm != "pdftoppm" {
		t.Fatalf("expected defaulted tools, got %+v", cfg.Tools)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero batch limit", func(c *config.Config) { c.Pipeline.BatchLimit = 0 }},
		{"threshold above 100", func(c *config.Config) { c.Matching.FuzzyThreshold = 101 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"metrics without bind", func(c *config.Config) {
			c.Metrics.Enabled = true
			c.Metrics.Bind = ""
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.DataDir = t.TempDir()
			cfg.Paths.LogDir = t.TempDir()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "export")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Paths.ExportDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if got := cfg.DatabasePath(); got != filepath.Join(cfg.Paths.DataDir, "recheck.db") {
		t.Fatalf("unexpected database path %q", got)
	}
}
