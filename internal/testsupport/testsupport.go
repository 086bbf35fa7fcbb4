// Package testsupport provides helpers shared by package tests.
package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recheck/internal/config"
	"recheck/internal/store"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfg := &cfgVal
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "export")
	cfg.Portal.BaseURL = "http://127.0.0.1:0"
	cfg.Portal.Username = "test"
	cfg.Portal.Password = "test"

	builder := &configBuilder{t: t, baseDir: base, cfg: cfg}
	for _, opt := range opts {
		opt(builder)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBatchLimit overrides the claim size on the test config.
func WithBatchLimit(limit int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.BatchLimit = limit
	}
}

// WithWorkers overrides in-batch concurrency on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.Workers = workers
	}
}

// WithStubbedBinaries writes stub executables for the provided names into a
// per-test bin directory and points the tool configuration at them. If names
// is empty, both pipeline binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"pdftoppm", "tesseract"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "pdftoppm":
				b.cfg.Tools.Pdftoppm = target
			case "tesseract":
				b.cfg.Tools.Tesseract = target
			}
		}
	}
}

// MustOpenStore opens a store backed by the config's data directory and
// closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

// SeedCheck inserts a pending check record with sensible field defaults.
func SeedCheck(t testing.TB, s *store.Store, guid, payee string) *store.CheckRecord {
	t.Helper()
	record := &store.CheckRecord{
		GUID:          guid,
		AccountNumber: "123456",
		CheckNumber:   "1001",
		Amount:        100,
		Payee:         payee,
		IssueDate:     time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := s.InsertCheck(context.Background(), record); err != nil {
		t.Fatalf("seed check %s: %v", guid, err)
	}
	return record
}
