package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recheck/internal/config"
	"recheck/internal/logging"
	"recheck/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "recheck.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("pipeline started", logging.String("component", "test"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline started") {
		t.Fatalf("expected log line in file, got %q", string(data))
	}
}

func TestNewFromConfigCreatesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Format = "json"

	if _, err := logging.NewFromConfig(&cfg); err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.LogDir); err != nil {
		t.Fatalf("expected log dir created: %v", err)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithCheckID(context.Background(), "chk-9")
	ctx = services.WithBatchID(ctx, "batch-3")
	ctx = services.WithStage(ctx, "ocr")

	fields := logging.ContextFields(ctx)
	keys := make(map[string]string, len(fields))
	for _, f := range fields {
		keys[f.Key] = f.Value.String()
	}
	if keys[logging.FieldCheckID] != "chk-9" {
		t.Fatalf("missing check id field: %v", keys)
	}
	if keys[logging.FieldBatchID] != "batch-3" {
		t.Fatalf("missing batch id field: %v", keys)
	}
	if keys[logging.FieldStage] != "ocr" {
		t.Fatalf("missing stage field: %v", keys)
	}

	if logger := logging.WithContext(ctx, nil); logger == nil {
		t.Fatal("WithContext must never return nil")
	}
}
