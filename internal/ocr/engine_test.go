package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"recheck/internal/config"
	"recheck/internal/services"
)

func runnerWithStub(t *testing.T, script string) *Runner {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub tool: %v", err)
	}
	cfg := config.Default()
	cfg.Tools.Tesseract = path
	return NewRunner(&cfg)
}

func TestExtractText(t *testing.T) {
	runner := runnerWithStub(t, `printf 'PAY TO THE ORDER OF John Q. Doe\n'`)

	text, err := runner.ExtractText(context.Background(), []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if text != "PAY TO THE ORDER OF John Q. Doe" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractTextEmptyOutputIsValid(t *testing.T) {
	runner := runnerWithStub(t, "exit 0")

	text, err := runner.ExtractText(context.Background(), []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("expected empty text to be valid, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractTextEmptyImage(t *testing.T) {
	runner := runnerWithStub(t, "exit 0")

	_, err := runner.ExtractText(context.Background(), nil)
	if services.Kind(err) != "validation" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExtractTextToolFailure(t *testing.T) {
	runner := runnerWithStub(t, `
echo 'Error in pixReadStream' >&2
exit 1
`)

	_, err := runner.ExtractText(context.Background(), []byte{0x89, 0x50})
	if services.Kind(err) != "external_tool" {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
