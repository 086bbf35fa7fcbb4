package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recheck/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection reset")
	err := services.Wrap(services.ErrTransient, "acquire", "fetch", "portal request", cause)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected wrapped error to match ErrTransient: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to retain cause: %v", err)
	}
	for _, want := range []string{"acquire", "fetch", "portal request", "connection reset"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error text, got %q", want, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "convert", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to ErrTransient: %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrNotFound, "acquire", "fetch", "no document", nil), "not_found"},
		{services.Wrap(services.ErrTimeout, "acquire", "fetch", "deadline", nil), "timeout"},
		{services.Wrap(services.ErrValidation, "convert", "", "empty pdf", nil), "validation"},
		{services.Wrap(services.ErrExternalTool, "ocr", "tesseract", "exit 1", nil), "external_tool"},
		{services.Wrap(services.ErrConflict, "claim", "", "", nil), "conflict"},
		{errors.New("plain"), "unknown"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := services.Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.CheckIDFromContext(ctx); ok {
		t.Fatal("expected no check id on fresh context")
	}
	ctx = services.WithCheckID(ctx, "chk-1")
	ctx = services.WithBatchID(ctx, "batch-1")
	ctx = services.WithStage(ctx, "acquire")
	ctx = services.WithRequestID(ctx, "req-1")

	if id, ok := services.CheckIDFromContext(ctx); !ok || id != "chk-1" {
		t.Fatalf("check id = %q, %v", id, ok)
	}
	if id, ok := services.BatchIDFromContext(ctx); !ok || id != "batch-1" {
		t.Fatalf("batch id = %q, %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "acquire" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}
