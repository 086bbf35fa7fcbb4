package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks an operation against a row that does not exist,
	// such as a verdict or status write for an unknown identifier.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks network or portal I/O failures.
	ErrTransient = errors.New("transient failure")
	// ErrTimeout marks a bounded call that expired.
	ErrTimeout = errors.New("timeout")
	// ErrValidation marks malformed input data (empty PDF blob, bad image).
	ErrValidation = errors.New("validation error")
	// ErrExternalTool marks a converter or OCR binary exiting with an error.
	ErrExternalTool = errors.New("external tool error")
	// ErrConflict marks a write that kept losing to concurrent database
	// activity after the store's internal busy retries were exhausted.
	ErrConflict = errors.New("concurrency conflict")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotFound reports whether err represents an acquisition miss.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err represents a claim race.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsTimeout reports whether err represents an expired bounded call.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// Kind returns a short classification label for logging.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
