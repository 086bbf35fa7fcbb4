// Package logging assembles structured slog loggers used across the
// pipeline. It centralizes level and output plumbing and exposes
// context-aware helpers so stage code automatically tags log lines with
// check, batch, and stage identifiers. It also provides a no-op logger for
// tests and wiring code that cannot fail.
package logging
