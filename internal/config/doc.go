// Package config loads, normalizes, and validates the TOML configuration for
// the reconciliation pipeline. Callers should use Load (or Default for
// tests), then rely on the expanded absolute paths it returns.
package config
