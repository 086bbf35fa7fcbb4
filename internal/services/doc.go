// Package services defines the shared error taxonomy and context plumbing
// used by the pipeline and its collaborators.
//
// Collaborators (portal, conversion, OCR) tag failures with one of the
// exported sentinel errors via Wrap so the orchestrator can distinguish
// "document not found" from transient I/O, timeouts, and bad input without
// inspecting error strings. Context helpers carry check, batch, and stage
// identifiers so log lines stay correlated across package boundaries.
package services
