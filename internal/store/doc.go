// Package store manages reconciliation persistence backed by SQLite.
//
// It owns the five entity tables (checks, batches, pdfs, images,
// ocr_results), the check status state machine, and the atomic batch claim
// that moves pending checks into a fresh batch. Claims execute as a single
// write transaction so concurrent allocators never double-claim a record.
package store
