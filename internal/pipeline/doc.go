// Package pipeline orchestrates check reconciliation batches. A run claims
// pending check records into a batch, then drives each record through
// download, conversion, text extraction, and payee matching. Records fail
// independently; one bad document never takes down the batch.
package pipeline
