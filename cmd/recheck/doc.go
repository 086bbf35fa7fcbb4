// Command recheck drives the check-image reconciliation pipeline: importing
// issuance files, fetching and reading check images in batches, and
// exporting match results for review.
package main
