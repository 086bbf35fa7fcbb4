// Package match decides whether a check's expected payee names appear in the
// text extracted from its images. Names are normalized before comparison and
// matched either by exact containment or by a fuzzy partial-ratio score
// against a configurable threshold.
package match
