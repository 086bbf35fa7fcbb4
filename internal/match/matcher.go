package match

import (
	"fmt"
	"strings"
)

// DefaultThreshold is the minimum partial-ratio score counted as a fuzzy
// match when no threshold is configured.
const DefaultThreshold = 80

// PayeeResult is the verdict for one candidate payee.
type PayeeResult struct {
	// Payee is the candidate as supplied, before normalization.
	Payee   string
	Matched bool
	// Evidence is the normalized name for an exact hit, a description of
	// the fuzzy score for a fuzzy hit, and empty otherwise.
	Evidence string
	// Score is 100 for exact containment, otherwise the partial-ratio
	// score against the text.
	Score int
}

// Outcome reports whether any candidate payee was found in a block of
// extracted text, with per-candidate verdicts in input order.
type Outcome struct {
	Matched bool
	Results []PayeeResult
}

// Best returns the highest-scoring matched candidate, if any. Ties keep
// the earlier candidate.
func (o Outcome) Best() (PayeeResult, bool) {
	var best PayeeResult
	found := false
	for _, r := range o.Results {
		if r.Matched && (!found || r.Score > best.Score) {
			best = r
			found = true
		}
	}
	return best, found
}

// Matcher compares expected payee names against extracted text.
type Matcher struct {
	threshold int
}

// NewMatcher returns a matcher using the given fuzzy threshold. Values
// outside 0..100 fall back to the default.
func NewMatcher(threshold int) *Matcher {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold reports the configured fuzzy cutoff.
func (m *Matcher) Threshold() int {
	return m.threshold
}

// MatchPayees checks each candidate payee against the extracted text.
// Every candidate gets its own verdict: exact containment of the
// normalized name counts first and skips fuzzy scoring for that
// candidate, otherwise a partial-ratio score at or above the threshold
// counts as a fuzzy match. Candidates that normalize to nothing are
// skipped entirely, so a payee of pure punctuation never matches
// everything. The result is deterministic for identical inputs.
func (m *Matcher) MatchPayees(payees []string, text string) Outcome {
	normalizedText := Normalize(text)
	outcome := Outcome{}

	for _, payee := range payees {
		name := Normalize(payee)
		if name == "" {
			continue
		}

		result := PayeeResult{Payee: payee}
		if strings.Contains(normalizedText, name) {
			result.Matched = true
			result.Evidence = name
			result.Score = 100
		} else {
			result.Score = PartialRatio(name, normalizedText)
			if result.Score >= m.threshold {
				result.Matched = true
				result.Evidence = fmt.Sprintf("fuzzy match (%d%%)", result.Score)
			}
		}
		if result.Matched {
			outcome.Matched = true
		}
		outcome.Results = append(outcome.Results, result)
	}
	return outcome
}
