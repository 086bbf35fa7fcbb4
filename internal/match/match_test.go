package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "John Doe", "john doe"},
		{"strips punctuation", "John Q. Doe, Jr.", "john q doe jr"},
		{"collapses whitespace", "  john \t doe \n", "john doe"},
		{"strips accents", "José Nuñez", "jose nunez"},
		{"keeps digits", "Acme 123 LLC", "acme 123 llc"},
		{"pure punctuation", "...!?,", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestPartialRatio(t *testing.T) {
	t.Run("verbatim substring scores 100", func(t *testing.T) {
		assert.Equal(t, 100, PartialRatio("john doe", "pay to the order of john doe"))
	})

	t.Run("close alignment clears threshold", func(t *testing.T) {
		score := PartialRatio("john doe", "payment to john q doe for services")
		assert.GreaterOrEqual(t, score, DefaultThreshold)
	})

	t.Run("unrelated name scores low", func(t *testing.T) {
		score := PartialRatio("jane smith", "payment to robert johnson")
		assert.Less(t, score, DefaultThreshold)
	})

	t.Run("empty needle scores zero", func(t *testing.T) {
		assert.Equal(t, 0, PartialRatio("", "anything"))
	})

	t.Run("empty haystack scores zero", func(t *testing.T) {
		assert.Equal(t, 0, PartialRatio("john doe", ""))
	})
}

func TestMatchPayeesExact(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	outcome := m.MatchPayees([]string{"John Q. Doe"}, "PAY TO THE ORDER OF John Q. Doe $245.50")
	require.True(t, outcome.Matched)
	require.Len(t, outcome.Results, 1)
	result := outcome.Results[0]
	assert.True(t, result.Matched)
	assert.Equal(t, "John Q. Doe", result.Payee)
	assert.Equal(t, "john q doe", result.Evidence)
	assert.Equal(t, 100, result.Score)
}

func TestMatchPayeesFuzzy(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	// Middle initial in the extracted text but not the expected name.
	outcome := m.MatchPayees([]string{"John Doe"}, "payment to john q doe for services")
	require.True(t, outcome.Matched)
	require.Len(t, outcome.Results, 1)
	result := outcome.Results[0]
	assert.True(t, result.Matched)
	assert.Equal(t, "John Doe", result.Payee)
	assert.Contains(t, result.Evidence, "fuzzy match (")
	assert.GreaterOrEqual(t, result.Score, DefaultThreshold)
}

func TestMatchPayeesNoMatch(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	outcome := m.MatchPayees([]string{"Jane Smith"}, "payment to robert johnson")
	assert.False(t, outcome.Matched)
	require.Len(t, outcome.Results, 1)
	assert.False(t, outcome.Results[0].Matched)
	assert.Empty(t, outcome.Results[0].Evidence)
	assert.Less(t, outcome.Results[0].Score, DefaultThreshold)
}

func TestMatchPayeesAlternate(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	// The primary name misses; the alternate hits exactly.
	outcome := m.MatchPayees([]string{"Jonathan Doe Enterprises", "J. Doe"}, "remit to j doe po box 42")
	require.True(t, outcome.Matched)
	require.Len(t, outcome.Results, 2)
	assert.False(t, outcome.Results[0].Matched)
	assert.True(t, outcome.Results[1].Matched)

	best, ok := outcome.Best()
	require.True(t, ok)
	assert.Equal(t, "J. Doe", best.Payee)
}

func TestMatchPayeesNormalizationInvariance(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	base := m.MatchPayees([]string{"John Doe"}, "pay to the order of john doe")
	require.True(t, base.Matched)

	// Extra whitespace and punctuation in either operand must not change
	// the verdict as long as the word sequence is preserved.
	noisy := m.MatchPayees([]string{"  John,  Doe!  "}, "PAY TO THE ORDER OF...  john  doe")
	assert.Equal(t, base.Matched, noisy.Matched)
	require.Len(t, noisy.Results, 1)
	assert.Equal(t, base.Results[0].Matched, noisy.Results[0].Matched)
	assert.Equal(t, base.Results[0].Score, noisy.Results[0].Score)
}

func TestMatchPayeesThresholdBoundary(t *testing.T) {
	payee := "John Doe"
	text := "payment to john q doe for services"
	score := PartialRatio(Normalize(payee), Normalize(text))
	require.Less(t, score, 100)

	// A score exactly at the threshold matches; raising the threshold past it
	// stops matching.
	outcome := NewMatcher(score).MatchPayees([]string{payee}, text)
	assert.True(t, outcome.Matched)

	outcome = NewMatcher(score + 1).MatchPayees([]string{payee}, text)
	assert.False(t, outcome.Matched)
}

func TestMatchPayeesExactIgnoresThreshold(t *testing.T) {
	// Exact containment matches even with the cutoff maxed out.
	outcome := NewMatcher(100).MatchPayees([]string{"Acme Corp"}, "remit to acme corp dept 9")
	require.True(t, outcome.Matched)
	assert.Equal(t, 100, outcome.Results[0].Score)
}

func TestMatchPayeesSkipsEmptyNormalized(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	// A payee of pure punctuation must not match arbitrary text.
	outcome := m.MatchPayees([]string{"..."}, "payment to anyone at all")
	assert.False(t, outcome.Matched)
	assert.Empty(t, outcome.Results)

	outcome = m.MatchPayees([]string{""}, "payment to anyone at all")
	assert.False(t, outcome.Matched)
	assert.Empty(t, outcome.Results)
}

func TestMatchPayeesDeterministic(t *testing.T) {
	m := NewMatcher(DefaultThreshold)
	payees := []string{"John Doe", "Acme Corp"}
	text := "payment to john q doe for services rendered by acme"

	first := m.MatchPayees(payees, text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.MatchPayees(payees, text))
	}
}

func TestMatchPayeesEmptyText(t *testing.T) {
	m := NewMatcher(DefaultThreshold)

	outcome := m.MatchPayees([]string{"John Doe"}, "")
	assert.False(t, outcome.Matched)
}

func TestNewMatcherThresholdFallback(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewMatcher(0).Threshold())
	assert.Equal(t, DefaultThreshold, NewMatcher(150).Threshold())
	assert.Equal(t, 90, NewMatcher(90).Threshold())
}
