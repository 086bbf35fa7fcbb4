package match

import "math"

// PartialRatio scores how well needle aligns against the best-matching
// region of haystack, from 0 (nothing in common) to 100 (needle appears
// verbatim). The alignment is an approximate substring edit distance:
// haystack characters before and after the matched region are free,
// insertions and deletions inside it cost 1, substitutions cost 2.
func PartialRatio(needle, haystack string) int {
	n := []rune(needle)
	h := []rune(haystack)
	if len(n) == 0 {
		return 0
	}
	if len(h) == 0 {
		return 0
	}

	// prev[j] holds the cost of aligning the first i runes of needle ending
	// anywhere at or before haystack position j. Row zero is all zeros: the
	// match may start at any haystack offset for free.
	prev := make([]int, len(h)+1)
	curr := make([]int, len(h)+1)

	for i := 1; i <= len(n); i++ {
		curr[0] = i
		for j := 1; j <= len(h); j++ {
			subCost := 2
			if n[i-1] == h[j-1] {
				subCost = 0
			}
			curr[j] = min3(
				prev[j]+1,         // skip a needle rune
				curr[j-1]+1,       // absorb a haystack rune
				prev[j-1]+subCost, // match or substitute
			)
		}
		prev, curr = curr, prev
	}

	// The match may end at any haystack offset; take the cheapest.
	best := prev[0]
	for _, cost := range prev[1:] {
		if cost < best {
			best = cost
		}
	}

	maxCost := 2 * len(n)
	if best >= maxCost {
		return 0
	}
	return int(math.Round(100 * (1 - float64(best)/float64(maxCost))))
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
