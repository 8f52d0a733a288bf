package workflow

import (
	"strings"
)

// SimilarityScore returns a 0-100 similarity between two display names.
// Blank input on either side scores 0. Comparison is case-insensitive and
// symmetric; only identical (normalized) strings score 100.
//
// The ratio is Ratcliff/Obershelp over matching blocks: 2*M / (len(a)+len(b)),
// where M is the total size of non-crossing matching blocks. Long shared
// substrings ("Customer Portal" vs "Customer Portal - Prod") score high even
// when one side carries an environment suffix.
func SimilarityScore(a, b string) float64 {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	ra := []rune(na)
	rb := []rune(nb)
	matched := matchingTotal(ra, rb)
	return float64(2*matched) / float64(len(ra)+len(rb)) * 100
}

// matchingTotal sums the sizes of all matching blocks: the longest common
// block, then recursively the pieces to its left and right. Blocks never
// cross, so the result is order-preserving.
func matchingTotal(a, b []rune) int {
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a[:i], b[:j]) +
		matchingTotal(a[i+size:], b[j+size:])
}

// longestMatch finds the longest block a[i:i+size] == b[j:j+size], preferring
// the earliest i (then earliest j) on ties so scoring is deterministic.
func longestMatch(a, b []rune) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int, len(b))
	for j, c := range b {
		b2j[c] = append(b2j[c], j)
	}

	// j2len[j] = length of the match ending at a[i], b[j].
	j2len := make(map[int]int)
	for i, c := range a {
		newj2len := make(map[int]int)
		for _, j := range b2j[c] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
