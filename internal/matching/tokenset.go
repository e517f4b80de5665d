package matching

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// TokenSetRatio scores two token sets on a 0-100 scale.
//
// Tokens shared by both sides are pulled out into a sorted intersection string;
// the result is the best normalized Indel similarity among the pairings
// (sect+diffA, sect+diffB), (sect, sect+diffA) and (sect, sect+diffB). A
// non-empty intersection that covers either side entirely scores 100.
func TokenSetRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sect, diffAB, diffBA []string
	for token := range a {
		if _, ok := b[token]; ok {
			sect = append(sect, token)
		} else {
			diffAB = append(diffAB, token)
		}
	}
	for token := range b {
		if _, ok := a[token]; !ok {
			diffBA = append(diffBA, token)
		}
	}
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}
	slices.Sort(sect)
	slices.Sort(diffAB)
	slices.Sort(diffBA)

	sectJoined := strings.Join(sect, " ")
	abJoined := strings.Join(diffAB, " ")
	baJoined := strings.Join(diffBA, " ")

	sectLen := utf8.RuneCountInString(sectJoined)
	abLen := utf8.RuneCountInString(abJoined)
	baLen := utf8.RuneCountInString(baJoined)

	sep := 0
	if sectLen > 0 {
		sep = 1
	}
	sectABLen := sectLen + sep + abLen
	sectBALen := sectLen + sep + baLen

	// sect is a common prefix of both combined strings, so only the tails
	// contribute edits.
	best := normalizedSimilarity(indelDistance(abJoined, baJoined), sectABLen+sectBALen)
	if sectLen == 0 {
		return best
	}
	best = max(best, normalizedSimilarity(1+abLen, sectLen+sectABLen))
	best = max(best, normalizedSimilarity(1+baLen, sectLen+sectBALen))
	return best
}

// Ratio returns the normalized Indel similarity of two strings.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	return normalizedSimilarity(indelDistance(a, b), total)
}

func normalizedSimilarity(distance, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 - 100*float64(distance)/float64(total)
}

// indelDistance counts the insertions and deletions turning a into b, which is
// len(a)+len(b) minus twice their longest common subsequence.
func indelDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	return len(ra) + len(rb) - 2*lcsLength(ra, rb)
}

func lcsLength(a, b []rune) int {
	if len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
