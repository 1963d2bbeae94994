// Package fuzzy scores approximate string similarity on a 0-100 scale.
//
// Scores follow the familiar "fuzzywuzzy" family: Ratio is the indel
// similarity of two strings, the partial variants align the shorter string
// against the best window of the longer one, the token variants ignore word
// order and duplication, and WRatio picks the best of them with weights.
package fuzzy

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Process lowercases s, replaces everything but letters and digits with
// spaces and collapses whitespace.
func Process(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Ratio is 100 * 2*LCS(a, b) / (len(a)+len(b)), counted in runes. It is 0
// when either string is empty.
func Ratio(a, b string) int {
	return round(ratio(a, b))
}

func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	return 100 * 2 * float64(edlib.LCS(a, b)) / float64(la+lb)
}

// PartialRatio is the best Ratio of the shorter string against every
// substring of the longer one with the same length.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	s := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		if r := ratio(s, string(long[i:i+len(short)])); r > best {
			best = r
		}
		if best >= 99.5 {
			return 100
		}
	}
	return round(best)
}

// TokenSortRatio compares the processed strings with their words sorted.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(Process(a)), sortedTokens(Process(b)))
}

func PartialTokenSortRatio(a, b string) int {
	return PartialRatio(sortedTokens(Process(a)), sortedTokens(Process(b)))
}

// TokenSetRatio compares the shared words of a and b against each side's
// full word set, so extra words on one side cost little.
func TokenSetRatio(a, b string) int {
	return tokenSet(Process(a), Process(b), Ratio)
}

func PartialTokenSetRatio(a, b string) int {
	return tokenSet(Process(a), Process(b), PartialRatio)
}

// WRatio is the weighted best of the other scores on processed input. It is
// the default similarity measure of this module.
func WRatio(a, b string) int {
	p1, p2 := Process(a), Process(b)
	l1, l2 := utf8.RuneCountInString(p1), utf8.RuneCountInString(p2)
	if l1 == 0 || l2 == 0 {
		return 0
	}

	const unbaseScale = 0.95
	partialScale := 0.9

	lenRatio := float64(max(l1, l2)) / float64(min(l1, l2))
	if lenRatio > 8 {
		partialScale = 0.6
	}

	best := float64(Ratio(p1, p2))
	if lenRatio < 1.5 {
		best = max(best,
			float64(Ratio(sortedTokens(p1), sortedTokens(p2)))*unbaseScale,
			float64(tokenSet(p1, p2, Ratio))*unbaseScale,
		)
		return round(best)
	}

	best = max(best,
		float64(PartialRatio(p1, p2))*partialScale,
		float64(PartialRatio(sortedTokens(p1), sortedTokens(p2)))*unbaseScale*partialScale,
		float64(tokenSet(p1, p2, PartialRatio))*unbaseScale*partialScale,
	)
	return round(best)
}

// Match is one scored choice.
type Match struct {
	Choice string
	Score  int
}

// Extract scores query against every choice with WRatio and returns the best
// limit matches ordered by score descending, then shorter choice, then
// lexical order. limit <= 0 returns every match.
func Extract(query string, choices []string, limit int) []Match {
	matches := make([]Match, 0, len(choices))
	for _, c := range choices {
		matches = append(matches, Match{Choice: c, Score: WRatio(query, c)})
	}
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(utf8.RuneCountInString(a.Choice), utf8.RuneCountInString(b.Choice)); c != 0 {
			return c
		}
		return strings.Compare(a.Choice, b.Choice)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(p1, p2 string, score func(a, b string) int) int {
	set1, set2 := tokenSetOf(p1), tokenSetOf(p2)

	var sect, only1, only2 []string
	for t := range set1 {
		if set2[t] {
			sect = append(sect, t)
		} else {
			only1 = append(only1, t)
		}
	}
	for t := range set2 {
		if !set1[t] {
			only2 = append(only2, t)
		}
	}
	slices.Sort(sect)
	slices.Sort(only1)
	slices.Sort(only2)

	sorted := strings.Join(sect, " ")
	combined1 := strings.TrimSpace(sorted + " " + strings.Join(only1, " "))
	combined2 := strings.TrimSpace(sorted + " " + strings.Join(only2, " "))

	return max(
		score(sorted, combined1),
		score(sorted, combined2),
		score(combined1, combined2),
	)
}

func tokenSetOf(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		set[t] = true
	}
	return set
}

func round(f float64) int {
	return int(math.Round(f))
}
