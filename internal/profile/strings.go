// Package profile - string column statistics.
package profile

import (
	"regexp"
	"sort"
	"strings"

	"synthtab/internal/table"
)

// Content-shape probes, evaluated with "any match" semantics over non-null
// values. One fixed expression per flag.
var (
	reHasDigit    = regexp.MustCompile(`\d`)
	reHasSpecial  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	reEmailLike   = regexp.MustCompile(`@.*\.`)
	reURLLike     = regexp.MustCompile(`^https?://`)
	rePhoneLike   = regexp.MustCompile(`^\+?\d{10,}$|^\d{3}-\d{3}-\d{4}$`)
)

// booleanTokens is the vocabulary for the boolean-disguised-as-string probe.
var booleanTokens = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"1": true, "0": true,
	"t": true, "f": true,
	"y": true, "n": true,
}

const topKValues = 10

// stringStats computes the string statistic block, or nil when the column
// holds no non-null values.
func stringStats(c *table.Column) *StringStats {
	vals := make([]string, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			vals = append(vals, v.Str)
		}
	}
	if len(vals) == 0 {
		return nil
	}

	counts, order := valueCounts(vals)
	uniqueRatio := float64(len(counts)) / float64(len(vals))

	ss := &StringStats{
		UniqueValues:     len(counts),
		UniqueRatio:      uniqueRatio,
		MostCommonValues: topValues(counts, order, topKValues),
		IsCategorical:    uniqueRatio < 0.5 && len(counts) < 100,
		MinLength:        len(vals[0]),
	}

	var lengthSum int
	for _, s := range vals {
		n := len(s)
		lengthSum += n
		if n < ss.MinLength {
			ss.MinLength = n
		}
		if n > ss.MaxLength {
			ss.MaxLength = n
		}
		if !ss.HasNumbers && reHasDigit.MatchString(s) {
			ss.HasNumbers = true
		}
		if !ss.HasSpecialChars && reHasSpecial.MatchString(s) {
			ss.HasSpecialChars = true
		}
		if !ss.IsEmailLike && reEmailLike.MatchString(s) {
			ss.IsEmailLike = true
		}
		if !ss.IsURLLike && reURLLike.MatchString(s) {
			ss.IsURLLike = true
		}
		if !ss.IsPhoneLike && rePhoneLike.MatchString(s) {
			ss.IsPhoneLike = true
		}
	}
	ss.AvgLength = float64(lengthSum) / float64(len(vals))
	ss.MightBeBoolean = looksBoolean(order)

	return ss
}

// valueCounts tallies values and remembers first-seen order for stable
// tie-breaking.
func valueCounts(vals []string) (map[string]int, []string) {
	counts := make(map[string]int, len(vals))
	order := make([]string, 0, len(vals))
	for _, s := range vals {
		if _, seen := counts[s]; !seen {
			order = append(order, s)
		}
		counts[s]++
	}
	return counts, order
}

// topValues returns the k most frequent values, ties by first appearance.
func topValues(counts map[string]int, order []string, k int) []ValueCount {
	ranked := make([]ValueCount, 0, len(order))
	for _, s := range order {
		ranked = append(ranked, ValueCount{Value: s, Count: counts[s]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// looksBoolean reports whether the distinct lowercase values form a subset
// of the boolean token vocabulary.
func looksBoolean(distinct []string) bool {
	if len(distinct) == 0 || len(distinct) > len(booleanTokens) {
		return false
	}
	for _, s := range distinct {
		if !booleanTokens[strings.ToLower(s)] {
			return false
		}
	}
	return true
}
