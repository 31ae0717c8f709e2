// Package profile - named-format pattern detection for string columns.
package profile

import (
	"math/rand"
	"regexp"

	"synthtab/internal/table"
)

// namedFormat pairs a format label with its exact-match expression.
type namedFormat struct {
	name string
	re   *regexp.Regexp
}

// namedFormats is checked in order; the first format whose exact-match rate
// exceeds formatThreshold wins. Order matters: specific before generic.
var namedFormats = []namedFormat{
	{"email", regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)},
	{"phone_us", regexp.MustCompile(`^\+?1?\d{10}$|^\d{3}-\d{3}-\d{4}$`)},
	{"ssn", regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)},
	{"zip_code", regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
	{"ipv4", regexp.MustCompile(`^(?:[0-9]{1,3}\.){3}[0-9]{1,3}$`)},
	{"uuid", regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)},
	{"date_iso", regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)},
	{"time_24h", regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)},
	{"alphanumeric_id", regexp.MustCompile(`^[A-Z0-9]{6,}$`)},
	{"numeric_id", regexp.MustCompile(`^\d+$`)},
}

const (
	formatThreshold   = 0.8  // exact-match rate a format must exceed
	affixThreshold    = 0.3  // coverage a common prefix/suffix must exceed
	patternSampleCap  = 100  // values inspected per column
	affixMinimumRows  = 10   // below this, prefix/suffix detection is skipped
	affixLength       = 3
)

// extractPatterns detects named formats and common affixes for every string
// column, over a deterministic row sample.
func (p *Profiler) extractPatterns(t *table.Table, rng *rand.Rand) map[string]*Pattern {
	patterns := make(map[string]*Pattern)

	rowIdx := sampleIndexes(t.NumRows(), p.sampleSize, rng)
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Kind != table.KindString {
			continue
		}
		vals := make([]string, 0, len(rowIdx))
		for _, r := range rowIdx {
			if v := c.Values[r]; !v.Null {
				vals = append(vals, v.Str)
			}
		}
		if len(vals) == 0 {
			patterns[c.Name] = &Pattern{}
			continue
		}
		if len(vals) > patternSampleCap {
			vals = sampleStrings(vals, patternSampleCap, rng)
		}
		patterns[c.Name] = detectPattern(vals)
	}
	return patterns
}

// detectPattern matches the ordered format table and looks for affixes.
func detectPattern(vals []string) *Pattern {
	pat := &Pattern{}

	for _, f := range namedFormats {
		matches := 0
		for _, s := range vals {
			if f.re.MatchString(s) {
				matches++
			}
		}
		if float64(matches) > float64(len(vals))*formatThreshold {
			pat.DetectedFormat = f.name
			pat.FormatConfidence = float64(matches) / float64(len(vals))
			break
		}
	}

	if len(vals) > affixMinimumRows {
		pat.CommonPrefix = commonAffix(vals, true)
		pat.CommonSuffix = commonAffix(vals, false)
	}
	return pat
}

// commonAffix returns the dominant fixed-length prefix (or suffix) when it
// covers more than affixThreshold of the values, ties by first appearance.
func commonAffix(vals []string, prefix bool) string {
	counts := make(map[string]int)
	order := make([]string, 0, len(vals))
	total := 0
	for _, s := range vals {
		if len(s) < affixLength {
			continue
		}
		var a string
		if prefix {
			a = s[:affixLength]
		} else {
			a = s[len(s)-affixLength:]
		}
		if _, seen := counts[a]; !seen {
			order = append(order, a)
		}
		counts[a]++
		total++
	}
	if total == 0 {
		return ""
	}
	best, bestCount := "", -1
	for _, a := range order {
		if counts[a] > bestCount {
			best, bestCount = a, counts[a]
		}
	}
	if float64(bestCount) > float64(total)*affixThreshold {
		return best
	}
	return ""
}

// sampleIndexes returns up to max distinct row indexes. Small tables pass
// through in order; larger ones get a seeded shuffle-based sample.
func sampleIndexes(rows, max int, rng *rand.Rand) []int {
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = i
	}
	if rows <= max {
		return idx
	}
	rng.Shuffle(rows, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx[:max]
}

// sampleStrings reduces vals to max entries with a seeded shuffle.
func sampleStrings(vals []string, max int, rng *rand.Rand) []string {
	out := append([]string(nil), vals...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:max]
}
