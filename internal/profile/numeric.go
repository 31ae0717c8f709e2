// Package profile - numeric column statistics.
package profile

import (
	"math"
	"sort"

	"synthtab/internal/table"
)

// numericStats computes the numeric statistic block, or nil when the column
// holds no non-null values.
func numericStats(c *table.Column) *NumericStats {
	vals := numericValues(c)
	if len(vals) == 0 {
		return nil
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	n := float64(len(vals))
	mean := sum(vals) / n
	std := populationStd(vals, mean)

	ns := &NumericStats{
		Mean:      mean,
		Median:    quantile(sorted, 0.5),
		Std:       std,
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		Q25:       quantile(sorted, 0.25),
		Q75:       quantile(sorted, 0.75),
		Skewness:  skewness(vals, mean, std),
		Kurtosis:  kurtosis(vals, mean, std),
		IsInteger: allIntegral(vals),
	}
	for _, v := range vals {
		if v < 0 {
			ns.HasNegative = true
		}
		if v == 0 {
			ns.HasZero = true
		}
	}

	// Percentage heuristic: non-negative and bounded by 1 (decimal scale)
	// or 100 (whole scale).
	if ns.Min >= 0 {
		switch {
		case ns.Max <= 1:
			ns.MightBePercentage = "decimal"
		case ns.Max <= 100:
			ns.MightBePercentage = "whole"
		}
	}
	return ns
}

// numericValues collects the non-null cells as float64s. Bool columns map to
// 0/1 so they share the numeric pipeline.
func numericValues(c *table.Column) []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		switch c.Kind {
		case table.KindBool:
			if v.Bool {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		default:
			out = append(out, v.Float64(c.Kind))
		}
	}
	return out
}

func sum(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// populationStd is 0 for a single sample.
func populationStd(vals []float64, mean float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// skewness is the population third standardized moment; 0 when the sample is
// too small for the third moment or the variance degenerates.
func skewness(vals []float64, mean, std float64) float64 {
	if len(vals) <= 2 || std == 0 {
		return 0
	}
	var m3 float64
	for _, v := range vals {
		d := v - mean
		m3 += d * d * d
	}
	m3 /= float64(len(vals))
	return m3 / (std * std * std)
}

// kurtosis is the population excess kurtosis; 0 when the sample is too small
// for the fourth moment or the variance degenerates.
func kurtosis(vals []float64, mean, std float64) float64 {
	if len(vals) <= 3 || std == 0 {
		return 0
	}
	var m4 float64
	for _, v := range vals {
		d := v - mean
		m4 += d * d * d * d
	}
	m4 /= float64(len(vals))
	return m4/(std*std*std*std) - 3
}

// quantile interpolates linearly over a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// allIntegral reports whether every value equals its truncation.
func allIntegral(vals []float64) bool {
	for _, v := range vals {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}
