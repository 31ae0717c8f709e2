// Package profile - pairwise relationship extraction.
package profile

import (
	"math"

	"synthtab/internal/table"
)

const (
	correlationThreshold = 0.5 // |r| a numeric pair must exceed
	associationThreshold = 0.3 // joint-cardinality collapse a string pair must exceed
	minCorrelationRows   = 3
	maxCategoricalCols   = 10 // quadratic blow-up guard
)

// extractCorrelations finds strong numeric correlations and categorical
// associations. Degenerate pairs (zero variance, missing overlap) are
// silently skipped.
func (p *Profiler) extractCorrelations(t *table.Table) Correlations {
	return Correlations{
		Numeric:     numericCorrelations(t),
		Categorical: categoricalAssociations(t),
	}
}

// numericCorrelations reports each i<j pair once, so both directions are
// deduplicated by construction.
func numericCorrelations(t *table.Table) []NumericCorrelation {
	out := []NumericCorrelation{}
	if t.NumRows() < minCorrelationRows {
		return out
	}

	var numeric []*table.Column
	for i := range t.Columns {
		if t.Columns[i].Kind.IsNumeric() {
			numeric = append(numeric, &t.Columns[i])
		}
	}

	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			r, ok := pearson(numeric[i], numeric[j])
			if ok && math.Abs(r) > correlationThreshold {
				out = append(out, NumericCorrelation{
					Column1:     numeric[i].Name,
					Column2:     numeric[j].Name,
					Correlation: r,
				})
			}
		}
	}
	return out
}

// pearson computes the correlation over rows where both cells are non-null.
// Returns ok=false on fewer than minCorrelationRows shared rows or zero
// variance in either column.
func pearson(a, b *table.Column) (float64, bool) {
	var xs, ys []float64
	for i := range a.Values {
		av, bv := a.Values[i], b.Values[i]
		if av.Null || bv.Null {
			continue
		}
		xs = append(xs, av.Float64(a.Kind))
		ys = append(ys, bv.Float64(b.Kind))
	}
	n := float64(len(xs))
	if len(xs) < minCorrelationRows {
		return 0, false
	}

	meanX := sum(xs) / n
	meanY := sum(ys) / n
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

// categoricalAssociations scores string column pairs by joint-cardinality
// collapse: 1 - distinct_pairs/(distinct1*distinct2). Only the first
// maxCategoricalCols string columns participate.
func categoricalAssociations(t *table.Table) []CategoricalAssociation {
	out := []CategoricalAssociation{}

	var stringCols []*table.Column
	for i := range t.Columns {
		if t.Columns[i].Kind == table.KindString {
			stringCols = append(stringCols, &t.Columns[i])
			if len(stringCols) == maxCategoricalCols {
				break
			}
		}
	}

	for i := 0; i < len(stringCols); i++ {
		for j := i + 1; j < len(stringCols); j++ {
			s, ok := association(stringCols[i], stringCols[j])
			if ok && s > associationThreshold {
				out = append(out, CategoricalAssociation{
					Column1:  stringCols[i].Name,
					Column2:  stringCols[j].Name,
					Strength: s,
				})
			}
		}
	}
	return out
}

func association(a, b *table.Column) (float64, bool) {
	ua := a.UniqueCount()
	ub := b.UniqueCount()
	if ua == 0 || ub == 0 {
		return 0, false
	}

	pairs := make(map[[2]string]struct{})
	for i := range a.Values {
		av, bv := a.Values[i], b.Values[i]
		if av.Null || bv.Null {
			continue
		}
		pairs[[2]string{av.Str, bv.Str}] = struct{}{}
	}
	if len(pairs) == 0 {
		return 0, false
	}
	return 1 - float64(len(pairs))/float64(ua*ub), true
}
