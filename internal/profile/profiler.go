// Package profile - profiler entry point and structural/quality extraction.
package profile

import (
	"math/rand"

	"go.uber.org/zap"

	"synthtab/internal/table"
)

// sampleSeed makes pattern sampling reproducible across runs on identical
// input. Do not change without bumping SchemaVersion.
const sampleSeed = 42

// DefaultSampleSize caps the rows examined by pattern detection.
const DefaultSampleSize = 1000

// Profiler extracts a Document from a table. It is a pure function of its
// input; the only state is configuration.
type Profiler struct {
	sampleSize int
	logger     *zap.Logger
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithSampleSize overrides the pattern-detection sample cap.
func WithSampleSize(n int) Option {
	return func(p *Profiler) {
		if n > 0 {
			p.sampleSize = n
		}
	}
}

// WithLogger attaches a logger. The default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Profiler) { p.logger = l }
}

// NewProfiler creates a profiler with the given options.
func NewProfiler(opts ...Option) *Profiler {
	p := &Profiler{
		sampleSize: DefaultSampleSize,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profile extracts the complete metadata document. Per-statistic degeneracy
// (all-null columns, zero variance, tiny samples) is absorbed with neutral
// defaults - profiling itself never fails.
func (p *Profiler) Profile(t *table.Table) *Document {
	p.logger.Debug("profiling table",
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumCols()))

	rng := rand.New(rand.NewSource(sampleSeed))

	doc := &Document{
		Structure:     p.extractStructure(t),
		Statistics:    p.extractStatistics(t),
		Patterns:      p.extractPatterns(t, rng),
		Correlations:  p.extractCorrelations(t),
		Quality:       p.extractQuality(t),
		SchemaVersion: SchemaVersion,
	}

	p.logger.Debug("profiling complete",
		zap.Int("patterns", len(doc.Patterns)),
		zap.Int("numeric_correlations", len(doc.Correlations.Numeric)))
	return doc
}

// extractStructure records the table shape and per-column declarations.
func (p *Profiler) extractStructure(t *table.Table) Structure {
	s := Structure{
		Rows:    t.NumRows(),
		Columns: t.NumCols(),
		Fields:  make([]FieldInfo, 0, t.NumCols()),
	}
	for i := range t.Columns {
		c := &t.Columns[i]
		nulls := c.NullCount()
		s.Fields = append(s.Fields, FieldInfo{
			Name:         c.Name,
			DeclaredType: string(c.Kind),
			Kind:         statKind(c.Kind),
			Nullable:     nulls > 0,
			UniqueCount:  c.UniqueCount(),
			NullCount:    nulls,
		})
	}
	return s
}

// extractStatistics dispatches per-column statistic extraction by kind.
func (p *Profiler) extractStatistics(t *table.Table) map[string]*Stats {
	stats := make(map[string]*Stats, t.NumCols())
	for i := range t.Columns {
		c := &t.Columns[i]
		st := &Stats{
			Name:         c.Name,
			NonNullCount: len(c.Values) - c.NullCount(),
		}
		if n := len(c.Values); n > 0 {
			st.NullPercentage = float64(c.NullCount()) / float64(n) * 100
		}
		switch {
		case c.Kind.IsNumeric() || c.Kind == table.KindBool:
			st.Type = "numeric"
			st.Numeric = numericStats(c)
		case c.Kind == table.KindDatetime:
			st.Type = "datetime"
			st.Datetime = datetimeStats(c)
		default:
			st.Type = "string"
			st.String = stringStats(c)
		}
		if st.Numeric == nil && st.Datetime == nil && st.String == nil {
			st.AllNull = true
		}
		stats[c.Name] = st
	}
	return stats
}

// extractQuality computes dataset-level quality metrics.
func (p *Profiler) extractQuality(t *table.Table) Quality {
	q := Quality{
		ColumnsWithNulls:   []string{},
		ColumnsAllNull:     []string{},
		ColumnsSingleValue: []string{},
	}

	rows := t.NumRows()
	if t.NumCols() == 0 {
		q.Completeness = 1
		return q
	}

	var nullRateSum float64
	for i := range t.Columns {
		c := &t.Columns[i]
		nulls := c.NullCount()
		if rows > 0 {
			nullRateSum += float64(nulls) / float64(rows)
		}
		if nulls > 0 {
			q.ColumnsWithNulls = append(q.ColumnsWithNulls, c.Name)
		}
		if rows > 0 && nulls == rows {
			q.ColumnsAllNull = append(q.ColumnsAllNull, c.Name)
		}
		if c.UniqueCount() == 1 {
			q.ColumnsSingleValue = append(q.ColumnsSingleValue, c.Name)
		}
	}
	q.Completeness = 1 - nullRateSum/float64(t.NumCols())

	q.DuplicateRows = t.DuplicateRowCount()
	if rows > 0 {
		q.DuplicatePercentage = float64(q.DuplicateRows) / float64(rows) * 100
	}
	return q
}

// statKind maps a declared column kind onto the profiling kind. Bool columns
// profile as numeric (0/1), matching how they embed.
func statKind(k table.Kind) string {
	switch {
	case k.IsNumeric() || k == table.KindBool:
		return "numeric"
	case k == table.KindDatetime:
		return "datetime"
	default:
		return "string"
	}
}
