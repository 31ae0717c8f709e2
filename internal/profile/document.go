// Package profile turns a table into a metadata document: structure,
// per-column statistics, string patterns, correlations and quality metrics.
// The document is the fingerprint input for the cache and the only thing
// that ever leaves the process - it carries aggregates, never row values.
package profile

import (
	"time"
)

// SchemaVersion identifies the document and embedding feature layout.
// Fingerprints and embeddings are only comparable within one version.
const SchemaVersion = "1.0"

// Document is the complete metadata extracted from one table.
type Document struct {
	Structure    Structure              `json:"structure"`
	Statistics   map[string]*Stats      `json:"statistics"`
	Patterns     map[string]*Pattern    `json:"patterns"`
	Correlations Correlations           `json:"correlations"`
	Quality      Quality                `json:"data_quality"`
	Constraints  map[string]any         `json:"generation_constraints,omitempty"`

	// ConstraintText is a line-per-column rendering of Constraints for
	// collaborator prompts. Derived, so excluded from the persisted shape
	// and the fingerprints.
	ConstraintText string `json:"-"`

	SchemaVersion string `json:"schema_version"`
	ExtractedAt   string `json:"extracted_at,omitempty"`
}

// Structure describes the table shape and per-column declarations.
type Structure struct {
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Fields  []FieldInfo  `json:"fields"`
}

// FieldInfo is the structural record for one column.
type FieldInfo struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"` // table.Kind
	Kind         string `json:"kind"`          // numeric | datetime | string
	Nullable     bool   `json:"nullable"`
	UniqueCount  int    `json:"unique_count"`
	NullCount    int    `json:"null_count"`
}

// Stats holds per-column statistics. Exactly one of the variant pointers is
// set unless the column is entirely null.
type Stats struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"` // numeric | datetime | string
	NonNullCount   int     `json:"non_null_count"`
	NullPercentage float64 `json:"null_percentage"`
	AllNull        bool    `json:"all_null,omitempty"`

	Numeric  *NumericStats  `json:"numeric,omitempty"`
	Datetime *DatetimeStats `json:"datetime,omitempty"`
	String   *StringStats   `json:"string,omitempty"`
}

// NumericStats covers int, float and bool columns (bools profile as 0/1).
type NumericStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`

	IsInteger   bool `json:"is_integer"`
	HasNegative bool `json:"has_negative"`
	HasZero     bool `json:"has_zero"`

	// "decimal" when 0 <= values <= 1, "whole" when 0 <= values <= 100.
	MightBePercentage string `json:"might_be_percentage,omitempty"`
}

// DatetimeStats describes a datetime column.
type DatetimeStats struct {
	Min              string `json:"min"` // RFC 3339
	Max              string `json:"max"`
	RangeDays        int    `json:"range_days"`
	MostCommonHour   int    `json:"most_common_hour"`
	MostCommonDay    int    `json:"most_common_dayofweek"` // 0 = Monday
	HasTimeComponent bool   `json:"has_time_component"`
}

// ValueCount is one entry of a top-K value table, most frequent first.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// StringStats describes a string column.
type StringStats struct {
	UniqueValues     int          `json:"unique_values"`
	UniqueRatio      float64      `json:"unique_ratio"`
	MostCommonValues []ValueCount `json:"most_common_values"`
	AvgLength        float64      `json:"avg_length"`
	MinLength        int          `json:"min_length"`
	MaxLength        int          `json:"max_length"`
	IsCategorical    bool         `json:"is_categorical"`
	HasNumbers       bool         `json:"has_numbers"`
	HasSpecialChars  bool         `json:"has_special_chars"`
	IsEmailLike      bool         `json:"is_email_like"`
	IsURLLike        bool         `json:"is_url_like"`
	IsPhoneLike      bool         `json:"is_phone_like"`
	MightBeBoolean   bool         `json:"might_be_boolean,omitempty"`
}

// Pattern is the best-matching named format for a string column.
type Pattern struct {
	DetectedFormat   string  `json:"detected_format,omitempty"`
	FormatConfidence float64 `json:"format_confidence,omitempty"`
	CommonPrefix     string  `json:"common_prefix,omitempty"`
	CommonSuffix     string  `json:"common_suffix,omitempty"`
}

// Correlations holds the strong pairwise relationships found in the table.
type Correlations struct {
	Numeric     []NumericCorrelation     `json:"numeric_correlations"`
	Categorical []CategoricalAssociation `json:"categorical_associations"`
}

// NumericCorrelation is a Pearson correlation with |r| > 0.5.
type NumericCorrelation struct {
	Column1     string  `json:"column1"`
	Column2     string  `json:"column2"`
	Correlation float64 `json:"correlation"`
}

// CategoricalAssociation is a joint-cardinality collapse score > 0.3.
type CategoricalAssociation struct {
	Column1  string  `json:"column1"`
	Column2  string  `json:"column2"`
	Strength float64 `json:"association_strength"`
}

// Quality holds dataset-level quality metrics.
type Quality struct {
	Completeness        float64  `json:"completeness"`
	DuplicateRows       int      `json:"duplicate_rows"`
	DuplicatePercentage float64  `json:"duplicate_percentage"`
	ColumnsWithNulls    []string `json:"columns_with_nulls"`
	ColumnsAllNull      []string `json:"columns_all_null"`
	ColumnsSingleValue  []string `json:"columns_single_value"`
}

// StatsFor returns the statistics for the named column, or nil.
func (d *Document) StatsFor(name string) *Stats {
	return d.Statistics[name]
}

// FieldNames returns every structural column name in document order.
func (d *Document) FieldNames() []string {
	names := make([]string, len(d.Structure.Fields))
	for i, f := range d.Structure.Fields {
		names[i] = f.Name
	}
	return names
}

// Stamp sets the extraction timestamp. The cache calls this right before
// persisting an entry; the timestamp is excluded from hashing.
func (d *Document) Stamp(now time.Time) {
	d.ExtractedAt = now.UTC().Format(time.RFC3339)
}
