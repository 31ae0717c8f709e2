// Package table defines the in-memory tabular structure shared by the
// profiler, the sandbox and the generation pipeline. A Table is a fixed,
// ordered set of typed columns; cells carry an explicit null flag so that
// missing values survive round-trips through the wire codec.
package table

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the declared type of a column.
type Kind string

const (
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindString   Kind = "string"
	KindDatetime Kind = "datetime"
)

// IsNumeric reports whether the kind carries numeric cells.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single cell. The zero Value is null.
type Value struct {
	Null bool

	// Exactly one of the following is meaningful when Null is false,
	// selected by the owning column's Kind.
	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Time   time.Time
}

// NullValue returns an explicit null cell.
func NullValue() Value { return Value{Null: true} }

// IntValue wraps an integer cell.
func IntValue(v int64) Value { return Value{Int: v} }

// FloatValue wraps a float cell.
func FloatValue(v float64) Value { return Value{Float: v} }

// BoolValue wraps a boolean cell.
func BoolValue(v bool) Value { return Value{Bool: v} }

// StringValue wraps a string cell.
func StringValue(v string) Value { return Value{Str: v} }

// TimeValue wraps a datetime cell.
func TimeValue(v time.Time) Value { return Value{Time: v} }

// Float64 returns the cell as a float64 for numeric columns.
func (v Value) Float64(kind Kind) float64 {
	if kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Column is one named, typed column with its cells in row order.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.Null {
			n++
		}
	}
	return n
}

// NonNull returns the non-null cells in row order.
func (c *Column) NonNull() []Value {
	out := make([]Value, 0, len(c.Values))
	for _, v := range c.Values {
		if !v.Null {
			out = append(out, v)
		}
	}
	return out
}

// UniqueCount returns the number of distinct non-null cell values.
func (c *Column) UniqueCount() int {
	seen := make(map[string]struct{})
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		seen[cellKey(c.Kind, v)] = struct{}{}
	}
	return len(seen)
}

// Table is an ordered collection of equally sized columns.
type Table struct {
	Columns []Column
}

// New creates a table with the given columns. All columns must have the
// same number of cells; Validate checks that.
func New(cols ...Column) *Table {
	return &Table{Columns: cols}
}

// NumRows returns the row count (0 for a table with no columns).
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks that every column has the same row count.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return nil
	}
	n := len(t.Columns[0].Values)
	for _, c := range t.Columns {
		if len(c.Values) != n {
			return fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), n)
		}
	}
	return nil
}

// RowKey returns a canonical string identifying row i by full-row equality.
// Used for duplicate-row detection.
func (t *Table) RowKey(i int) string {
	var sb strings.Builder
	for _, c := range t.Columns {
		v := c.Values[i]
		if v.Null {
			sb.WriteString("\x00~null")
		} else {
			sb.WriteString("\x00")
			sb.WriteString(cellKey(c.Kind, v))
		}
	}
	return sb.String()
}

// DuplicateRowCount returns the number of rows that repeat an earlier row.
func (t *Table) DuplicateRowCount() int {
	seen := make(map[string]struct{}, t.NumRows())
	dups := 0
	for i := 0; i < t.NumRows(); i++ {
		k := t.RowKey(i)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

// cellKey renders a cell to a canonical comparison key.
func cellKey(kind Kind, v Value) string {
	switch kind {
	case KindInt:
		return fmt.Sprintf("i:%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("f:%g", v.Float)
	case KindBool:
		return fmt.Sprintf("b:%t", v.Bool)
	case KindDatetime:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return "s:" + v.Str
	}
}
