// Package loader reads source tables from CSV and JSON files and infers
// column kinds. Inference is column-wise over the non-null cells: int when
// every cell parses as an integer, then float, then bool, then datetime;
// string is the fallback. Columns whose cells are all null are dropped.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"synthtab/internal/table"
)

// nullTokens are cell spellings treated as null, case-insensitive.
var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"none": true,
}

// Loader reads and types source files.
type Loader struct {
	logger *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	ld := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load reads a file, dispatching on extension (.csv, .tsv, .json).
func (ld *Loader) Load(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ld.LoadCSV(f, ',')
	case ".tsv":
		return ld.LoadCSV(f, '\t')
	case ".json":
		return ld.LoadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// LoadCSV reads delimiter-separated text with a header row.
func (ld *Loader) LoadCSV(r io.Reader, comma rune) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	raw := make([][]string, len(header))
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		for i := range header {
			cell := ""
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			raw[i] = append(raw[i], cell)
		}
	}

	return ld.assemble(header, raw)
}

// LoadJSON reads either an array of row objects or a column-oriented object
// of name to value array.
func (ld *Loader) LoadJSON(r io.Reader) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err == nil {
		return ld.fromRowObjects(rows)
	}

	var cols map[string][]any
	if err := json.Unmarshal(data, &cols); err == nil {
		return ld.fromColumnArrays(cols)
	}

	return nil, fmt.Errorf("source is neither a row array nor a column object")
}

func (ld *Loader) fromRowObjects(rows []map[string]any) (*table.Table, error) {
	// Collect every column name appearing in any row.
	var names []string
	seen := map[string]bool{}
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	// Map iteration order is random; keep the layout stable.
	sort.Strings(names)

	raw := make([][]string, len(names))
	for i, name := range names {
		raw[i] = make([]string, len(rows))
		for j, row := range rows {
			raw[i][j] = stringifyCell(row[name])
		}
	}
	return ld.assemble(names, raw)
}

func (ld *Loader) fromColumnArrays(cols map[string][]any) (*table.Table, error) {
	var names []string
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := make([][]string, len(names))
	for i, name := range names {
		raw[i] = make([]string, len(cols[name]))
		for j, v := range cols[name] {
			raw[i][j] = stringifyCell(v)
		}
	}
	return ld.assemble(names, raw)
}

// stringifyCell renders a JSON value into the textual form inference expects.
func stringifyCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

// assemble infers each column's kind and builds the table.
func (ld *Loader) assemble(names []string, raw [][]string) (*table.Table, error) {
	var cols []table.Column
	for i, name := range names {
		col, allNull := inferColumn(name, raw[i])
		if allNull {
			ld.logger.Debug("dropping empty column", zap.String("column", name))
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no usable columns in source")
	}

	t := &table.Table{Columns: cols}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ld.logger.Info("source loaded",
		zap.Int("rows", t.NumRows()),
		zap.Int("columns", t.NumCols()))
	return t, nil
}
