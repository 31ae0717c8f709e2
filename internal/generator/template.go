// Package generator - template-based fallback routine builder.
//
// When no collaborator client is configured (or a call budget forbids one),
// the generator falls back to synthesizing a routine directly from the
// metadata document. The output honors the same contract as collaborator
// routines: package main, GenerateTable entry point, wire JSON result.
package generator

import (
	"fmt"
	"strings"
	"text/template"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

const routineSkeleton = `package main

import (
	"encoding/json"
	"math/rand"
	"time"
)

type wireColumn struct {
	Name   string ` + "`json:\"name\"`" + `
	Kind   string ` + "`json:\"kind\"`" + `
	Values []any  ` + "`json:\"values\"`" + `
}

type wireTable struct {
	Columns []wireColumn ` + "`json:\"columns\"`" + `
	Rows    int          ` + "`json:\"rows\"`" + `
}

func GenerateTable() (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	_ = rng
	numRows := {{.Rows}}
	cols := make([]wireColumn, 0, {{.ColumnCount}})
{{range .Columns}}
{{.}}{{end}}
	out, err := json.Marshal(wireTable{Columns: cols, Rows: numRows})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
`

var routineTmpl = template.Must(template.New("routine").Parse(routineSkeleton))

type routineData struct {
	Rows        int
	ColumnCount int
	Columns     []string
}

// buildFallbackRoutine synthesizes a generation routine from the metadata
// alone. Statistical fidelity is coarse (uniform ints, normal floats,
// placeholder categories) but structure, kinds and null rates are honored.
func buildFallbackRoutine(doc *profile.Document, numRows int) (string, error) {
	data := routineData{
		Rows:        numRows,
		ColumnCount: doc.Structure.Columns,
	}
	for _, f := range doc.Structure.Fields {
		data.Columns = append(data.Columns, columnSnippet(f, doc))
	}

	var sb strings.Builder
	if err := routineTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render fallback routine: %w", err)
	}
	return sb.String(), nil
}

// columnSnippet emits the block that fills one column's values.
func columnSnippet(f profile.FieldInfo, doc *profile.Document) string {
	stats := doc.Statistics[f.Name]

	var sb strings.Builder
	fmt.Fprintf(&sb, "\t{\n\t\tvalues := make([]any, numRows)\n")

	body, kind := valueLoop(f, stats)
	sb.WriteString(body)

	if f.NullCount > 0 && doc.Structure.Rows > 0 {
		rate := float64(f.NullCount) / float64(doc.Structure.Rows)
		fmt.Fprintf(&sb, "\t\tfor i := range values {\n")
		fmt.Fprintf(&sb, "\t\t\tif rng.Float64() < %g {\n\t\t\t\tvalues[i] = nil\n\t\t\t}\n\t\t}\n", rate)
	}

	fmt.Fprintf(&sb, "\t\tcols = append(cols, wireColumn{Name: %q, Kind: %q, Values: values})\n\t}\n", f.Name, kind)
	return sb.String()
}

// valueLoop returns the fill loop for a column plus the wire kind it emits.
func valueLoop(f profile.FieldInfo, stats *profile.Stats) (string, string) {
	if stats == nil || stats.AllNull {
		return "", f.DeclaredType
	}

	switch stats.Type {
	case "numeric":
		return numericLoop(f, stats.Numeric)
	case "datetime":
		return datetimeLoop(), string(table.KindDatetime)
	case "string":
		return stringLoop(f, stats.String)
	default:
		return "", f.DeclaredType
	}
}

func numericLoop(f profile.FieldInfo, n *profile.NumericStats) (string, string) {
	if n == nil {
		return "", f.DeclaredType
	}
	if f.DeclaredType == string(table.KindBool) {
		// Mean of a bool column is the fraction of trues.
		return fmt.Sprintf("\t\tfor i := range values {\n\t\t\tvalues[i] = rng.Float64() < %g\n\t\t}\n", n.Mean),
			string(table.KindBool)
	}
	if n.IsInteger {
		lo, hi := int64(n.Min), int64(n.Max)
		if hi < lo {
			hi = lo
		}
		return fmt.Sprintf("\t\tfor i := range values {\n\t\t\tvalues[i] = rng.Int63n(%d) + %d\n\t\t}\n", hi-lo+1, lo),
			string(table.KindInt)
	}
	return fmt.Sprintf(`		for i := range values {
			v := rng.NormFloat64()*%g + %g
			if v < %g {
				v = %g
			}
			if v > %g {
				v = %g
			}
			values[i] = v
		}
`, n.Std, n.Mean, n.Min, n.Min, n.Max, n.Max), string(table.KindFloat)
}

func datetimeLoop() string {
	return `		base := time.Now().UTC()
		for i := range values {
			values[i] = base.AddDate(0, 0, -rng.Intn(365)).Format(time.RFC3339)
		}
`
}

// dateNameHints marks string columns that are almost certainly dates.
var dateNameHints = []string{
	"date", "time", "created", "updated", "modified", "dob",
	"timestamp", "expires", "started", "ended", "completed",
}

func stringLoop(f profile.FieldInfo, s *profile.StringStats) (string, string) {
	if s == nil {
		return "", string(table.KindString)
	}

	lower := strings.ToLower(f.Name)
	for _, hint := range dateNameHints {
		if strings.Contains(lower, hint) {
			// Dates stored as strings keep the string kind.
			return `		base := time.Now().UTC()
		for i := range values {
			values[i] = base.AddDate(0, 0, -rng.Intn(365)).Format("2006-01-02")
		}
`, string(table.KindString)
		}
	}

	if s.IsCategorical {
		n := s.UniqueValues
		if n > 20 {
			n = 20
		}
		if n < 1 {
			n = 1
		}
		return fmt.Sprintf(`		for i := range values {
			values[i] = "Category_" + string(rune('A'+rng.Intn(%d)))
		}
`, n), string(table.KindString)
	}

	length := int(s.AvgLength)
	if length < 1 {
		length = 1
	}
	return fmt.Sprintf(`		const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
		for i := range values {
			b := make([]byte, %d)
			for j := range b {
				b[j] = alnum[rng.Intn(len(alnum))]
			}
			values[i] = string(b)
		}
`, length), string(table.KindString)
}
