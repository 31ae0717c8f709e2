package cache

import (
	"strings"
	"testing"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

func sampleTable() *table.Table {
	return &table.Table{Columns: []table.Column{
		{Name: "age", Kind: table.KindInt, Values: []table.Value{
			table.IntValue(30), table.IntValue(25), table.IntValue(35),
		}},
		{Name: "name", Kind: table.KindString, Values: []table.Value{
			table.StringValue("a"), table.StringValue("b"), table.StringValue("c"),
		}},
	}}
}

func sampleDoc(t *testing.T) *profile.Document {
	t.Helper()
	return profile.NewProfiler().Profile(sampleTable())
}

func TestFullHashDeterministic(t *testing.T) {
	a, err := FullHash(sampleDoc(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := FullHash(sampleDoc(t))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same document hashed differently: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "full_") || len(a) != len("full_")+hashHexLen {
		t.Errorf("malformed full hash %q", a)
	}
}

func TestFullHashIgnoresExtractionTimestamp(t *testing.T) {
	doc := sampleDoc(t)
	before, err := FullHash(doc)
	if err != nil {
		t.Fatal(err)
	}

	doc.ExtractedAt = "2030-01-01T00:00:00Z"
	after, err := FullHash(doc)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("extraction timestamp leaked into the full hash")
	}
}

func TestFullHashSensitiveToStatistics(t *testing.T) {
	doc := sampleDoc(t)
	before, err := FullHash(doc)
	if err != nil {
		t.Fatal(err)
	}

	doc.Statistics["age"].Numeric.Mean = 99
	after, err := FullHash(doc)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("statistic change did not change the full hash")
	}
}

func TestFormatHashIgnoresStatistics(t *testing.T) {
	doc := sampleDoc(t)
	before := FormatHash(doc)

	doc.Statistics["age"].Numeric.Mean = 99
	doc.ExtractedAt = "2030-01-01T00:00:00Z"
	if after := FormatHash(doc); before != after {
		t.Error("format hash depends on more than column shape")
	}
}

func TestFormatHashSensitiveToShape(t *testing.T) {
	doc := sampleDoc(t)
	before := FormatHash(doc)

	renamed := sampleDoc(t)
	renamed.Structure.Fields[0].Name = "years"
	if FormatHash(renamed) == before {
		t.Error("renamed column produced the same format hash")
	}

	retyped := sampleDoc(t)
	retyped.Structure.Fields[0].DeclaredType = string(table.KindFloat)
	if FormatHash(retyped) == before {
		t.Error("retyped column produced the same format hash")
	}
}
