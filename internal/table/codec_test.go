package table

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var timeComparer = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })

func TestCodecRoundTrip(t *testing.T) {
	src := New(
		Column{Name: "id", Kind: KindInt, Values: []Value{
			IntValue(1), IntValue(2), NullValue(),
		}},
		Column{Name: "price", Kind: KindFloat, Values: []Value{
			FloatValue(9.5), NullValue(), FloatValue(-0.25),
		}},
		Column{Name: "active", Kind: KindBool, Values: []Value{
			BoolValue(true), BoolValue(false), NullValue(),
		}},
		Column{Name: "label", Kind: KindString, Values: []Value{
			StringValue("a"), StringValue(""), NullValue(),
		}},
		Column{Name: "seen", Kind: KindDatetime, Values: []Value{
			TimeValue(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)),
			NullValue(),
			TimeValue(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
		}},
	)

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}

	var got Table
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(src, &got, timeComparer); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCodecWireShape(t *testing.T) {
	src := New(Column{Name: "n", Kind: KindInt, Values: []Value{IntValue(7), NullValue()}})
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}

	want := `{"columns":[{"name":"n","kind":"int","values":[7,null]}],"rows":2}`
	if string(data) != want {
		t.Errorf("wire shape = %s, want %s", data, want)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name, input, wantErr string
	}{
		{
			name:    "unknown kind",
			input:   `{"columns":[{"name":"x","kind":"decimal","values":[1]}],"rows":1}`,
			wantErr: "unknown kind",
		},
		{
			name:    "fractional value in int column",
			input:   `{"columns":[{"name":"x","kind":"int","values":[1.5]}],"rows":1}`,
			wantErr: "expected integer",
		},
		{
			name:    "string in bool column",
			input:   `{"columns":[{"name":"x","kind":"bool","values":["yes"]}],"rows":1}`,
			wantErr: "expected bool",
		},
		{
			name:    "garbage timestamp",
			input:   `{"columns":[{"name":"x","kind":"datetime","values":["soon"]}],"rows":1}`,
			wantErr: "unparseable timestamp",
		},
		{
			name:    "ragged columns",
			input:   `{"columns":[{"name":"a","kind":"int","values":[1,2]},{"name":"b","kind":"int","values":[1]}],"rows":2}`,
			wantErr: "rows",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tbl Table
			err := json.Unmarshal([]byte(tc.input), &tbl)
			if err == nil {
				t.Fatal("decode succeeded")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestUnmarshalAcceptsLooserTimestamps(t *testing.T) {
	input := `{"columns":[{"name":"d","kind":"datetime","values":["2024-06-01","2024-06-01 08:30:00"]}],"rows":2}`
	var tbl Table
	if err := json.Unmarshal([]byte(input), &tbl); err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	if got := tbl.Column("d").Values[1].Time; !got.Equal(want) {
		t.Errorf("parsed = %v, want %v", got, want)
	}
}

func TestMarshalNormalizesDatetimeToUTC(t *testing.T) {
	loc := time.FixedZone("plus2", 2*60*60)
	src := New(Column{Name: "d", Kind: KindDatetime, Values: []Value{
		TimeValue(time.Date(2024, 6, 1, 10, 0, 0, 0, loc)),
	}})
	data, err := json.Marshal(src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"2024-06-01T08:00:00Z"`) {
		t.Errorf("datetime not normalized: %s", data)
	}
}
