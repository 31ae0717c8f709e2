// Package table - JSON wire codec for the sandbox protocol.
// Generated routines emit this shape on stdout; the executor decodes it back
// into a Table. Nulls travel as JSON null, datetimes as RFC 3339 strings.
package table

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// wireTable is the JSON shape exchanged with generated routines.
type wireTable struct {
	Columns []wireColumn `json:"columns"`
	Rows    int          `json:"rows"`
}

type wireColumn struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Values []any  `json:"values"`
}

// MarshalJSON encodes the table into the wire shape.
func (t *Table) MarshalJSON() ([]byte, error) {
	wt := wireTable{Rows: t.NumRows(), Columns: make([]wireColumn, len(t.Columns))}
	for i, c := range t.Columns {
		wc := wireColumn{Name: c.Name, Kind: string(c.Kind), Values: make([]any, len(c.Values))}
		for j, v := range c.Values {
			if v.Null {
				wc.Values[j] = nil
				continue
			}
			switch c.Kind {
			case KindInt:
				wc.Values[j] = v.Int
			case KindFloat:
				wc.Values[j] = v.Float
			case KindBool:
				wc.Values[j] = v.Bool
			case KindDatetime:
				wc.Values[j] = v.Time.UTC().Format(time.RFC3339)
			default:
				wc.Values[j] = v.Str
			}
		}
		wt.Columns[i] = wc
	}
	return json.Marshal(wt)
}

// UnmarshalJSON decodes the wire shape into the table.
func (t *Table) UnmarshalJSON(data []byte) error {
	var wt wireTable
	if err := json.Unmarshal(data, &wt); err != nil {
		return err
	}
	cols := make([]Column, len(wt.Columns))
	for i, wc := range wt.Columns {
		kind := Kind(wc.Kind)
		switch kind {
		case KindInt, KindFloat, KindBool, KindString, KindDatetime:
		default:
			return fmt.Errorf("column %q: unknown kind %q", wc.Name, wc.Kind)
		}
		col := Column{Name: wc.Name, Kind: kind, Values: make([]Value, len(wc.Values))}
		for j, raw := range wc.Values {
			v, err := decodeCell(kind, raw)
			if err != nil {
				return fmt.Errorf("column %q row %d: %w", wc.Name, j, err)
			}
			col.Values[j] = v
		}
		cols[i] = col
	}
	t.Columns = cols
	return t.Validate()
}

// decodeCell converts one JSON value into a typed cell.
func decodeCell(kind Kind, raw any) (Value, error) {
	if raw == nil {
		return NullValue(), nil
	}
	switch kind {
	case KindInt:
		f, ok := raw.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected number, got %T", raw)
		}
		if f != math.Trunc(f) {
			return Value{}, fmt.Errorf("expected integer, got %v", f)
		}
		return IntValue(int64(f)), nil
	case KindFloat:
		f, ok := raw.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected number, got %T", raw)
		}
		return FloatValue(f), nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return BoolValue(b), nil
	case KindDatetime:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected RFC 3339 string, got %T", raw)
		}
		ts, err := parseTimestamp(s)
		if err != nil {
			return Value{}, err
		}
		return TimeValue(ts), nil
	default:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return StringValue(s), nil
	}
}

// timestampLayouts are accepted datetime encodings, most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
