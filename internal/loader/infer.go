// Package loader - column kind inference.
package loader

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"synthtab/internal/table"
)

// dateLayouts are the textual date encodings recognized during inference.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"01/02/2006 15:04:05",
}

// datePatterns mirror the layouts above for cheap sampling before a full
// column conversion is attempted.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}$`),
}

// dateNameKeywords mark columns whose name suggests a date even when the
// values alone would not.
var dateNameKeywords = []string{
	"date", "time", "datetime", "timestamp", "created", "updated",
	"modified", "dob", "birth", "start", "end", "when", "day",
}

// dateSampleSize bounds the pattern pre-check.
const dateSampleSize = 10

// dateParseThreshold is the fraction of non-null cells that must convert for
// a column to become datetime.
const dateParseThreshold = 0.8

// inferColumn types one raw column. The second return is true when every
// cell is null and the column should be dropped.
func inferColumn(name string, cells []string) (table.Column, bool) {
	nonNull := 0
	for _, c := range cells {
		if !isNull(c) {
			nonNull++
		}
	}
	if nonNull == 0 {
		return table.Column{}, true
	}

	if col, ok := tryInts(name, cells); ok {
		return col, false
	}
	if col, ok := tryFloats(name, cells); ok {
		return col, false
	}
	if col, ok := tryBools(name, cells); ok {
		return col, false
	}
	if col, ok := tryDates(name, cells, nonNull); ok {
		return col, false
	}

	col := table.Column{Name: name, Kind: table.KindString, Values: make([]table.Value, len(cells))}
	for i, c := range cells {
		if isNull(c) {
			col.Values[i] = table.NullValue()
		} else {
			col.Values[i] = table.StringValue(c)
		}
	}
	return col, false
}

func isNull(cell string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(cell))]
}

func tryInts(name string, cells []string) (table.Column, bool) {
	values := make([]table.Value, len(cells))
	for i, c := range cells {
		if isNull(c) {
			values[i] = table.NullValue()
			continue
		}
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return table.Column{}, false
		}
		values[i] = table.IntValue(n)
	}
	return table.Column{Name: name, Kind: table.KindInt, Values: values}, true
}

func tryFloats(name string, cells []string) (table.Column, bool) {
	values := make([]table.Value, len(cells))
	for i, c := range cells {
		if isNull(c) {
			values[i] = table.NullValue()
			continue
		}
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return table.Column{}, false
		}
		values[i] = table.FloatValue(f)
	}
	return table.Column{Name: name, Kind: table.KindFloat, Values: values}, true
}

func tryBools(name string, cells []string) (table.Column, bool) {
	values := make([]table.Value, len(cells))
	for i, c := range cells {
		if isNull(c) {
			values[i] = table.NullValue()
			continue
		}
		switch strings.ToLower(c) {
		case "true", "t", "yes", "y":
			values[i] = table.BoolValue(true)
		case "false", "f", "no", "n":
			values[i] = table.BoolValue(false)
		default:
			return table.Column{}, false
		}
	}
	return table.Column{Name: name, Kind: table.KindBool, Values: values}, true
}

// tryDates converts a column to datetime when its name suggests a date or a
// sample of its values matches a date pattern, and at least 80% of the
// non-null cells actually parse. Cells that fail to parse become null.
func tryDates(name string, cells []string, nonNull int) (table.Column, bool) {
	if !nameSuggestsDate(name) && !sampleMatchesDate(cells) {
		return table.Column{}, false
	}

	values := make([]table.Value, len(cells))
	parsed := 0
	for i, c := range cells {
		if isNull(c) {
			values[i] = table.NullValue()
			continue
		}
		if ts, ok := parseDate(c); ok {
			values[i] = table.TimeValue(ts)
			parsed++
		} else {
			values[i] = table.NullValue()
		}
	}
	if float64(parsed) < float64(nonNull)*dateParseThreshold {
		return table.Column{}, false
	}
	return table.Column{Name: name, Kind: table.KindDatetime, Values: values}, true
}

func nameSuggestsDate(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range dateNameKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func sampleMatchesDate(cells []string) bool {
	var sample []string
	for _, c := range cells {
		if isNull(c) {
			continue
		}
		sample = append(sample, c)
		if len(sample) == dateSampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return false
	}
	for _, re := range datePatterns {
		matches := 0
		for _, c := range sample {
			if re.MatchString(c) {
				matches++
			}
		}
		if float64(matches) > float64(len(sample))*dateParseThreshold {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
