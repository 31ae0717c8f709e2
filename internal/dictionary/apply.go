// Package dictionary - attaching constraints to metadata and checking tables.
package dictionary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"synthtab/internal/profile"
	"synthtab/internal/table"
)

// promptValueCap limits enumerated allowed values in the constraint text.
const promptValueCap = 10

// Apply attaches the dictionary's constraints to the document so they travel
// with it into generation. Existing constraints for the same columns are
// replaced.
func (d *Dictionary) Apply(doc *profile.Document) {
	if len(d.Columns) == 0 {
		return
	}
	if doc.Constraints == nil {
		doc.Constraints = make(map[string]any, len(d.Columns))
	}
	for name, def := range d.Columns {
		doc.Constraints[name] = def
	}
	doc.ConstraintText = d.PromptText()
}

// PromptText renders the constraints as one line per column for inclusion in
// a collaborator prompt. Columns are emitted in sorted order so the text is
// deterministic.
func (d *Dictionary) PromptText() string {
	names := make([]string, 0, len(d.Columns))
	for name := range d.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		def := d.Columns[name]
		typ := def.Type
		if typ == "" {
			typ = "string"
		}
		parts := []string{fmt.Sprintf("%s: %s type", name, typ)}
		if def.Description != "" {
			parts = append(parts, fmt.Sprintf("(%s)", def.Description))
		}
		c := def.Constraints
		if len(c.AllowedValues) > 0 {
			values := c.AllowedValues
			if len(values) > promptValueCap {
				values = values[:promptValueCap]
			}
			parts = append(parts, fmt.Sprintf("must be one of: %v", values))
		}
		if c.MinValue != nil {
			parts = append(parts, fmt.Sprintf("min=%g", *c.MinValue))
		}
		if c.MaxValue != nil {
			parts = append(parts, fmt.Sprintf("max=%g", *c.MaxValue))
		}
		if c.Pattern != "" {
			parts = append(parts, fmt.Sprintf("pattern=%s", c.Pattern))
		}
		if c.Required {
			parts = append(parts, "REQUIRED")
		}
		if c.Unique {
			parts = append(parts, "UNIQUE")
		}
		lines = append(lines, strings.Join(parts, " - "))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a table against the dictionary and returns violation
// messages per column. Columns absent from the table are reported under
// their own name; columns absent from the dictionary are ignored.
func (d *Dictionary) Validate(t *table.Table) map[string][]string {
	violations := make(map[string][]string)

	for name, def := range d.Columns {
		col := t.Column(name)
		if col == nil {
			if def.Constraints.Required {
				violations[name] = append(violations[name], "column missing but marked as required")
			}
			continue
		}
		if errs := checkColumn(col, def); len(errs) > 0 {
			violations[name] = errs
		}
	}
	return violations
}

func checkColumn(col *table.Column, def ColumnDef) []string {
	var errs []string
	c := def.Constraints

	if c.Required && col.NullCount() > 0 {
		errs = append(errs, "contains null values but marked as required")
	}
	if c.Unique && col.UniqueCount() < len(col.NonNull()) {
		errs = append(errs, "contains duplicate values but marked as unique")
	}

	if col.Kind.IsNumeric() {
		for _, v := range col.Values {
			if v.Null {
				continue
			}
			f := v.Float64(col.Kind)
			if c.MinValue != nil && f < *c.MinValue {
				errs = append(errs, fmt.Sprintf("values below minimum %g", *c.MinValue))
				break
			}
		}
		for _, v := range col.Values {
			if v.Null {
				continue
			}
			f := v.Float64(col.Kind)
			if c.MaxValue != nil && f > *c.MaxValue {
				errs = append(errs, fmt.Sprintf("values above maximum %g", *c.MaxValue))
				break
			}
		}
	}

	if col.Kind == table.KindString {
		errs = append(errs, checkStrings(col, c)...)
	}

	if len(c.AllowedValues) > 0 {
		allowed := make(map[string]bool, len(c.AllowedValues))
		for _, v := range c.AllowedValues {
			allowed[v] = true
		}
		for _, v := range col.Values {
			if v.Null || col.Kind != table.KindString {
				continue
			}
			if !allowed[v.Str] {
				errs = append(errs, fmt.Sprintf("invalid value %q not in allowed set", v.Str))
				break
			}
		}
	}

	return errs
}

func checkStrings(col *table.Column, c Constraints) []string {
	var errs []string

	var re *regexp.Regexp
	if c.Pattern != "" {
		compiled, err := regexp.Compile(c.Pattern)
		if err != nil {
			return []string{fmt.Sprintf("invalid pattern %q: %v", c.Pattern, err)}
		}
		re = compiled
	}

	tooShort, tooLong, mismatched := false, false, false
	for _, v := range col.Values {
		if v.Null {
			continue
		}
		n := len([]rune(v.Str))
		if c.MinLength != nil && n < *c.MinLength {
			tooShort = true
		}
		if c.MaxLength != nil && n > *c.MaxLength {
			tooLong = true
		}
		if re != nil && !re.MatchString(v.Str) {
			mismatched = true
		}
	}
	if tooShort {
		errs = append(errs, fmt.Sprintf("strings shorter than minimum length %d", *c.MinLength))
	}
	if tooLong {
		errs = append(errs, fmt.Sprintf("strings longer than maximum length %d", *c.MaxLength))
	}
	if mismatched {
		errs = append(errs, fmt.Sprintf("values don't match pattern: %s", c.Pattern))
	}
	return errs
}
