// Package dictionary parses data-dictionary constraint files and applies
// them to metadata documents. Constraints declared here override observed
// statistics during generation and can be checked against produced tables.
//
// The canonical shape is
//
//	columns:
//	  <name>:
//	    type: string|int|float|datetime|bool
//	    description: ...
//	    constraints:
//	      required: true
//	      unique: true
//	      min_value: 0
//	      max_value: 120
//	      min_length: 1
//	      max_length: 64
//	      pattern: "^[A-Z]{2}-\\d+$"
//	      allowed_values: [a, b, c]
//	      format: "2006-01-02"
//
// A top-level mapping without the columns key is treated as the column map
// itself, and a bare scalar column value as its type.
package dictionary

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Constraints are the per-column generation rules.
type Constraints struct {
	Required      bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Unique        bool     `yaml:"unique,omitempty" json:"unique,omitempty"`
	MinValue      *float64 `yaml:"min_value,omitempty" json:"min_value,omitempty"`
	MaxValue      *float64 `yaml:"max_value,omitempty" json:"max_value,omitempty"`
	MinLength     *int     `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength     *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern       string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	AllowedValues []string `yaml:"allowed_values,omitempty" json:"allowed_values,omitempty"`
	Format        string   `yaml:"format,omitempty" json:"format,omitempty"`
}

// ColumnDef describes one column's declared type and constraints.
type ColumnDef struct {
	Type        string      `yaml:"type" json:"type"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Constraints Constraints `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// UnmarshalYAML accepts either a full mapping or a bare type scalar.
func (d *ColumnDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		d.Type = node.Value
		return nil
	}
	type plain ColumnDef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = ColumnDef(p)
	return nil
}

// Dictionary maps column names to their definitions.
type Dictionary struct {
	Columns map[string]ColumnDef `yaml:"columns" json:"columns"`
}

// Parse reads a dictionary from YAML (or JSON, which YAML subsumes).
func Parse(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(d.Columns) > 0 {
		return &d, nil
	}

	// No columns key: the document itself is the column map.
	var cols map[string]ColumnDef
	if err := yaml.Unmarshal(data, &cols); err != nil {
		return nil, fmt.Errorf("parse dictionary: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("dictionary defines no columns")
	}
	return &Dictionary{Columns: cols}, nil
}

// Load reads a dictionary from a file.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return Parse(data)
}
