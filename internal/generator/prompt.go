// Package generator - collaborator prompt construction.
package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"synthtab/internal/profile"
)

// systemPrompt fixes the routine contract: a package main source whose
// GenerateTable produces the wire JSON string. It enumerates the import
// allow-list so rejected routines are the exception, not the norm.
const systemPrompt = `You are a Go code generator specialized in creating synthetic tabular data.
Generate a complete, compilable Go source file that produces synthetic data.
The file must:
1. Declare "package main" and must NOT declare func main
2. Define exactly this entry point: func GenerateTable() (string, error)
3. Return a JSON string of the shape {"columns":[{"name":string,"kind":string,"values":[...]},...],"rows":int}
4. Use kind values "int", "float", "bool", "string" or "datetime"; encode nulls as JSON null and datetimes as RFC 3339 strings
5. Import only from: bytes, encoding/json, errors, fmt, math, math/rand, sort, strconv, strings, time, unicode
6. Match the statistical properties and patterns described in the metadata
7. Use appropriate distributions for numeric data and preserve correlations between columns
8. Generate realistic values for string patterns (emails, ids, prefixes)
9. CRITICAL: for columns with kind "datetime" generate time.Time values formatted with time.RFC3339, never random strings
10. For any column whose name contains "date" or "time", generate dates rather than random strings
11. Return ONLY the Go code, no explanations or markdown formatting`

// buildPrompt renders the user prompt from the metadata document.
func buildPrompt(doc *profile.Document, numRows int, matchThreshold float64) (string, error) {
	fields, err := json.MarshalIndent(doc.Structure.Fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	stats, err := json.MarshalIndent(doc.Statistics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal statistics: %w", err)
	}
	patterns, err := json.MarshalIndent(doc.Patterns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal patterns: %w", err)
	}
	correlations, err := json.MarshalIndent(doc.Correlations, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal correlations: %w", err)
	}

	var constraints string
	switch {
	case doc.ConstraintText != "":
		constraints = fmt.Sprintf("\nDATA DICTIONARY CONSTRAINTS (MUST BE FOLLOWED):\n%s\n", doc.ConstraintText)
	case len(doc.Constraints) > 0:
		raw, err := json.MarshalIndent(doc.Constraints, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal constraints: %w", err)
		}
		constraints = fmt.Sprintf("\nDATA DICTIONARY CONSTRAINTS (MUST BE FOLLOWED):\n%s\n", raw)
	}

	margin := (1 - matchThreshold) * 20

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate Go code to create a synthetic dataset with %d rows.\n\n", numRows)
	sb.WriteString("The dataset should have the following structure and properties:\n\n")
	fmt.Fprintf(&sb, "COLUMNS:\n%s\n\n", fields)
	fmt.Fprintf(&sb, "STATISTICAL PROPERTIES:\n%s\n\n", stats)
	fmt.Fprintf(&sb, "PATTERNS:\n%s\n\n", patterns)
	fmt.Fprintf(&sb, "CORRELATIONS:\n%s\n", correlations)
	sb.WriteString(constraints)
	fmt.Fprintf(&sb, "\nMatch threshold: %g (0=loose match, 1=exact match)\n\n", matchThreshold)
	sb.WriteString("Generate complete Go code that:\n")
	sb.WriteString("1. Defines func GenerateTable() (string, error) returning the wire JSON described in the system instruction\n")
	fmt.Fprintf(&sb, "2. Matches the statistical properties within a %.0f%% margin\n", margin)
	sb.WriteString("3. Preserves column kinds and patterns\n")
	sb.WriteString("4. Maintains correlations between columns\n")
	sb.WriteString("5. Generates realistic synthetic values\n")
	sb.WriteString("6. IMPORTANT: for columns with kind \"datetime\", formats values with time.RFC3339\n")
	sb.WriteString("7. For column names containing 'date', 'time', 'created', 'updated', generates datetime values\n")
	sb.WriteString("8. CRITICAL: if DATA DICTIONARY CONSTRAINTS are provided above, they MUST override any statistical properties\n\n")
	sb.WriteString("Return only the Go code.")

	return sb.String(), nil
}

// extractCodeBlock extracts code from a response that may contain markdown
// fences. Returns the code inside ```lang or ``` blocks, or the trimmed text
// if no fences are found.
func extractCodeBlock(text, lang string) string {
	patterns := []string{
		"```" + lang + "\n",
		"```" + lang + "\r\n",
		"```\n",
		"```\r\n",
	}

	for _, pattern := range patterns {
		if idx := strings.Index(text, pattern); idx != -1 {
			start := idx + len(pattern)
			end := strings.Index(text[start:], "```")
			if end != -1 {
				return strings.TrimSpace(text[start : start+end])
			}
		}
	}

	return strings.TrimSpace(text)
}
