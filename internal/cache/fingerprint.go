// Package cache - deterministic fingerprint hashing.
//
// Two tiers: the format hash collapses documents with identical column shape
// into one bucket regardless of statistics; the full hash changes whenever
// any statistic changes. Both canonicalize through sorted-key JSON so the
// same document always produces the same digest.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"synthtab/internal/profile"
)

const hashHexLen = 16

// FormatHash fingerprints column shape only: names, declared types, inferred
// kinds, column count and schema version. Statistics do not participate.
func FormatHash(doc *profile.Document) string {
	cols := make([]map[string]string, 0, len(doc.Structure.Fields))
	for _, f := range doc.Structure.Fields {
		cols = append(cols, map[string]string{
			"name":  f.Name,
			"dtype": f.DeclaredType,
			"kind":  f.Kind,
		})
	}
	canonical := map[string]any{
		"columns": cols,
		"shape":   doc.Structure.Columns,
		"version": doc.SchemaVersion,
	}
	return "format_" + digest(canonical)
}

// FullHash fingerprints the complete document minus the extraction
// timestamp, plus the schema version.
func FullHash(doc *profile.Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("canonicalize document: %w", err)
	}
	delete(m, "extracted_at")
	m["version"] = doc.SchemaVersion
	return "full_" + digest(m), nil
}

// digest renders v as canonical JSON (map keys sort during marshal) and
// returns the truncated sha256 hex.
func digest(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only non-serializable values reach this; canonical inputs are
		// plain maps and slices.
		raw = []byte(fmt.Sprintf("%v", v))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:hashHexLen]
}
