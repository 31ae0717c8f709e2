// Package profile - transmission-safe serialization. Top-K value tables are
// the only place raw cell values survive into a document; before a document
// crosses a trust boundary the values are replaced with positional
// placeholders while their counts are preserved.
package profile

import (
	"encoding/json"
	"fmt"
)

// SecureCopy returns a deep copy of the document with every top-K value
// replaced by a "value_<i>" placeholder. The original is left untouched.
func (d *Document) SecureCopy() (*Document, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var cp Document
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal document copy: %w", err)
	}

	for _, st := range cp.Statistics {
		if st.String == nil {
			continue
		}
		for i := range st.String.MostCommonValues {
			st.String.MostCommonValues[i].Value = fmt.Sprintf("value_%d", i)
		}
	}
	return &cp, nil
}

// SecureJSON renders the document for external transmission. Raw values must
// never cross this boundary in the clear.
func (d *Document) SecureJSON() ([]byte, error) {
	cp, err := d.SecureCopy()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(cp, "", "  ")
}
