// Package cache - heuristic structural embedding.
//
// The embedding is a hand-built fixed-schema feature vector, not a learned
// representation. Its slot layout is a versioned contract tied to
// profile.SchemaVersion: similarity scores are only meaningful between
// vectors built from the same layout.
package cache

import (
	"math"

	"synthtab/internal/profile"
)

// EmbeddingSize is the fixed vector length. Feature lists shorter than this
// are zero-padded; longer ones are truncated.
const EmbeddingSize = 128

// Embedding builds the structural feature vector for a document.
//
// Slot layout (v1.0): [rows, columns], then per column in document order
// numeric -> [mean, std, min, max]; string -> [unique_count, avg_length,
// is_categorical]; anything else -> [0, 0, 0].
func Embedding(doc *profile.Document) []float64 {
	features := make([]float64, 0, EmbeddingSize)
	features = append(features,
		float64(doc.Structure.Rows),
		float64(doc.Structure.Columns))

	for _, f := range doc.Structure.Fields {
		st := doc.Statistics[f.Name]
		if st == nil {
			features = append(features, 0, 0, 0)
			continue
		}
		switch st.Type {
		case "numeric":
			if n := st.Numeric; n != nil {
				features = append(features, n.Mean, n.Std, n.Min, n.Max)
			} else {
				features = append(features, 0, 0, 0, 0)
			}
		case "string":
			if s := st.String; s != nil {
				cat := 0.0
				if s.IsCategorical {
					cat = 1
				}
				features = append(features, float64(s.UniqueValues), s.AvgLength, cat)
			} else {
				features = append(features, 0, 0, 0)
			}
		default:
			features = append(features, 0, 0, 0)
		}
	}

	if len(features) > EmbeddingSize {
		return features[:EmbeddingSize]
	}
	for len(features) < EmbeddingSize {
		features = append(features, 0)
	}
	return features
}

// Similarity is cosine similarity rescaled from [-1, 1] to [0, 1]. A zero
// vector on either side yields 0.
func Similarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
