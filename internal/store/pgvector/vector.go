package pgvector

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// encodeVector converts an embedding to the pgvector array literal used at
// the storage boundary. Each component is rounded to 6 decimal places, so
// re-encoding a decoded value is idempotent at that precision.
func encodeVector(v []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		rounded := math.Round(float64(f)*1e6) / 1e6
		sb.WriteString(strconv.FormatFloat(rounded, 'f', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}

// decodeVector parses a pgvector array literal back into an embedding.
func decodeVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("pgvector: malformed vector literal %q", s)
	}

	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, nil
	}

	parts := strings.Split(inner, ",")
	vector := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("pgvector: parse component %d: %w", i, err)
		}
		vector[i] = float32(f)
	}
	return vector, nil
}
