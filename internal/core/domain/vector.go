package domain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultEmbeddingDimensions is the vector size documents are stored with
// unless configured otherwise.
const DefaultEmbeddingDimensions = 768

// CosineSimilarity computes the cosine of the angle between two vectors.
// Vectors of different length are treated as unrelated and score 0, as is
// any vector with zero norm.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0
	}
	return dot / den
}

// FitDimensions truncates or right-pads v with zeros so that it has exactly
// dims entries. The second return value reports whether v had to change.
func FitDimensions(v []float32, dims int) ([]float32, bool) {
	if dims <= 0 || len(v) == dims {
		return v, false
	}
	out := make([]float32, dims)
	copy(out, v)
	return out, true
}

// FormatVector encodes a vector in the bracketed comma-separated form used
// for every write, e.g. "[0.1,0.2,0.3]".
func FormatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseVector decodes a stored vector. It accepts native numeric arrays,
// the bracketed string form and little-endian float32 blobs. Errors wrap
// ErrParseFailure.
func ParseVector(raw any) ([]float32, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: no vector", ErrParseFailure)
	case []float32:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector", ErrParseFailure)
		}
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	case []float64:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector", ErrParseFailure)
		}
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		return parseAnySlice(v)
	case string:
		return parseBracketed(v)
	case []byte:
		trimmed := bytes.TrimSpace(v)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			return parseBracketed(string(trimmed))
		}
		return parseFloat32Blob(v)
	default:
		return nil, fmt.Errorf("%w: unsupported encoding %T", ErrParseFailure, raw)
	}
}

func parseAnySlice(values []any) ([]float32, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrParseFailure)
	}
	out := make([]float32, len(values))
	for i, item := range values {
		switch n := item.(type) {
		case float64:
			out[i] = float32(n)
		case float32:
			out[i] = n
		case int:
			out[i] = float32(n)
		case int64:
			out[i] = float32(n)
		default:
			return nil, fmt.Errorf("%w: element %d has type %T", ErrParseFailure, i, item)
		}
	}
	return out, nil
}

func parseBracketed(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("%w: not a bracketed list", ErrParseFailure)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, fmt.Errorf("%w: empty vector", ErrParseFailure)
	}
	parts := strings.Split(inner, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: element %d %q", ErrParseFailure, i, strings.TrimSpace(p))
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseFloat32Blob(data []byte) ([]float32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: blob of %d bytes", ErrParseFailure, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}
