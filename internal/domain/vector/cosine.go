// Package vector holds the similarity math shared by the ranking stages.
package vector

import "math"

// Cosine returns dot(a,b) / (|a|*|b|).
// Empty input, mismatched lengths and zero-norm vectors score 0 rather than NaN.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return 0
	}
	// Clamp float drift so identical vectors score exactly within [-1, 1].
	return math.Max(-1, math.Min(1, sim))
}

// Normalize maps v into [0,1] relative to [lo,hi]. A degenerate range yields 0.
func Normalize(v, lo, hi float64) float64 {
	if lo == hi {
		return 0
	}
	return (v - lo) / (hi - lo)
}
