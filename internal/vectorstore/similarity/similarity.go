// Package similarity implements the scoring used by the brute-force
// backends. Scores are "higher is better" for every metric so callers
// can sort descending regardless of the collection's configuration.
package similarity

import (
	"math"

	"gostrag/internal/domain"
)

// Score compares two vectors of equal length under the given metric:
// cosine similarity, dot product, or negated Euclidean distance.
func Score(metric domain.Metric, a, b []float32) float32 {
	switch metric {
	case domain.MetricDot:
		return dot(a, b)
	case domain.MetricL2:
		return -l2(a, b)
	default:
		return cosine(a, b)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float32) float32 {
	var dp, na, nb float64
	for i := range a {
		va, vb := float64(a[i]), float64(b[i])
		dp += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dp / (math.Sqrt(na) * math.Sqrt(nb)))
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
