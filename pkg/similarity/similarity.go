// Package similarity compares face descriptors after L2 normalization.
//
// Every function is symmetric and never panics: vectors with zero norm or with
// mismatched lengths yield the worst value of the metric being asked for.
package similarity

import "math"

const (
	// MaxDistance is the largest Euclidean distance between two unit vectors.
	MaxDistance = 2.0
	// MinCosine and MaxCosine bound Cosine.
	MinCosine = 0.0
	MaxCosine = 1.0
	// MinBlended and MaxBlended bound Blended.
	MinBlended = -1.0
	MaxBlended = 1.0
)

// Distance is the Euclidean distance between the normalized vectors, in [0, 2].
func Distance(a, b []float64) float64 {
	na, nb, ok := normalizePair(a, b)
	if !ok {
		return MaxDistance
	}
	return euclidean(na, nb)
}

// Cosine is the cosine similarity rescaled from [-1, 1] into [0, 1].
func Cosine(a, b []float64) float64 {
	na, nb, ok := normalizePair(a, b)
	if !ok {
		return MinCosine
	}
	return (dot(na, nb) + 1) / 2
}

// Blended combines both metrics as (1 - distance + cos) / 2 where cos is the
// raw cosine. Identical directions score 1, opposite directions -1. This is the
// score the matcher ranks and thresholds on.
func Blended(a, b []float64) float64 {
	na, nb, ok := normalizePair(a, b)
	if !ok {
		return MinBlended
	}
	return (1 - euclidean(na, nb) + dot(na, nb)) / 2
}

// Normalize returns v divided by its Euclidean norm. ok is false for empty
// or zero vectors and for vectors holding NaN or infinite elements.
//
// Elements are divided by the largest magnitude before squaring so the sum
// neither overflows for huge elements nor underflows for tiny ones.
func Normalize(v []float64) (out []float64, ok bool) {
	if len(v) == 0 {
		return nil, false
	}

	var scale float64
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		scale = math.Max(scale, math.Abs(x))
	}
	if scale == 0 {
		return nil, false
	}

	out = make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = x / scale
		sum += out[i] * out[i]
	}

	norm := math.Sqrt(sum)
	for i := range out {
		out[i] /= norm
	}
	return out, true
}

func normalizePair(a, b []float64) ([]float64, []float64, bool) {
	if len(a) != len(b) {
		return nil, nil, false
	}
	na, ok := Normalize(a)
	if !ok {
		return nil, nil, false
	}
	nb, ok := Normalize(b)
	if !ok {
		return nil, nil, false
	}
	return na, nb, true
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Min(math.Sqrt(sum), MaxDistance)
}

// dot of two unit vectors, clamped against rounding drift.
func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return math.Max(-1, math.Min(1, sum))
}
