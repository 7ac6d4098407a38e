package profile

import (
	"math"
	"sort"
)

// Finite returns the values that are neither NaN nor infinite.
func Finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Sorted returns a sorted copy of the finite values.
func Sorted(vals []float64) []float64 {
	out := Finite(vals)
	sort.Float64s(out)
	return out
}

// Sum adds the finite values. The sum of nothing is 0.
func Sum(vals []float64) float64 {
	var s float64
	for _, v := range Finite(vals) {
		s += v
	}
	return s
}

// Mean is the arithmetic mean of the finite values, NaN when there are none.
func Mean(vals []float64) float64 {
	f := Finite(vals)
	if len(f) == 0 {
		return math.NaN()
	}
	var mean float64
	for i, v := range f {
		mean += (v - mean) / float64(i+1)
	}
	return mean
}

// StdDev is the sample standard deviation (n-1 denominator), NaN below two values.
func StdDev(vals []float64) float64 {
	f := Finite(vals)
	if len(f) < 2 {
		return math.NaN()
	}
	var n, mean, m2 float64
	for _, v := range f {
		n++
		delta := v - mean
		mean += delta / n
		m2 += delta * (v - mean)
	}
	return math.Sqrt(m2 / (n - 1))
}

// Quantile interpolates linearly between closest ranks of an already sorted slice.
// An empty slice yields NaN.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median of the finite values, NaN when there are none.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}
