// Package stats computes scalar statistics over finite numeric series.
//
// Every function reports whether its result is defined. An empty series has
// no mean, no percentiles and no spread; callers render a placeholder instead
// of a computed zero.
//
// Standard deviation uses the population convention (divide by n) at every
// call site. Growth rate is the least-squares slope against elapsed seconds.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic average of xs.
func Mean(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return stat.Mean(xs, nil), true
}

// Min returns the smallest value of xs.
func Min(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return slices.Min(xs), true
}

// Max returns the largest value of xs.
func Max(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	return slices.Max(xs), true
}

// Percentile returns the nearest-rank percentile of xs for q in [0, 1].
// The rank is round((n-1)*q) clamped to the series bounds, so q=0 yields the
// minimum and q=1 the maximum. No interpolation is performed.
func Percentile(xs []float64, q float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	return percentileSorted(sorted, q), true
}

func percentileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	idx := int(math.Round(float64(n-1) * q))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	_, variance := stat.PopMeanVariance(xs, nil)
	return math.Sqrt(variance), true
}

// HighRatio returns the fraction of values strictly greater than threshold.
func HighRatio(xs []float64, threshold float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	count := 0
	for _, v := range xs {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(xs)), true
}

// GrowthRate returns the ordinary least-squares slope of ys against
// elapsed, in value units per second. A single sample has slope 0, as does
// any constant series or a series whose samples share one timestamp.
func GrowthRate(elapsed, ys []float64) (float64, bool) {
	n := len(ys)
	if n == 0 || len(elapsed) != n {
		return 0, false
	}
	if n == 1 || isConstant(ys) || isConstant(elapsed) {
		return 0, true
	}
	_, beta := stat.LinearRegression(elapsed, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0, true
	}
	return beta, true
}

func isConstant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
