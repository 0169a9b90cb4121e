// Package metrics computes latency statistics for the benchmark reports.
package metrics

import (
	"errors"
	"math"
	"sort"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// ErrNoData is returned when there are no samples to summarize.
var ErrNoData = errors.New("没有可统计的样本")

// Summarize computes descriptive statistics over samples.
// The input slice is not modified.
//
// Percentiles use the nearest-rank index floor(p*n) into the ascending
// sorted samples, clamped to n-1. StdDev is the sample standard deviation
// and is 0 for a single sample.
func Summarize(samples []float64) (types.Statistics, error) {
	n := len(samples)
	if n == 0 {
		return types.Statistics{}, ErrNoData
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	stats := types.Statistics{
		Count:  n,
		Mean:   mean,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[n-1],
		P95:    Percentile(sorted, 0.95),
		P99:    Percentile(sorted, 0.99),
	}

	if n > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		stats.StdDev = math.Sqrt(sq / float64(n-1))
	}

	return stats, nil
}

// Percentile returns the nearest-rank percentile of ascending sorted samples.
// p is a fraction in [0, 1]. It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Improvement returns the signed relative improvement of a over b in percent,
// (b - a) / b * 100. Positive means a is faster. ok is false when b is 0.
func Improvement(a, b float64) (pct float64, ok bool) {
	if b == 0 {
		return 0, false
	}
	return (b - a) / b * 100, true
}
