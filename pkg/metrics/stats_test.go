package metrics

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSummarize_FiveSamples(t *testing.T) {
	stats, err := Summarize([]float64{10, 20, 30, 40, 50})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 30.0, stats.Mean)
	assert.Equal(t, 30.0, stats.Median)
	assert.Equal(t, 10.0, stats.Min)
	assert.Equal(t, 50.0, stats.Max)
	assert.Equal(t, 50.0, stats.P95)
	assert.Equal(t, 50.0, stats.P99)
	assert.InDelta(t, math.Sqrt(250), stats.StdDev, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Summarize([]float64{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSummarize_SingleSample(t *testing.T) {
	stats, err := Summarize([]float64{42})
	require.NoError(t, err)

	for _, v := range []float64{stats.Mean, stats.Median, stats.Min, stats.Max, stats.P95, stats.P99} {
		assert.Equal(t, 42.0, v)
	}
	assert.Zero(t, stats.StdDev)
}

func TestSummarize_EvenCountMedian(t *testing.T) {
	stats, err := Summarize([]float64{4, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.5, stats.Median)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 4.0, stats.Max)
}

func TestSummarize_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_, err := Summarize(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestSummarize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		samples := rapid.SliceOfN(rapid.Float64Range(0, 10000), 1, 200).Draw(t, "samples")

		first, err := Summarize(samples)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, _ := Summarize(samples)
		if first != second {
			t.Fatalf("summaries differ: %+v vs %+v", first, second)
		}

		if first.Min > first.Median || first.Median > first.Max {
			t.Fatalf("median %v outside [%v, %v]", first.Median, first.Min, first.Max)
		}
		if first.P95 > first.P99 || first.P99 > first.Max || first.P95 < first.Min {
			t.Fatalf("percentiles out of order: %+v", first)
		}
		if first.Mean < first.Min-1e-9 || first.Mean > first.Max+1e-9 {
			t.Fatalf("mean %v outside [%v, %v]", first.Mean, first.Min, first.Max)
		}
		if first.StdDev < 0 {
			t.Fatalf("negative stddev %v", first.StdDev)
		}

		sorted := append([]float64(nil), samples...)
		sort.Float64s(sorted)
		if want := sorted[int(math.Floor(float64(len(sorted))*0.95))]; first.P95 != want {
			t.Fatalf("p95 = %v, want %v", first.P95, want)
		}
	})
}

func TestPercentile_Clamped(t *testing.T) {
	sorted := []float64{1, 2, 3}
	assert.Equal(t, 3.0, Percentile(sorted, 1.0))
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Zero(t, Percentile(nil, 0.5))
}

func TestImprovement(t *testing.T) {
	pct, ok := Improvement(25, 100)
	assert.True(t, ok)
	assert.Equal(t, 75.0, pct)

	pct, ok = Improvement(150, 100)
	assert.True(t, ok)
	assert.Equal(t, -50.0, pct)

	_, ok = Improvement(10, 0)
	assert.False(t, ok)
}

func TestLatencyRecorder(t *testing.T) {
	r := NewLatencyRecorder()
	assert.Zero(t, r.Summary().Requests)

	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * time.Millisecond)
	}
	s := r.Summary()
	assert.Equal(t, int64(100), s.Requests)
	assert.InDelta(t, 50.5, s.MeanMs, 0.5)
	assert.InDelta(t, 50, s.P50Ms, 1)
	assert.InDelta(t, 99, s.P99Ms, 1)
	assert.InDelta(t, 100, s.MaxMs, 1)

	r.Record(0)
	r.Record(2 * time.Hour)
	assert.Equal(t, int64(102), r.Summary().Requests)

	r.Reset()
	assert.Zero(t, r.Summary().Requests)
}
