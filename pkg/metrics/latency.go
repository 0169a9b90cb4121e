package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Minute / time.Microsecond)
	sigFigs          = 3
)

// LatencyRecorder tracks request latencies in a high dynamic range histogram.
// It is safe for concurrent use.
type LatencyRecorder struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// NewLatencyRecorder creates a recorder covering 1µs to 1 minute.
func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{
		hist: hdrhistogram.New(minLatencyMicros, maxLatencyMicros, sigFigs),
	}
}

// Record adds one latency observation. Values outside the range are clamped.
func (r *LatencyRecorder) Record(d time.Duration) {
	v := d.Microseconds()
	if v < minLatencyMicros {
		v = minLatencyMicros
	}
	if v > maxLatencyMicros {
		v = maxLatencyMicros
	}

	r.mu.Lock()
	_ = r.hist.RecordValue(v)
	r.mu.Unlock()
}

// Reset clears all observations.
func (r *LatencyRecorder) Reset() {
	r.mu.Lock()
	r.hist.Reset()
	r.mu.Unlock()
}

// Summary returns the recorded latency distribution in milliseconds.
func (r *LatencyRecorder) Summary() types.LatencySummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.hist.TotalCount()
	if count == 0 {
		return types.LatencySummary{}
	}
	return types.LatencySummary{
		Requests: count,
		MeanMs:   r.hist.Mean() / 1000,
		P50Ms:    float64(r.hist.ValueAtQuantile(50)) / 1000,
		P99Ms:    float64(r.hist.ValueAtQuantile(99)) / 1000,
		MaxMs:    float64(r.hist.Max()) / 1000,
	}
}
