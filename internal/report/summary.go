// Package report builds and persists the benchmark comparison artifacts.
package report

import (
	"time"

	"github.com/lzhtan/intdb-bench/pkg/metrics"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

// TimestampLayout names the artifacts of a run.
const TimestampLayout = "20060102_150405"

// Summary is the machine-readable result of a run.
type Summary struct {
	RunID       string                  `json:"run_id"`
	Timestamp   string                  `json:"timestamp"`
	StartedAt   time.Time               `json:"started_at"`
	Mode        string                  `json:"mode"`
	Write       *types.WritePhaseResult `json:"write,omitempty"`
	Queries     []types.QueryComparison `json:"queries,omitempty"`
	IntDBInfo   map[string]any          `json:"intdb_stats,omitempty"`
	SamplesPath string                  `json:"samples_path,omitempty"`
}

// NewSummary creates an empty summary for a run started at startedAt.
func NewSummary(runID, mode string, startedAt time.Time) *Summary {
	return &Summary{
		RunID:     runID,
		Timestamp: startedAt.Format(TimestampLayout),
		StartedAt: startedAt,
		Mode:      mode,
	}
}

// Metric selects one statistic.
type Metric struct {
	Key   string
	Label string
	Get   func(*types.Statistics) float64
	// Compare marks metrics that get an improvement column.
	Compare bool
}

// Metrics lists the statistics rendered per query type.
var Metrics = []Metric{
	{Key: "mean", Label: "平均值", Get: func(s *types.Statistics) float64 { return s.Mean }, Compare: true},
	{Key: "median", Label: "中位数", Get: func(s *types.Statistics) float64 { return s.Median }, Compare: true},
	{Key: "min", Label: "最小值", Get: func(s *types.Statistics) float64 { return s.Min }},
	{Key: "max", Label: "最大值", Get: func(s *types.Statistics) float64 { return s.Max }},
	{Key: "p95", Label: "P95", Get: func(s *types.Statistics) float64 { return s.P95 }, Compare: true},
	{Key: "p99", Label: "P99", Get: func(s *types.Statistics) float64 { return s.P99 }},
	{Key: "stddev", Label: "标准差", Get: func(s *types.Statistics) float64 { return s.StdDev }},
}

// Improvement returns the signed IntDB improvement over InfluxDB for m.
// ok is false when either side has no data or the InfluxDB value is 0.
func Improvement(cmp types.QueryComparison, m Metric) (float64, bool) {
	a, b := stats(cmp.IntDB), stats(cmp.InfluxDB)
	if a == nil || b == nil {
		return 0, false
	}
	return metrics.Improvement(m.Get(a), m.Get(b))
}

func stats(r *types.QueryResult) *types.Statistics {
	if r == nil {
		return nil
	}
	return r.Stats
}
