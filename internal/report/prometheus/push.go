// Package prometheus pushes the final benchmark statistics to a Prometheus Pushgateway.
package prometheus

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/lzhtan/intdb-bench/internal/report"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Config holds configuration for the Pushgateway exporter.
type Config struct {
	// PushGatewayURL is the URL of the Prometheus Pushgateway. Empty disables the push.
	PushGatewayURL string `yaml:"push_gateway_url" env:"IB_PUSHGATEWAY_URL"`
	// JobName is the job name for metrics.
	JobName string `yaml:"job_name"`
}

// DefaultConfig returns the default Pushgateway configuration.
func DefaultConfig() *Config {
	return &Config{JobName: "intdb_bench"}
}

// Collectors holds the gauges filled from a run summary.
type Collectors struct {
	Registry     *prometheus.Registry
	QueryLatency *prometheus.GaugeVec
	SuccessRate  *prometheus.GaugeVec
	Improvement  *prometheus.GaugeVec
	WriteTotal   *prometheus.GaugeVec
	Throughput   prometheus.Gauge
}

// NewCollectors creates gauges registered on a private registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		QueryLatency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intdb_bench_query_latency_ms",
				Help: "Query latency statistic in milliseconds",
			},
			[]string{"backend", "query_type", "stat"},
		),
		SuccessRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intdb_bench_query_success_ratio",
				Help: "Successful query invocations divided by attempts",
			},
			[]string{"backend", "query_type"},
		),
		Improvement: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intdb_bench_improvement_percent",
				Help: "Relative IntDB improvement over InfluxDB",
			},
			[]string{"query_type", "stat"},
		),
		WriteTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "intdb_bench_write_total",
				Help: "Write counters at the end of the ingestion phase",
			},
			[]string{"backend", "status"},
		),
		Throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "intdb_bench_write_records_per_second",
			Help: "Generated records per second during ingestion",
		}),
	}
	c.Registry.MustRegister(c.QueryLatency, c.SuccessRate, c.Improvement, c.WriteTotal, c.Throughput)
	return c
}

// Observe fills the gauges from s.
func (c *Collectors) Observe(s *report.Summary) {
	if w := s.Write; w != nil {
		c.WriteTotal.WithLabelValues(string(types.BackendIntDB), "success").Set(float64(w.Counters.IntDBSuccess))
		c.WriteTotal.WithLabelValues(string(types.BackendIntDB), "error").Set(float64(w.Counters.IntDBErrors))
		c.WriteTotal.WithLabelValues(string(types.BackendInfluxDB), "success").Set(float64(w.Counters.InfluxDBSuccess))
		c.WriteTotal.WithLabelValues(string(types.BackendInfluxDB), "error").Set(float64(w.Counters.InfluxDBErrors))
		c.Throughput.Set(w.RecordsPerSec)
	}

	for _, cmp := range s.Queries {
		qt := string(cmp.QueryType)
		for _, r := range []*types.QueryResult{cmp.IntDB, cmp.InfluxDB} {
			if r == nil {
				continue
			}
			c.SuccessRate.WithLabelValues(string(r.Backend), qt).Set(r.SuccessRate())
			if r.Stats == nil {
				continue
			}
			c.QueryLatency.WithLabelValues(string(r.Backend), qt, "mean").Set(r.Stats.Mean)
			c.QueryLatency.WithLabelValues(string(r.Backend), qt, "median").Set(r.Stats.Median)
			c.QueryLatency.WithLabelValues(string(r.Backend), qt, "p95").Set(r.Stats.P95)
			c.QueryLatency.WithLabelValues(string(r.Backend), qt, "p99").Set(r.Stats.P99)
		}
		for _, m := range report.Metrics {
			if !m.Compare {
				continue
			}
			if pct, ok := report.Improvement(cmp, m); ok {
				c.Improvement.WithLabelValues(qt, m.Key).Set(pct)
			}
		}
	}
}

// Push sends the summary to the configured Pushgateway grouped by run id.
func Push(ctx context.Context, cfg *Config, s *report.Summary) error {
	if cfg == nil || cfg.PushGatewayURL == "" {
		return nil
	}
	job := cfg.JobName
	if job == "" {
		job = DefaultConfig().JobName
	}

	c := NewCollectors()
	c.Observe(s)

	err := push.New(cfg.PushGatewayURL, job).
		Gatherer(c.Registry).
		Grouping("run_id", s.RunID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("推送指标到 Pushgateway 失败: %w", err)
	}
	return nil
}
