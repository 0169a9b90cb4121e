package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhtan/intdb-bench/internal/report"
	"github.com/lzhtan/intdb-bench/pkg/metrics"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

func summary() *report.Summary {
	s := report.NewSummary("run-42", "full", time.Now())
	s.Write = &types.WritePhaseResult{
		RecordsPerSec: 120,
		Counters:      types.WriteStats{IntDBSuccess: 10, InfluxDBSuccess: 50, InfluxDBErrors: 5},
	}
	statsA, _ := metrics.Summarize([]float64{1, 1})
	statsB, _ := metrics.Summarize([]float64{4, 4})
	s.Queries = []types.QueryComparison{{
		QueryType: types.QueryPathPattern,
		IntDB:     &types.QueryResult{Backend: types.BackendIntDB, Samples: []float64{1, 1}, Successes: 2, Attempts: 2, Stats: &statsA},
		InfluxDB:  &types.QueryResult{Backend: types.BackendInfluxDB, Samples: []float64{4, 4}, Successes: 2, Attempts: 4, Stats: &statsB},
	}}
	return s
}

func TestCollectors_Observe(t *testing.T) {
	c := NewCollectors()
	c.Observe(summary())

	assert.Equal(t, 10.0, testutil.ToFloat64(c.WriteTotal.WithLabelValues("intdb", "success")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.WriteTotal.WithLabelValues("influxdb", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(c.Throughput))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.QueryLatency.WithLabelValues("influxdb", "path_pattern", "mean")))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.SuccessRate.WithLabelValues("influxdb", "path_pattern")))
	assert.Equal(t, 75.0, testutil.ToFloat64(c.Improvement.WithLabelValues("path_pattern", "mean")))
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := Push(context.Background(), &Config{PushGatewayURL: srv.URL, JobName: "bench"}, summary())
	require.NoError(t, err)
	assert.Equal(t, "/metrics/job/bench/run_id/run-42", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_Disabled(t *testing.T) {
	assert.NoError(t, Push(context.Background(), nil, summary()))
	assert.NoError(t, Push(context.Background(), &Config{}, summary()))
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(context.Background(), &Config{PushGatewayURL: srv.URL}, summary())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Pushgateway"))
}
