package influxdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

func TestBuildQuery(t *testing.T) {
	q, err := BuildQuery("bench", types.QueryPathReconstruction, "flow_123456_101")
	require.NoError(t, err)
	assert.Contains(t, q, `from(bucket: "bench")`)
	assert.Contains(t, q, "range(start: -24h)")
	assert.Contains(t, q, `r._measurement == "flow_summary"`)
	assert.Contains(t, q, `r.flow_id == "flow_123456_101"`)
	assert.Contains(t, q, "limit(n: 1)")

	q, err = BuildQuery("bench", types.QueryPathPattern, "leaf-2")
	require.NoError(t, err)
	assert.Contains(t, q, `r._measurement == "hop_metrics"`)
	assert.Contains(t, q, `group(columns: ["flow_id"])`)
	assert.Contains(t, q, "limit(n: 50)")

	q, err = BuildQuery("bench", types.QueryPathAggregation, "60")
	require.NoError(t, err)
	assert.Contains(t, q, "range(start: -60m)")
	assert.Contains(t, q, `r._field == "total_delay_ns"`)
	assert.Contains(t, q, `group(columns: ["path"])`)
	assert.Contains(t, q, "mean()")
}

func TestBuildQuery_Invalid(t *testing.T) {
	_, err := BuildQuery("bench", types.QueryPathAggregation, "soon")
	assert.Error(t, err)
	_, err = BuildQuery("bench", types.QueryPathAggregation, "0")
	assert.Error(t, err)
	_, err = BuildQuery("bench", "bogus", "")
	assert.Error(t, err)
}

func TestBuildQuery_Quotes(t *testing.T) {
	q, err := BuildQuery("bench", types.QueryPathPattern, `x" or true`)
	require.NoError(t, err)
	assert.Contains(t, q, `r.switch_id == "x\" or true"`)
}
