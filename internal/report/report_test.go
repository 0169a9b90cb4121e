package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzhtan/intdb-bench/pkg/metrics"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

func result(name types.BackendName, qt types.QueryType, samples []float64, attempts int) *types.QueryResult {
	r := &types.QueryResult{
		Backend:   name,
		QueryType: qt,
		Samples:   samples,
		Successes: len(samples),
		Attempts:  attempts,
	}
	if s, err := metrics.Summarize(samples); err == nil {
		r.Stats = &s
	}
	return r
}

func sampleSummary() *Summary {
	s := NewSummary("run-1", "full", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	s.Write = &types.WritePhaseResult{
		Records:       100,
		BatchSize:     10,
		ElapsedSec:    2,
		RecordsPerSec: 50,
		Counters: types.WriteStats{
			IntDBSuccess:    98,
			IntDBErrors:     2,
			InfluxDBSuccess: 500,
		},
		Latency: map[types.BackendName]types.LatencySummary{
			types.BackendIntDB: {Requests: 100, MeanMs: 1.5, P50Ms: 1.2, P99Ms: 4},
		},
	}
	s.Queries = []types.QueryComparison{
		{
			QueryType: types.QueryPathReconstruction,
			IntDB:     result(types.BackendIntDB, types.QueryPathReconstruction, []float64{1, 2, 3}, 3),
			InfluxDB:  result(types.BackendInfluxDB, types.QueryPathReconstruction, []float64{4, 4, 4}, 4),
		},
		{
			QueryType: types.QueryPathPattern,
			IntDB:     result(types.BackendIntDB, types.QueryPathPattern, []float64{5}, 2),
			InfluxDB:  result(types.BackendInfluxDB, types.QueryPathPattern, nil, 2),
		},
	}
	s.IntDBInfo = map[string]any{"total_flows": 100}
	return s
}

func TestImprovement(t *testing.T) {
	s := sampleSummary()

	pct, ok := Improvement(s.Queries[0], Metrics[0])
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct, 1e-9)

	_, ok = Improvement(s.Queries[1], Metrics[0])
	assert.False(t, ok)

	zero := types.QueryComparison{
		IntDB:    result(types.BackendIntDB, "", []float64{1}, 1),
		InfluxDB: result(types.BackendInfluxDB, "", []float64{0}, 1),
	}
	_, ok = Improvement(zero, Metrics[0])
	assert.False(t, ok)
}

func TestFormatImprovement(t *testing.T) {
	assert.Equal(t, "+50.0%", FormatImprovement(50, true))
	assert.Equal(t, "-12.5%", FormatImprovement(-12.5, true))
	assert.Equal(t, "-", FormatImprovement(0, false))
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleSummary())

	assert.Contains(t, md, "# IntDB vs InfluxDB 性能分析报告")
	assert.Contains(t, md, "run-1")
	assert.Contains(t, md, "## 数据写入")
	assert.Contains(t, md, "| IntDB | 98 | 2 | 100 |")
	assert.Contains(t, md, "- total_flows: 100")
	assert.Contains(t, md, "### 路径重构 (`path_reconstruction`)")
	assert.Contains(t, md, "| 平均值 (ms) | 2.000 | 4.000 | +50.0% |")
	assert.Contains(t, md, "| 成功率 | 100.0% (3/3) | 75.0% (3/4) | |")
	assert.Contains(t, md, "### 路径模式匹配 (`path_pattern`)")
	assert.Contains(t, md, "| 平均值 (ms) | 5.000 | - | - |")
	assert.Contains(t, md, "| 成功率 | 50.0% (1/2) | 0.0% (0/2) | |")
	assert.Contains(t, md, "- 路径重构: IntDB 平均延迟低 50.0%")
	assert.Contains(t, md, "- 路径模式匹配: 数据不足，无法比较")

	// improvement only for mean, median and p95
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "| 最小值") || strings.HasPrefix(line, "| P99") {
			assert.True(t, strings.HasSuffix(line, "|  |"), line)
		}
	}
}

func TestRenderMarkdown_QueryOnly(t *testing.T) {
	s := sampleSummary()
	s.Write = nil
	s.IntDBInfo = nil
	md := RenderMarkdown(s)
	assert.NotContains(t, md, "## 数据写入")
	assert.NotContains(t, md, "服务端统计")
	assert.Contains(t, md, "## 查询性能")
}

func TestPrintConsole(t *testing.T) {
	var buf bytes.Buffer
	PrintConsole(&buf, sampleSummary())

	out := buf.String()
	assert.Contains(t, out, "运行 ID: run-1")
	assert.Contains(t, out, "IntDB:    ✓ 98  ✗ 2")
	assert.Contains(t, out, "路径重构:")
	assert.Contains(t, out, "平均延迟提升: +50.0%")
	assert.Contains(t, out, "无成功样本")
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := sampleSummary()

	art, err := Save(dir, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "performance_test_results_20250304_050607.json"), art.JSONPath)
	assert.Equal(t, filepath.Join(dir, "performance_analysis_report_20250304_050607.md"), art.MarkdownPath)
	assert.Len(t, art.Paths(), 2)

	data, err := os.ReadFile(art.JSONPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, decoded, "write")
	assert.Contains(t, decoded, "queries")

	md, err := os.ReadFile(art.MarkdownPath)
	require.NoError(t, err)
	assert.Equal(t, RenderMarkdown(s), string(md))
}

func TestSave_Failure(t *testing.T) {
	// a regular file where the directory should be
	file := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	s := sampleSummary()
	art, err := Save(file, s)
	assert.Error(t, err)
	assert.Empty(t, art.Paths())

	// in-memory results are still intact
	assert.NotEmpty(t, RenderMarkdown(s))
}
