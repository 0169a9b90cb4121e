package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// RenderMarkdown renders the human-readable comparison document.
func RenderMarkdown(s *Summary) string {
	var b strings.Builder

	b.WriteString("# IntDB vs InfluxDB 性能分析报告\n\n")
	fmt.Fprintf(&b, "- 运行 ID: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- 开始时间: %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- 模式: %s\n\n", s.Mode)

	if s.Write != nil {
		writeSection(&b, s.Write)
	}
	if len(s.IntDBInfo) > 0 {
		statsSection(&b, s.IntDBInfo)
	}

	if len(s.Queries) > 0 {
		b.WriteString("## 查询性能\n\n")
		b.WriteString("提升百分比 = (InfluxDB - IntDB) / InfluxDB × 100，正值表示 IntDB 更快。\n\n")
		for _, cmp := range s.Queries {
			querySection(&b, cmp)
		}
		conclusion(&b, s.Queries)
	}

	return b.String()
}

func writeSection(b *strings.Builder, w *types.WritePhaseResult) {
	b.WriteString("## 数据写入\n\n")
	fmt.Fprintf(b, "- 记录数: %d (批次大小 %d)\n", w.Records, w.BatchSize)
	fmt.Fprintf(b, "- 总耗时: %.2f 秒\n", w.ElapsedSec)
	fmt.Fprintf(b, "- 写入速度: %.0f 记录/秒\n\n", w.RecordsPerSec)

	b.WriteString("| 后端 | 成功 | 错误 | 请求数 | 平均延迟 (ms) | P50 (ms) | P99 (ms) |\n")
	b.WriteString("|------|------|------|--------|---------------|----------|----------|\n")
	rows := []struct {
		name    types.BackendName
		ok, err int64
	}{
		{types.BackendIntDB, w.Counters.IntDBSuccess, w.Counters.IntDBErrors},
		{types.BackendInfluxDB, w.Counters.InfluxDBSuccess, w.Counters.InfluxDBErrors},
	}
	for _, r := range rows {
		l := w.Latency[r.name]
		fmt.Fprintf(b, "| %s | %d | %d | %d | %.3f | %.3f | %.3f |\n",
			r.name.DisplayName(), r.ok, r.err, l.Requests, l.MeanMs, l.P50Ms, l.P99Ms)
	}
	b.WriteString("\nIntDB 按流记录计数，InfluxDB 按 hop_metrics 数据点计数（flow_summary 不计入）。\n\n")
}

func statsSection(b *strings.Builder, info map[string]any) {
	b.WriteString("## IntDB 服务端统计\n\n")
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %v\n", k, info[k])
	}
	b.WriteString("\n")
}

func querySection(b *strings.Builder, cmp types.QueryComparison) {
	fmt.Fprintf(b, "### %s (`%s`)\n\n", cmp.QueryType.Title(), cmp.QueryType)
	b.WriteString("| 指标 | IntDB | InfluxDB | 提升 |\n")
	b.WriteString("|------|-------|----------|------|\n")

	a, bs := stats(cmp.IntDB), stats(cmp.InfluxDB)
	for _, m := range Metrics {
		imp := ""
		if m.Compare {
			imp = FormatImprovement(Improvement(cmp, m))
		}
		fmt.Fprintf(b, "| %s (ms) | %s | %s | %s |\n", m.Label, value(a, m), value(bs, m), imp)
	}
	fmt.Fprintf(b, "| 成功率 | %s | %s | |\n\n", rate(cmp.IntDB), rate(cmp.InfluxDB))
}

func conclusion(b *strings.Builder, queries []types.QueryComparison) {
	b.WriteString("## 总结\n\n")
	mean := Metrics[0]
	for _, cmp := range queries {
		pct, ok := Improvement(cmp, mean)
		switch {
		case !ok:
			fmt.Fprintf(b, "- %s: 数据不足，无法比较\n", cmp.QueryType.Title())
		case pct >= 0:
			fmt.Fprintf(b, "- %s: IntDB 平均延迟低 %.1f%%\n", cmp.QueryType.Title(), pct)
		default:
			fmt.Fprintf(b, "- %s: IntDB 平均延迟高 %.1f%%\n", cmp.QueryType.Title(), -pct)
		}
	}
	b.WriteString("\n")
}

// FormatImprovement renders a signed percentage, or "-" when not available.
func FormatImprovement(pct float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", pct)
}

func value(s *types.Statistics, m Metric) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", m.Get(s))
}

func rate(r *types.QueryResult) string {
	if r == nil || r.Attempts == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%d/%d)", r.SuccessRate()*100, r.Successes, r.Attempts)
}
