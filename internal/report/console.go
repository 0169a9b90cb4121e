package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

const ruleWidth = 60

// PrintConsole writes the terminal report to w.
func PrintConsole(w io.Writer, s *Summary) {
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "  IntDB vs InfluxDB 性能测试结果")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "运行 ID: %s\n", s.RunID)

	if s.Write != nil {
		c := s.Write.Counters
		fmt.Fprintln(w)
		fmt.Fprintf(w, "写入 %d 条记录，耗时 %.2f 秒 (%.0f 记录/秒)\n",
			s.Write.Records, s.Write.ElapsedSec, s.Write.RecordsPerSec)
		fmt.Fprintf(w, "  IntDB:    ✓ %d  ✗ %d\n", c.IntDBSuccess, c.IntDBErrors)
		fmt.Fprintf(w, "  InfluxDB: ✓ %d  ✗ %d\n", c.InfluxDBSuccess, c.InfluxDBErrors)
	}

	for _, cmp := range s.Queries {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", cmp.QueryType.Title())
		printBackend(w, "IntDB", cmp.IntDB)
		printBackend(w, "InfluxDB", cmp.InfluxDB)
		pct, ok := Improvement(cmp, Metrics[0])
		fmt.Fprintf(w, "  平均延迟提升: %s\n", FormatImprovement(pct, ok))
	}
	fmt.Fprintln(w, rule)
}

func printBackend(w io.Writer, name string, r *types.QueryResult) {
	if r == nil || r.Stats == nil {
		fmt.Fprintf(w, "  %-9s 无成功样本 (成功率 %s)\n", name+":", rate(r))
		return
	}
	s := r.Stats
	fmt.Fprintf(w, "  %-9s 平均 %.2fms  中位数 %.2fms  P95 %.2fms  成功率 %s\n",
		name+":", s.Mean, s.Median, s.P95, rate(r))
}
