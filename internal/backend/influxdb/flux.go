package influxdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// BuildQuery renders the Flux query for a benchmark query type.
func BuildQuery(bucket string, qt types.QueryType, param string) (string, error) {
	switch qt {
	case types.QueryPathReconstruction:
		return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: -24h)
  |> filter(fn: (r) => r._measurement == "flow_summary")
  |> filter(fn: (r) => r.flow_id == "%s")
  |> limit(n: 1)`, quote(bucket), quote(param)), nil

	case types.QueryPathPattern:
		return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: -24h)
  |> filter(fn: (r) => r._measurement == "hop_metrics")
  |> filter(fn: (r) => r.switch_id == "%s")
  |> group(columns: ["flow_id"])
  |> limit(n: 50)`, quote(bucket), quote(param)), nil

	case types.QueryPathAggregation:
		minutes, err := strconv.Atoi(param)
		if err != nil || minutes <= 0 {
			return "", fmt.Errorf("无效的时间窗口分钟数: %q", param)
		}
		return fmt.Sprintf(`from(bucket: "%s")
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == "flow_summary")
  |> filter(fn: (r) => r._field == "total_delay_ns")
  |> group(columns: ["path"])
  |> mean()
  |> limit(n: 50)`, quote(bucket), minutes), nil

	default:
		return "", fmt.Errorf("不支持的查询类型: %s", qt)
	}
}

// quote escapes a value embedded in a Flux string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
