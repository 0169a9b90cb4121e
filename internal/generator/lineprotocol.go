package generator

import (
	"strconv"
	"strings"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Measurement names written to InfluxDB.
const (
	MeasurementHop     = "hop_metrics"
	MeasurementSummary = "flow_summary"
)

// HopLine encodes one hop as a hop_metrics point.
func HopLine(flowID string, h types.HopRecord) string {
	var b strings.Builder
	b.WriteString(MeasurementHop)
	b.WriteString(",flow_id=")
	b.WriteString(escapeTag(flowID))
	b.WriteString(",switch_id=")
	b.WriteString(escapeTag(h.SwitchID))
	b.WriteString(",hop_index=")
	b.WriteString(strconv.Itoa(h.HopIndex))
	b.WriteString(" delay_ns=")
	b.WriteString(strconv.FormatInt(h.DelayNs, 10))
	b.WriteString(",queue_util=")
	b.WriteString(formatFloat(h.QueueUtil))
	b.WriteString(",jitter_ns=")
	b.WriteString(strconv.FormatInt(h.JitterNs, 10))
	b.WriteString(",packet_loss=")
	b.WriteString(formatFloat(h.PacketLoss))
	b.WriteByte(' ')
	b.WriteString(strconv.FormatInt(h.Timestamp.UnixNano(), 10))
	return b.String()
}

// SummaryLine encodes a flow as a flow_summary point. The path field is the
// node list joined with " -> ".
func SummaryLine(f *types.FlowRecord) string {
	var b strings.Builder
	b.WriteString(MeasurementSummary)
	b.WriteString(",flow_id=")
	b.WriteString(escapeTag(f.FlowID))
	b.WriteString(" total_delay_ns=")
	b.WriteString(strconv.FormatInt(f.TotalDelayNs, 10))
	b.WriteString(",hop_count=")
	b.WriteString(strconv.Itoa(f.HopCount))
	b.WriteString(`,path="`)
	b.WriteString(escapeField(strings.Join(f.Path[:], " -> ")))
	b.WriteString(`" `)
	b.WriteString(strconv.FormatInt(f.Timestamp.UnixNano(), 10))
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeTag escapes a tag key or value for InfluxDB line protocol.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}

// escapeField escapes a string field value for InfluxDB line protocol.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
