package types

// BackendName identifies one of the systems under comparison.
type BackendName string

const (
	// BackendIntDB is the flow-oriented telemetry store (backend A).
	BackendIntDB BackendName = "intdb"
	// BackendInfluxDB is the general-purpose time-series database (backend B).
	BackendInfluxDB BackendName = "influxdb"
)

// DisplayName returns the name used in reports.
func (b BackendName) DisplayName() string {
	switch b {
	case BackendIntDB:
		return "IntDB"
	case BackendInfluxDB:
		return "InfluxDB"
	default:
		return string(b)
	}
}

// QueryType is one of the representative benchmark queries.
type QueryType string

const (
	// QueryPathReconstruction looks up a single flow by id.
	QueryPathReconstruction QueryType = "path_reconstruction"
	// QueryPathPattern finds flows traversing a given switch.
	QueryPathPattern QueryType = "path_pattern"
	// QueryPathAggregation averages total delay per path over a recent window.
	QueryPathAggregation QueryType = "path_aggregation"
)

// AllQueryTypes lists the query types in execution order.
var AllQueryTypes = []QueryType{
	QueryPathReconstruction,
	QueryPathPattern,
	QueryPathAggregation,
}

// Title returns the report section title.
func (q QueryType) Title() string {
	switch q {
	case QueryPathReconstruction:
		return "路径重构"
	case QueryPathPattern:
		return "路径模式匹配"
	case QueryPathAggregation:
		return "路径聚合"
	default:
		return string(q)
	}
}

// Statistics summarizes a sequence of latency samples in milliseconds.
type Statistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// QueryResult holds the measurements of one query type against one backend.
type QueryResult struct {
	Backend   BackendName `json:"backend"`
	QueryType QueryType   `json:"query_type"`
	Param     string      `json:"param,omitempty"`
	// Samples holds elapsed times of successful invocations only.
	Samples   []float64   `json:"times"`
	Successes int         `json:"successes"`
	Attempts  int         `json:"attempts"`
	// Stats is nil when no invocation succeeded.
	Stats *Statistics `json:"stats"`
}

// SuccessRate returns successes / attempts, or 0 before any attempt.
func (r *QueryResult) SuccessRate() float64 {
	if r == nil || r.Attempts == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Attempts)
}

// QueryComparison pairs the results of both backends for one query type.
type QueryComparison struct {
	QueryType QueryType    `json:"query_type"`
	IntDB     *QueryResult `json:"intdb"`
	InfluxDB  *QueryResult `json:"influxdb"`
}

// WriteStats is a snapshot of the write counters.
type WriteStats struct {
	IntDBSuccess    int64 `json:"intdb_success"`
	IntDBErrors     int64 `json:"intdb_errors"`
	InfluxDBSuccess int64 `json:"influxdb_success"`
	InfluxDBErrors  int64 `json:"influxdb_errors"`
}

// LatencySummary reports write request latency percentiles in milliseconds.
type LatencySummary struct {
	Requests int64   `json:"requests"`
	MeanMs   float64 `json:"mean_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P99Ms    float64 `json:"p99_ms"`
	MaxMs    float64 `json:"max_ms"`
}

// WritePhaseResult describes the ingestion phase of a run.
type WritePhaseResult struct {
	Records       int                            `json:"records"`
	BatchSize     int                            `json:"batch_size"`
	ElapsedSec    float64                        `json:"elapsed_sec"`
	RecordsPerSec float64                        `json:"records_per_sec"`
	Counters      WriteStats                     `json:"counters"`
	Latency       map[BackendName]LatencySummary `json:"latency,omitempty"`
}
