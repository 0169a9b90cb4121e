// Package backend defines the capability interface shared by the benchmarked databases.
package backend

import (
	"context"
	"time"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// DefaultTimeout bounds every data request.
const DefaultTimeout = 10 * time.Second

// PingTimeout bounds liveness probes.
const PingTimeout = 5 * time.Second

// WriteResult is the outcome of writing one batch to a backend.
type WriteResult struct {
	// Succeeded and Failed are counter increments. Their meaning per record
	// or per point is defined by the backend.
	Succeeded int64
	Failed    int64
	// Latencies holds the duration of every completed HTTP request.
	Latencies []time.Duration
	// Err is the last failure, if any.
	Err error
}

// Backend is a database under benchmark.
type Backend interface {
	// Name returns the backend identifier.
	Name() types.BackendName
	// Write ingests a batch. Failures are reported through the result.
	Write(ctx context.Context, batch types.Batch) WriteResult
	// Query runs one of the benchmark queries and returns the raw response body.
	Query(ctx context.Context, qt types.QueryType, param string) ([]byte, error)
	// Ping checks liveness.
	Ping(ctx context.Context) error
}

// RowCounter is implemented by backends that can count result rows in a query response.
type RowCounter interface {
	CountRows(body []byte) int
}

// StatsProvider is implemented by backends that expose server-side statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (map[string]any, error)
}

// CountRows returns the number of result rows in body, or -1 when b cannot count them.
func CountRows(b Backend, body []byte) int {
	if rc, ok := b.(RowCounter); ok {
		return rc.CountRows(body)
	}
	return -1
}
