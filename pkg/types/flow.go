// Package types defines the data model shared by the generator, the backends and the reports.
package types

import "time"

// PathLength is the fixed number of nodes in a spine-leaf route.
const PathLength = 5

// NetworkPath is a route [src-host, src-leaf, spine, dst-leaf, dst-host].
type NetworkPath [PathLength]string

// Len returns the number of nodes on the path.
func (p NetworkPath) Len() int { return len(p) }

// HopRecord is one per-hop telemetry measurement.
type HopRecord struct {
	SwitchID   string    `json:"switch_id"`
	HopIndex   int       `json:"hop_index"`
	Timestamp  time.Time `json:"timestamp"`
	DelayNs    int64     `json:"delay_ns"`
	QueueUtil  float64   `json:"queue_util"`
	JitterNs   int64     `json:"jitter_ns"`
	PacketLoss float64   `json:"packet_loss"`
}

// FlowRecord aggregates the hops of one synthetic flow.
type FlowRecord struct {
	FlowID       string      `json:"flow_id"`
	Path         NetworkPath `json:"path"`
	TotalDelayNs int64       `json:"total_delay_ns"`
	HopCount     int         `json:"hop_count"`
	Hops         []HopRecord `json:"telemetry"`

	// Timestamp is shared by every hop of the flow.
	Timestamp time.Time `json:"-"`
}

// FlowDocument is the request body accepted by IntDB's POST /flows.
type FlowDocument struct {
	Flow *FlowRecord `json:"flow"`
}

// Batch carries one generated batch in both backend encodings.
type Batch struct {
	// Flows is the structured encoding, one document per flow.
	Flows []FlowDocument
	// Lines is the line protocol encoding: one hop_metrics line per hop
	// followed by one flow_summary line per flow.
	Lines []string
	// HopLines is the number of hop_metrics lines in Lines.
	HopLines int
}

// Size returns the number of flows in the batch.
func (b Batch) Size() int { return len(b.Flows) }
