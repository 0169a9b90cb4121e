package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Value ranges of the synthetic telemetry.
const (
	minHopDelayNs  = 50
	maxHopDelayNs  = 1000
	minQueueUtil   = 0.01
	maxQueueUtil   = 0.98
	minJitterNs    = 1
	maxJitterNs    = 100
	maxPacketLoss  = 0.05
	maxFlowAgeSecs = 86400

	flowIDMin = 100000
	flowIDMax = 999999

	// Lookup ids reuse a small sequence range so that some of them hit ingested flows.
	lookupSeqMin = 100
	lookupSeqMax = 119
)

// Generator produces network paths and flow records. It is safe for concurrent use.
type Generator struct {
	topology Topology

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWithSeed creates a deterministic generator over the default topology.
func NewWithSeed(seed int64) *Generator {
	return newGenerator(DefaultTopology(), seed)
}

// NewWithTopology creates a deterministic generator over a custom topology.
// A seed of 0 seeds from the clock.
func NewWithTopology(topology Topology, seed int64) (*Generator, error) {
	if err := topology.Validate(); err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newGenerator(topology, seed), nil
}

func newGenerator(topology Topology, seed int64) *Generator {
	return &Generator{
		topology: topology,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// GeneratePath draws a path with distinct source/destination hosts and leaves.
func (g *Generator) GeneratePath() types.NetworkPath {
	g.mu.Lock()
	defer g.mu.Unlock()
	return buildPath(g.rng.Intn, g.topology)
}

// RandomFlowID returns a flow-id-shaped lookup key.
func (g *Generator) RandomFlowID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("flow_%d_%d", g.intRange(flowIDMin, flowIDMax), g.intRange(lookupSeqMin, lookupSeqMax))
}

// RandomSwitch returns a spine or leaf switch id.
func (g *Generator) RandomSwitch() string {
	switches := g.topology.Switches()
	g.mu.Lock()
	defer g.mu.Unlock()
	return switches[g.rng.Intn(len(switches))]
}

// GenerateFlows creates size flow records with timestamps up to 24h before ref.
func (g *Generator) GenerateFlows(size int, ref time.Time) []*types.FlowRecord {
	g.mu.Lock()
	defer g.mu.Unlock()

	flows := make([]*types.FlowRecord, 0, size)
	for i := 0; i < size; i++ {
		flows = append(flows, g.flow(i, ref))
	}
	return flows
}

// GenerateBatch creates size records encoded for both backends.
func (g *Generator) GenerateBatch(size int, ref time.Time) types.Batch {
	flows := g.GenerateFlows(size, ref)

	batch := types.Batch{
		Flows: make([]types.FlowDocument, 0, len(flows)),
		Lines: make([]string, 0, len(flows)*(types.PathLength+1)),
	}
	for _, f := range flows {
		batch.Flows = append(batch.Flows, types.FlowDocument{Flow: f})
		for _, h := range f.Hops {
			batch.Lines = append(batch.Lines, HopLine(f.FlowID, h))
		}
		batch.HopLines += len(f.Hops)
	}
	for _, f := range flows {
		batch.Lines = append(batch.Lines, SummaryLine(f))
	}
	return batch
}

// flow must be called with g.mu held.
func (g *Generator) flow(seq int, ref time.Time) *types.FlowRecord {
	path := buildPath(g.rng.Intn, g.topology)
	offset := time.Duration(g.intRange(0, maxFlowAgeSecs)) * time.Second
	ts := ref.UTC().Truncate(time.Second).Add(-offset)

	f := &types.FlowRecord{
		FlowID:    fmt.Sprintf("flow_%d_%d", g.intRange(flowIDMin, flowIDMax), seq),
		Path:      path,
		HopCount:  path.Len(),
		Hops:      make([]types.HopRecord, 0, path.Len()),
		Timestamp: ts,
	}
	for i, node := range path {
		hop := types.HopRecord{
			SwitchID:   node,
			HopIndex:   i,
			Timestamp:  ts,
			DelayNs:    int64(g.intRange(minHopDelayNs, maxHopDelayNs)),
			QueueUtil:  round(g.uniform(minQueueUtil, maxQueueUtil), 3),
			JitterNs:   int64(g.intRange(minJitterNs, maxJitterNs)),
			PacketLoss: round(g.uniform(0, maxPacketLoss), 4),
		}
		f.TotalDelayNs += hop.DelayNs
		f.Hops = append(f.Hops, hop)
	}
	return f
}

// intRange returns an int in [lo, hi].
func (g *Generator) intRange(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
