// Package generator produces synthetic spine-leaf network telemetry.
package generator

import (
	"fmt"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Topology describes the node pools of a two-tier spine-leaf fabric.
type Topology struct {
	Hosts  []string
	Leaves []string
	Spines []string
}

// DefaultTopology returns 32 hosts, 8 leaf switches and 4 spine switches.
func DefaultTopology() Topology {
	return NewTopology(32, 8, 4)
}

// NewTopology builds pools named server-N, leaf-N and spine-N starting at 1.
func NewTopology(hosts, leaves, spines int) Topology {
	return Topology{
		Hosts:  names("server", hosts),
		Leaves: names("leaf", leaves),
		Spines: names("spine", spines),
	}
}

// Switches returns every spine and leaf switch.
func (t Topology) Switches() []string {
	out := make([]string, 0, len(t.Spines)+len(t.Leaves))
	out = append(out, t.Spines...)
	out = append(out, t.Leaves...)
	return out
}

// Validate checks that distinct endpoints can be drawn from the pools.
func (t Topology) Validate() error {
	if len(t.Hosts) < 2 {
		return fmt.Errorf("主机数量至少为 2，当前为 %d", len(t.Hosts))
	}
	if len(t.Leaves) < 2 {
		return fmt.Errorf("leaf 交换机数量至少为 2，当前为 %d", len(t.Leaves))
	}
	if len(t.Spines) < 1 {
		return fmt.Errorf("spine 交换机数量至少为 1")
	}
	return nil
}

func names(prefix string, n int) []string {
	out := make([]string, max(n, 0))
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}

// pickExcluding draws from pool after removing exclude. The pool must hold
// at least one other element.
func pickExcluding(intn func(int) int, pool []string, exclude string) string {
	candidates := make([]string, 0, len(pool))
	for _, p := range pool {
		if p != exclude {
			candidates = append(candidates, p)
		}
	}
	return candidates[intn(len(candidates))]
}

func buildPath(intn func(int) int, t Topology) types.NetworkPath {
	srcHost := t.Hosts[intn(len(t.Hosts))]
	dstHost := pickExcluding(intn, t.Hosts, srcHost)
	srcLeaf := t.Leaves[intn(len(t.Leaves))]
	dstLeaf := pickExcluding(intn, t.Leaves, srcLeaf)
	spine := t.Spines[intn(len(t.Spines))]
	return types.NetworkPath{srcHost, srcLeaf, spine, dstLeaf, dstHost}
}
