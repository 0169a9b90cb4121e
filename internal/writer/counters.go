// Package writer 负责将生成的批次并发写入两个后端并统计结果。
package writer

import (
	"sync"

	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Counters 写入计数器，四个计数共用一把锁。
type Counters struct {
	mu              sync.Mutex
	intdbSuccess    int64
	intdbErrors     int64
	influxdbSuccess int64
	influxdbErrors  int64
}

// Add 累加指定后端的成功与失败数，负数增量被忽略。
func (c *Counters) Add(name types.BackendName, succeeded, failed int64) {
	if succeeded < 0 {
		succeeded = 0
	}
	if failed < 0 {
		failed = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch name {
	case types.BackendIntDB:
		c.intdbSuccess += succeeded
		c.intdbErrors += failed
	case types.BackendInfluxDB:
		c.influxdbSuccess += succeeded
		c.influxdbErrors += failed
	}
}

// Reset 清零所有计数。
func (c *Counters) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intdbSuccess, c.intdbErrors = 0, 0
	c.influxdbSuccess, c.influxdbErrors = 0, 0
}

// Snapshot 返回当前计数的一致快照。
func (c *Counters) Snapshot() types.WriteStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.WriteStats{
		IntDBSuccess:    c.intdbSuccess,
		IntDBErrors:     c.intdbErrors,
		InfluxDBSuccess: c.influxdbSuccess,
		InfluxDBErrors:  c.influxdbErrors,
	}
}
