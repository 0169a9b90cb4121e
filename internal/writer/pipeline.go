package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/internal/generator"
	"github.com/lzhtan/intdb-bench/pkg/logger"
	"github.com/lzhtan/intdb-bench/pkg/metrics"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Pipeline 按批次生成遥测数据并同时写入所有后端。
type Pipeline struct {
	gen      *generator.Generator
	backends []backend.Backend
	workers  int

	counters *Counters
	latency  map[types.BackendName]*metrics.LatencyRecorder
}

// NewPipeline 创建写入流水线，backends 按提交顺序排列。
func NewPipeline(gen *generator.Generator, workers int, backends ...backend.Backend) *Pipeline {
	latency := make(map[types.BackendName]*metrics.LatencyRecorder, len(backends))
	for _, b := range backends {
		latency[b.Name()] = metrics.NewLatencyRecorder()
	}
	return &Pipeline{
		gen:      gen,
		backends: backends,
		workers:  workers,
		counters: &Counters{},
		latency:  latency,
	}
}

// Counters 返回写入计数器。
func (p *Pipeline) Counters() *Counters {
	return p.counters
}

// Run 写入 records 条记录，每批 batchSize 条。
// 批次依次处理：同一批次提交给所有后端后等待全部完成再进入下一批。
// ctx 取消时在批次之间停止，返回已完成部分的结果和 ctx 的错误；
// 已提交的批次会完整写完，不会因取消被计为错误。
func (p *Pipeline) Run(ctx context.Context, records, batchSize int) (*types.WritePhaseResult, error) {
	if records <= 0 {
		return nil, fmt.Errorf("记录数必须大于 0，当前为 %d", records)
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("批次大小必须大于 0，当前为 %d", batchSize)
	}

	p.counters.Reset()
	for _, r := range p.latency {
		r.Reset()
	}

	pool := NewPool(p.workers)
	defer pool.Close()
	wctx := context.WithoutCancel(ctx)

	ref := time.Now().UTC()
	start := time.Now()
	batches := (records + batchSize - 1) / batchSize
	completed := 0

	logger.Info("开始写入: 目标记录数 %d, 批次大小 %d, 批次数 %d", records, batchSize, batches)

	var runErr error
	for i := 0; i < batches; i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("写入被中断，已完成 %d/%d 条记录", completed, records)
			runErr = err
			break
		}

		size := batchSize
		if rest := records - completed; rest < size {
			size = rest
		}
		batch := p.gen.GenerateBatch(size, ref)

		dones := make([]<-chan struct{}, 0, len(p.backends))
		for _, b := range p.backends {
			dones = append(dones, pool.Submit(func() { p.send(wctx, b, batch) }))
		}
		Wait(dones...)

		prev := completed
		completed += size
		if crossedDecile(prev, completed, records) {
			p.logProgress(completed, records)
		}
	}

	elapsed := time.Since(start)
	result := &types.WritePhaseResult{
		Records:    completed,
		BatchSize:  batchSize,
		ElapsedSec: elapsed.Seconds(),
		Counters:   p.counters.Snapshot(),
		Latency:    make(map[types.BackendName]types.LatencySummary, len(p.latency)),
	}
	if elapsed > 0 {
		result.RecordsPerSec = float64(completed) / elapsed.Seconds()
	}
	for name, r := range p.latency {
		result.Latency[name] = r.Summary()
	}

	logger.Info("写入完成: 总耗时 %.2f 秒, 写入速度 %.0f 记录/秒", result.ElapsedSec, result.RecordsPerSec)
	return result, runErr
}

func (p *Pipeline) send(ctx context.Context, b backend.Backend, batch types.Batch) {
	res := b.Write(ctx, batch)
	p.counters.Add(b.Name(), res.Succeeded, res.Failed)
	if rec, ok := p.latency[b.Name()]; ok {
		for _, d := range res.Latencies {
			rec.Record(d)
		}
	}
	if res.Err != nil {
		logger.Debug("%s 批次写入存在错误: %v", b.Name().DisplayName(), res.Err)
	}
}

func (p *Pipeline) logProgress(completed, total int) {
	s := p.counters.Snapshot()
	logger.Info("进度: %d/%d (%.1f%%) - IntDB: %d 成功, %d 错误 - InfluxDB: %d 成功, %d 错误",
		completed, total, float64(completed)/float64(total)*100,
		s.IntDBSuccess, s.IntDBErrors, s.InfluxDBSuccess, s.InfluxDBErrors)
}

// crossedDecile reports whether moving from prev to cur completed records
// crosses a 10% boundary of total, or reaches total.
func crossedDecile(prev, cur, total int) bool {
	if cur >= total {
		return true
	}
	return cur*10/total > prev*10/total
}
