// Package querybench 对两个后端执行查询延迟基准测试。
//
// 每种查询先对每个后端做若干次不计时的预热，然后按迭代交替执行
// IntDB 与 InfluxDB 查询并记录耗时（毫秒）。
package querybench

import (
	"context"
	"strconv"
	"time"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/pkg/logger"
	"github.com/lzhtan/intdb-bench/pkg/metrics"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

const (
	// DefaultIterations 每种查询的计时迭代次数
	DefaultIterations = 20
	// DefaultWarmup 每个后端的预热次数
	DefaultWarmup = 3
	// DefaultWindowMinutes 路径聚合查询的时间窗口
	DefaultWindowMinutes = 60

	progressEvery = 5
)

// ParamSource 提供查询参数。
type ParamSource interface {
	RandomFlowID() string
	RandomSwitch() string
}

// Sample 是一次计时调用的记录。
type Sample struct {
	Backend   types.BackendName
	QueryType types.QueryType
	Iteration int
	Param     string
	ElapsedMs float64
	Success   bool
	Rows      int
	Error     string
}

// Options 查询基准参数
type Options struct {
	Iterations    int
	Warmup        int
	WindowMinutes int
}

// Runner 依次执行各类查询基准。
type Runner struct {
	a, b    backend.Backend
	params  ParamSource
	opts    Options
	samples []Sample
	now     func() time.Time
}

// NewRunner 创建查询基准执行器，a 在每次迭代中先于 b 执行。
func NewRunner(a, b backend.Backend, params ParamSource, opts Options) *Runner {
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.Warmup < 0 {
		opts.Warmup = 0
	}
	if opts.WindowMinutes <= 0 {
		opts.WindowMinutes = DefaultWindowMinutes
	}
	return &Runner{a: a, b: b, params: params, opts: opts, now: time.Now}
}

// Samples 返回所有计时调用的明细。
func (r *Runner) Samples() []Sample {
	return r.samples
}

// RunAll 按固定顺序执行全部查询类型。ctx 取消时返回已完成的结果和 ctx 的错误。
func (r *Runner) RunAll(ctx context.Context) ([]types.QueryComparison, error) {
	out := make([]types.QueryComparison, 0, len(types.AllQueryTypes))
	for _, qt := range types.AllQueryTypes {
		cmp, err := r.Run(ctx, qt)
		if cmp != nil {
			out = append(out, *cmp)
		}
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// Run 执行一种查询的预热与计时迭代。
// ctx 只在迭代之间检查，已发出的查询不会因取消而被计为失败。
func (r *Runner) Run(ctx context.Context, qt types.QueryType) (*types.QueryComparison, error) {
	qctx := context.WithoutCancel(ctx)
	param := r.fixedParam(qt)
	logger.Info("开始 %s 查询测试 (%d 次迭代)", qt.Title(), r.opts.Iterations)

	for i := 0; i < r.opts.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.paramFor(qt, param)
		_, _ = r.a.Query(qctx, qt, p)
		_, _ = r.b.Query(qctx, qt, p)
	}

	resA := &types.QueryResult{Backend: r.a.Name(), QueryType: qt, Param: param}
	resB := &types.QueryResult{Backend: r.b.Name(), QueryType: qt, Param: param}
	cmp := &types.QueryComparison{QueryType: qt}
	assign(cmp, resA)
	assign(cmp, resB)

	var runErr error
	for i := 0; i < r.opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("%s 查询测试被中断，已完成 %d/%d 次迭代", qt.Title(), i, r.opts.Iterations)
			runErr = err
			break
		}

		p := r.paramFor(qt, param)
		r.measure(qctx, r.a, qt, p, i, resA)
		r.measure(qctx, r.b, qt, p, i, resB)

		if (i+1)%progressEvery == 0 {
			logger.Info("  %s 进度: %d/%d", qt.Title(), i+1, r.opts.Iterations)
		}
	}

	finalize(resA)
	finalize(resB)
	return cmp, runErr
}

func (r *Runner) measure(ctx context.Context, b backend.Backend, qt types.QueryType, param string, iter int, res *types.QueryResult) {
	start := r.now()
	body, err := b.Query(ctx, qt, param)
	elapsed := float64(r.now().Sub(start).Nanoseconds()) / float64(time.Millisecond)

	res.Attempts++
	s := Sample{
		Backend:   b.Name(),
		QueryType: qt,
		Iteration: iter,
		Param:     param,
		ElapsedMs: elapsed,
		Rows:      -1,
	}
	if err != nil || body == nil {
		if err != nil {
			s.Error = err.Error()
			logger.Debug("%s %s 查询失败: %v", b.Name().DisplayName(), qt, err)
		}
		r.samples = append(r.samples, s)
		return
	}

	res.Successes++
	res.Samples = append(res.Samples, elapsed)
	s.Success = true
	s.Rows = backend.CountRows(b, body)
	r.samples = append(r.samples, s)
}

// fixedParam 返回整轮迭代共享的参数；路径重构每次迭代重新生成。
func (r *Runner) fixedParam(qt types.QueryType) string {
	switch qt {
	case types.QueryPathPattern:
		return r.params.RandomSwitch()
	case types.QueryPathAggregation:
		return strconv.Itoa(r.opts.WindowMinutes)
	default:
		return ""
	}
}

func (r *Runner) paramFor(qt types.QueryType, fixed string) string {
	if qt == types.QueryPathReconstruction {
		return r.params.RandomFlowID()
	}
	return fixed
}

func assign(cmp *types.QueryComparison, res *types.QueryResult) {
	switch res.Backend {
	case types.BackendIntDB:
		cmp.IntDB = res
	case types.BackendInfluxDB:
		cmp.InfluxDB = res
	}
}

func finalize(res *types.QueryResult) {
	stats, err := metrics.Summarize(res.Samples)
	if err != nil {
		return
	}
	res.Stats = &stats
}
