// Package bench drives a complete comparison run: liveness probes, the write
// phase, the query phase and the artifacts.
package bench

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/internal/backend/influxdb"
	"github.com/lzhtan/intdb-bench/internal/backend/intdb"
	"github.com/lzhtan/intdb-bench/internal/config"
	"github.com/lzhtan/intdb-bench/internal/generator"
	"github.com/lzhtan/intdb-bench/internal/querybench"
	"github.com/lzhtan/intdb-bench/internal/report"
	"github.com/lzhtan/intdb-bench/internal/report/parquet"
	"github.com/lzhtan/intdb-bench/internal/report/prometheus"
	"github.com/lzhtan/intdb-bench/internal/report/s3"
	"github.com/lzhtan/intdb-bench/internal/writer"
	"github.com/lzhtan/intdb-bench/pkg/logger"
)

// Mode selects the phases of a run.
type Mode string

const (
	ModeFull      Mode = "full"
	ModeDataOnly  Mode = "data-only"
	ModeQueryOnly Mode = "query-only"
)

// exportTimeout bounds the optional exports after the run, even when the
// run context was canceled.
const exportTimeout = 30 * time.Second

// ParseMode 解析运行模式，空字符串表示完整模式。
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeDataOnly, ModeQueryOnly:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("未知的运行模式: %s", s)
	}
}

func (m Mode) writes() bool  { return m != ModeQueryOnly }
func (m Mode) queries() bool { return m != ModeDataOnly }

// Uploader copies finished artifacts to remote storage.
type Uploader interface {
	Upload(ctx context.Context, runID string, files ...string) ([]string, error)
}

// Runner 执行一次完整的对比测试。
type Runner struct {
	cfg      *config.Config
	a, b     backend.Backend
	gen      *generator.Generator
	out      io.Writer
	uploader Uploader
	now      func() time.Time
}

// New 根据配置创建 IntDB 与 InfluxDB 客户端。
func New(cfg *config.Config, out io.Writer) (*Runner, error) {
	return NewWithBackends(cfg, intdb.New(&cfg.IntDB), influxdb.New(&cfg.InfluxDB), out)
}

// NewWithBackends 使用给定的后端创建 Runner，a 为 IntDB，b 为 InfluxDB。
// 拓扑配置不合法时返回错误。
func NewWithBackends(cfg *config.Config, a, b backend.Backend, out io.Writer) (*Runner, error) {
	gen, err := generator.NewWithTopology(cfg.Bench.Topology(), cfg.Bench.Seed)
	if err != nil {
		return nil, fmt.Errorf("创建数据生成器失败: %w", err)
	}
	return &Runner{cfg: cfg, a: a, b: b, gen: gen, out: out, now: time.Now}, nil
}

// SetUploader overrides the S3 uploader built from the configuration.
func (r *Runner) SetUploader(u Uploader) {
	r.uploader = u
}

// Run 执行一次测试。任一后端健康检查失败时直接返回错误，不生成任何数据。
// ctx 取消时已完成部分仍会被保存和打印，并返回 ctx 的错误。
func (r *Runner) Run(ctx context.Context, mode Mode) (*report.Summary, error) {
	if err := r.preflight(ctx); err != nil {
		return nil, err
	}

	s := report.NewSummary(uuid.NewString(), string(mode), r.now())
	logger.Info("开始测试 run_id=%s 模式=%s", s.RunID, mode)

	runErr := r.execute(ctx, mode, s)
	if runErr != nil {
		logger.Warn("测试未完整结束: %v", runErr)
	}

	r.finish(ctx, s)
	return s, runErr
}

func (r *Runner) preflight(ctx context.Context) error {
	for _, b := range []backend.Backend{r.a, r.b} {
		if err := b.Ping(ctx); err != nil {
			return fmt.Errorf("%s 健康检查失败，请确认服务已启动: %w", b.Name().DisplayName(), err)
		}
		logger.Info("%s 健康检查通过", b.Name().DisplayName())
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, mode Mode, s *report.Summary) error {
	bc := r.cfg.Bench

	if mode.writes() {
		p := writer.NewPipeline(r.gen, bc.Workers, r.a, r.b)
		res, err := p.Run(ctx, bc.Records, bc.BatchSize)
		s.Write = res
		if err != nil {
			return err
		}
		s.IntDBInfo = r.intdbStats(ctx)
	}

	if mode.queries() {
		qr := querybench.NewRunner(r.a, r.b, r.gen, querybench.Options{
			Iterations:    bc.Iterations,
			Warmup:        bc.Warmup,
			WindowMinutes: bc.WindowMinutes,
		})
		cmps, err := qr.RunAll(ctx)
		s.Queries = cmps
		r.writeSamples(s, qr.Samples())
		if err != nil {
			return err
		}
	}
	return nil
}

// intdbStats 尽力获取 IntDB 服务端统计，失败只记录日志。
func (r *Runner) intdbStats(ctx context.Context) map[string]any {
	sp, ok := r.a.(backend.StatsProvider)
	if !ok {
		return nil
	}
	info, err := sp.Stats(ctx)
	if err != nil {
		logger.Warn("获取 IntDB 统计信息失败: %v", err)
		return nil
	}
	logger.Info("IntDB 统计信息: %v", info)
	return info
}

func (r *Runner) writeSamples(s *report.Summary, samples []querybench.Sample) {
	if !r.cfg.Output.Parquet || len(samples) == 0 {
		return
	}
	path, err := parquet.WriteSamples(r.cfg.Output.Dir, s.Timestamp, s.RunID, samples)
	if err != nil {
		logger.Error("写入查询明细失败: %v", err)
		return
	}
	s.SamplesPath = path
	logger.Info("查询明细已保存到: %s", path)
}

// finish 保存并打印报告，然后执行可选的导出。保存失败不影响终端输出。
func (r *Runner) finish(ctx context.Context, s *report.Summary) {
	art, err := report.Save(r.cfg.Output.Dir, s)
	if err != nil {
		logger.Error("保存测试结果失败: %v", err)
	}
	for _, p := range art.Paths() {
		logger.Info("结果已保存到: %s", p)
	}

	report.PrintConsole(r.out, s)

	ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
	defer cancel()

	if err := prometheus.Push(ectx, &r.cfg.Output.Prometheus, s); err != nil {
		logger.Error("%v", err)
	}

	files := art.Paths()
	if s.SamplesPath != "" {
		files = append(files, s.SamplesPath)
	}
	r.upload(ectx, s.RunID, files)
}

func (r *Runner) upload(ctx context.Context, runID string, files []string) {
	if len(files) == 0 {
		return
	}
	u := r.uploader
	if u == nil {
		if !r.cfg.Output.S3.Enabled() {
			return
		}
		su, err := s3.New(ctx, &r.cfg.Output.S3)
		if err != nil {
			logger.Error("创建 S3 客户端失败: %v", err)
			return
		}
		u = su
	}
	if _, err := u.Upload(ctx, runID, files...); err != nil {
		logger.Error("上传结果失败: %v", err)
	}
}
