package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lzhtan/intdb-bench/internal/bench"
	"github.com/lzhtan/intdb-bench/internal/config"
	"github.com/lzhtan/intdb-bench/pkg/logger"
)

var (
	// run 命令的 flags
	runDataOnly   bool
	runQueryOnly  bool
	runRecords    int
	runBatchSize  int
	runIterations int
	runWorkers    int
	runOutputDir  string
	runParquet    bool
)

// flagPaths 把命令行 flag 映射到配置路径
var flagPaths = map[string]string{
	"records":    "bench.records",
	"batch-size": "bench.batch_size",
	"iterations": "bench.iterations",
	"workers":    "bench.workers",
	"output-dir": "output.dir",
	"parquet":    "output.parquet",
}

// runCmd 是 run 子命令
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行 IntDB 与 InfluxDB 对比测试",
	Long: `生成合成网络遥测数据并同时写入 IntDB 和 InfluxDB，然后对两者执行
路径重构、路径模式匹配和路径聚合三类查询的延迟测试。

运行前会检查两个服务的健康状态，任一不可用时直接退出。`,
	Example: `  # 完整测试
  intdb-bench run

  # 只写入数据
  intdb-bench run --data-only --records 50000

  # 只测试查询，每类查询 50 次迭代
  intdb-bench run --query-only --iterations 50

  # 使用配置文件
  intdb-bench run --config bench.yaml --batch-size 200`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDataOnly, "data-only", false, "只执行数据写入")
	runCmd.Flags().BoolVar(&runQueryOnly, "query-only", false, "只执行查询测试")
	runCmd.Flags().IntVarP(&runRecords, "records", "n", 0, "写入的记录数 (覆盖配置)")
	runCmd.Flags().IntVarP(&runBatchSize, "batch-size", "b", 0, "每批记录数 (覆盖配置)")
	runCmd.Flags().IntVarP(&runIterations, "iterations", "i", 0, "每类查询的计时迭代次数 (覆盖配置)")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "写入工作协程数 (覆盖配置)")
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "", "结果输出目录 (覆盖配置)")
	runCmd.Flags().BoolVar(&runParquet, "parquet", false, "额外输出 parquet 格式的查询明细")
	runCmd.MarkFlagsMutuallyExclusive("data-only", "query-only")
}

func runBench(cmd *cobra.Command, args []string) error {
	mode := resolveMode(runDataOnly, runQueryOnly)

	cfg, err := config.NewLoader().
		WithConfigPath(cfgFile).
		WithEnvFile(envFile).
		WithCmdArgs(cmdArgs(cmd.Flags())).
		Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Init(&cfg.Logging)
	defer logger.Sync()
	if debug {
		logger.EnableDebug()
	}

	// 收到 SIGINT/SIGTERM 时取消上下文，在批次或迭代之间停止
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out io.Writer = cmd.OutOrStdout()
	if quiet {
		out = io.Discard
	} else {
		printRunInfo(out, cfg, mode)
	}

	runner, err := bench.New(cfg, out)
	if err != nil {
		return err
	}
	if _, err := runner.Run(ctx, mode); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\n测试已中止")
		}
		return fmt.Errorf("执行失败: %w", err)
	}
	return nil
}

func resolveMode(dataOnly, queryOnly bool) bench.Mode {
	switch {
	case dataOnly:
		return bench.ModeDataOnly
	case queryOnly:
		return bench.ModeQueryOnly
	default:
		return bench.ModeFull
	}
}

// cmdArgs 收集用户显式设置的 flag，作为最高优先级的配置覆盖
func cmdArgs(flags *pflag.FlagSet) map[string]string {
	args := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		if path, ok := flagPaths[f.Name]; ok {
			args[path] = f.Value.String()
		}
	})
	return args
}

func printRunInfo(w io.Writer, cfg *config.Config, mode bench.Mode) {
	fmt.Fprintf(w, Banner, Version)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  运行模式: %s\n", mode)
	fmt.Fprintf(w, "  IntDB: %s\n", cfg.IntDB.URL)
	fmt.Fprintf(w, "  InfluxDB: %s (org=%s, bucket=%s)\n", cfg.InfluxDB.URL, cfg.InfluxDB.Organization, cfg.InfluxDB.Bucket)
	if mode != bench.ModeQueryOnly {
		fmt.Fprintf(w, "  记录数: %d  批次大小: %d  工作协程: %d\n", cfg.Bench.Records, cfg.Bench.BatchSize, cfg.Bench.Workers)
	}
	if mode != bench.ModeDataOnly {
		fmt.Fprintf(w, "  查询迭代: %d  预热: %d\n", cfg.Bench.Iterations, cfg.Bench.Warmup)
	}
	fmt.Fprintf(w, "  输出目录: %s\n", cfg.Output.Dir)
	fmt.Fprintln(w)
}
