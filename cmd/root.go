// Package cmd 提供 intdb-bench CLI 的命令实现
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	// Version 是当前版本号
	Version = "0.1.0"
	// Banner 是启动时显示的 ASCII 艺术
	Banner = `
   _____       _   ____  ____    _                     _
  |_   _|_ __ | |_|  _ \| __ )  | |__   ___ _ __   ___| |__
    | | | '_ \| __| | | |  _ \  | '_ \ / _ \ '_ \ / __| '_ \
    | | | | | | |_| |_| | |_) | | |_) |  __/ | | | (__| | | |
    |_| |_| |_|\__|____/|____/  |_.__/ \___|_| |_|\___|_| |_|  %s
`
)

var (
	// 全局配置
	cfgFile string
	envFile string
	debug   bool
	quiet   bool
)

// rootCmd 是根命令
var rootCmd = &cobra.Command{
	Use:   "intdb-bench",
	Short: "IntDB 与 InfluxDB 性能对比测试工具",
	Long: `intdb-bench 使用相同的合成网络遥测数据对 IntDB 和 InfluxDB 进行
写入吞吐量与查询延迟的对比测试，并生成 JSON 结果和 Markdown 分析报告。`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// 全局 flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "环境变量文件路径，为空时不加载")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "启用调试日志")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "静默模式")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// 自定义版本模板
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}

