package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lzhtan/intdb-bench/internal/config"
)

// maskedToken 替换输出中的 InfluxDB token
const maskedToken = "******"

// configCmd 打印合并后的生效配置
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "打印生效的配置",
	Long: `按 默认值 < 配置文件 < .env 文件 < 环境变量 的优先级合并配置，
校验后以 YAML 格式输出。InfluxDB token 会被遮盖。`,
	Example: `  intdb-bench config --config bench.yaml > effective.yaml`,
	Args:    cobra.NoArgs,
	RunE:    showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().
		WithConfigPath(cfgFile).
		WithEnvFile(envFile).
		Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.InfluxDB.Token != "" {
		cfg.InfluxDB.Token = maskedToken
	}
	data, err := cfg.Serialize()
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
