// Package config loads the benchmark configuration from defaults, a YAML
// file, a .env file, environment variables and command-line overrides.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lzhtan/intdb-bench/internal/backend/influxdb"
	"github.com/lzhtan/intdb-bench/internal/backend/intdb"
	"github.com/lzhtan/intdb-bench/internal/generator"
	"github.com/lzhtan/intdb-bench/internal/querybench"
	"github.com/lzhtan/intdb-bench/internal/report/prometheus"
	"github.com/lzhtan/intdb-bench/internal/report/s3"
	"github.com/lzhtan/intdb-bench/internal/writer"
	"github.com/lzhtan/intdb-bench/pkg/logger"
)

// Config represents the complete benchmark configuration.
type Config struct {
	IntDB    intdb.Config    `yaml:"intdb"`
	InfluxDB influxdb.Config `yaml:"influxdb"`
	Bench    BenchConfig     `yaml:"bench"`
	Output   OutputConfig    `yaml:"output"`
	Logging  logger.Config   `yaml:"logging"`
}

// BenchConfig holds workload parameters.
type BenchConfig struct {
	Records       int   `yaml:"records" env:"IB_RECORDS"`
	BatchSize     int   `yaml:"batch_size" env:"IB_BATCH_SIZE"`
	Workers       int   `yaml:"workers" env:"IB_WORKERS"`
	Iterations    int   `yaml:"iterations" env:"IB_ITERATIONS"`
	Warmup        int   `yaml:"warmup" env:"IB_WARMUP"`
	WindowMinutes int   `yaml:"window_minutes" env:"IB_WINDOW_MINUTES"`
	// Seed fixes the generator; 0 seeds from the clock.
	Seed          int64 `yaml:"seed" env:"IB_SEED"`
	// Pool sizes of the synthetic spine-leaf fabric.
	Hosts         int   `yaml:"hosts" env:"IB_HOSTS"`
	Leaves        int   `yaml:"leaves" env:"IB_LEAVES"`
	Spines        int   `yaml:"spines" env:"IB_SPINES"`
}

// Topology returns the generator topology for the configured pool sizes.
func (b BenchConfig) Topology() generator.Topology {
	return generator.NewTopology(b.Hosts, b.Leaves, b.Spines)
}

// OutputConfig holds artifact settings.
type OutputConfig struct {
	Dir        string            `yaml:"dir" env:"IB_OUTPUT_DIR"`
	Parquet    bool              `yaml:"parquet" env:"IB_OUTPUT_PARQUET"`
	Prometheus prometheus.Config `yaml:"prometheus"`
	S3         s3.Config         `yaml:"s3"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	def := generator.DefaultTopology()
	return &Config{
		IntDB:    *intdb.DefaultConfig(),
		InfluxDB: *influxdb.DefaultConfig(),
		Bench: BenchConfig{
			Records:       10000,
			BatchSize:     100,
			Workers:       writer.DefaultWorkers,
			Iterations:    querybench.DefaultIterations,
			Warmup:        querybench.DefaultWarmup,
			WindowMinutes: querybench.DefaultWindowMinutes,
			Hosts:         len(def.Hosts),
			Leaves:        len(def.Leaves),
			Spines:        len(def.Spines),
		},
		Output: OutputConfig{
			Dir:        ".",
			Prometheus: *prometheus.DefaultConfig(),
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envFile    string
	cmdArgs    map[string]string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envFile: ".env",
		cmdArgs: make(map[string]string),
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvFile sets the dotenv file. An empty path disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// WithCmdArgs sets dot-path overrides such as "bench.records" -> "500".
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < .env file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.loadFromFile()
	if err != nil {
		return nil, fmt.Errorf("从文件加载配置失败: %w", err)
	}

	env, err := l.environment()
	if err != nil {
		return nil, fmt.Errorf("加载 .env 文件失败: %w", err)
	}
	if err := applyEnvToStruct(reflect.ValueOf(cfg).Elem(), env); err != nil {
		return nil, fmt.Errorf("应用环境变量覆盖失败: %w", err)
	}

	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return nil, fmt.Errorf("设置配置值 %s 失败: %w", key, err)
		}
	}

	return cfg, nil
}

// loadFromFile returns the defaults overlaid with the YAML file, if any.
func (l *Loader) loadFromFile() (*Config, error) {
	if l.configPath == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseConfig(data)
}

// environment returns a lookup where process variables win over the .env file.
func (l *Loader) environment() (func(string) string, error) {
	var dotenv map[string]string
	if l.envFile != "" {
		m, err := godotenv.Read(l.envFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		dotenv = m
	}
	return func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return dotenv[key]
	}, nil
}

func applyEnvToStruct(v reflect.Value, getenv func(string) string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field, getenv); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}
		envValue := getenv(envTag)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("从环境变量 %s 设置字段 %s 失败: %w", envTag, fieldType.Name, err)
		}
	}
	return nil
}

// setConfigValue sets a configuration value by dot-notation path.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		name := strings.ReplaceAll(part, "_", "")
		field := v.FieldByNameFunc(func(n string) bool {
			return strings.EqualFold(n, name)
		})
		if !field.IsValid() {
			return fmt.Errorf("未知的配置路径: %s", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("期望 %s 是结构体，实际是 %s", part, field.Kind())
		}
		v = field
	}
	return nil
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("无法设置字段")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("无效的时间格式: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("无效的整数: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("无效的布尔值: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("不支持的字段类型: %s", field.Kind())
	}
	return nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration from bytes.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file without env or flag overrides.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).loadFromFile()
}
