package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("配置校验失败:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if !isHTTPURL(c.IntDB.URL) {
		add("intdb.url", "必须是 http(s) 地址")
	}
	if !isHTTPURL(c.InfluxDB.URL) {
		add("influxdb.url", "必须是 http(s) 地址")
	}
	if c.InfluxDB.Organization == "" {
		add("influxdb.organization", "不能为空")
	}
	if c.InfluxDB.Bucket == "" {
		add("influxdb.bucket", "不能为空")
	}

	if c.Bench.Records <= 0 {
		add("bench.records", "必须大于 0")
	}
	if c.Bench.BatchSize <= 0 {
		add("bench.batch_size", "必须大于 0")
	}
	if c.Bench.Workers <= 0 {
		add("bench.workers", "必须大于 0")
	}
	if c.Bench.Iterations <= 0 {
		add("bench.iterations", "必须大于 0")
	}
	if c.Bench.Warmup < 0 {
		add("bench.warmup", "不能为负数")
	}
	if c.Bench.WindowMinutes <= 0 {
		add("bench.window_minutes", "必须大于 0")
	}
	if err := c.Bench.Topology().Validate(); err != nil {
		add("bench.topology", err.Error())
	}

	if u := c.Output.Prometheus.PushGatewayURL; u != "" && !isHTTPURL(u) {
		add("output.prometheus.push_gateway_url", "必须是 http(s) 地址")
	}
	if e := c.Output.S3.Endpoint; e != "" && !isHTTPURL(e) {
		add("output.s3.endpoint", "必须是 http(s) 地址")
	}

	output := strings.ToLower(c.Logging.Output)
	switch output {
	case "", "stderr", "file", "both":
	default:
		add("logging.output", "只支持 stderr、file 或 both")
	}
	if (output == "file" || output == "both") && c.Logging.FilePath == "" {
		add("logging.file_path", "文件输出时不能为空")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
