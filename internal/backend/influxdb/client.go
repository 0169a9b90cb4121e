// Package influxdb provides the InfluxDB 2.x client used by the benchmark.
package influxdb

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/pkg/logger"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Config holds configuration for the InfluxDB client.
type Config struct {
	// URL is the InfluxDB server URL.
	URL string `yaml:"url" env:"IB_INFLUXDB_URL"`
	// Token is the authentication token.
	Token string `yaml:"token" env:"IB_INFLUXDB_TOKEN"`
	// Organization is the InfluxDB organization.
	Organization string `yaml:"organization" env:"IB_INFLUXDB_ORG"`
	// Bucket is the InfluxDB bucket.
	Bucket string `yaml:"bucket" env:"IB_INFLUXDB_BUCKET"`
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `yaml:"timeout" env:"IB_INFLUXDB_TIMEOUT"`
}

// DefaultConfig returns the default InfluxDB client configuration.
func DefaultConfig() *Config {
	return &Config{
		URL:          "http://localhost:8086",
		Organization: "test-org",
		Bucket:       "test-bucket",
		Timeout:      backend.DefaultTimeout,
	}
}

// Client implements backend.Backend for InfluxDB.
type Client struct {
	config     *Config
	httpClient *http.Client
	pingClient *http.Client

	writeURL string
	queryURL string
	pingURL  string
}

// New creates a new InfluxDB client.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	base := strings.TrimSuffix(config.URL, "/")
	org := url.QueryEscape(config.Organization)

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		pingClient: &http.Client{Timeout: backend.PingTimeout},
		writeURL: fmt.Sprintf("%s/api/v2/write?org=%s&bucket=%s&precision=ns",
			base, org, url.QueryEscape(config.Bucket)),
		queryURL: fmt.Sprintf("%s/api/v2/query?org=%s", base, org),
		pingURL:  base + "/ping",
	}
}

// Name returns the backend identifier.
func (c *Client) Name() types.BackendName {
	return types.BackendInfluxDB
}

// Write sends every line of the batch in a single request.
// Only hop_metrics points are counted: 204 adds them to Succeeded, anything
// else adds them to Failed. flow_summary points are written but never counted.
func (c *Client) Write(ctx context.Context, batch types.Batch) backend.WriteResult {
	var res backend.WriteResult
	hops := int64(batch.HopLines)
	if len(batch.Lines) == 0 {
		return res
	}

	body := strings.Join(batch.Lines, "\n")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.writeURL, strings.NewReader(body))
	if err != nil {
		res.Failed = hops
		res.Err = backend.NewSerializationError(string(c.Name()), "write", err)
		return res
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		res.Failed = hops
		res.Err = backend.NewConnectionError(string(c.Name()), "write", err)
		logger.Warn("写入 InfluxDB 失败: %v", err)
		return res
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Failed = hops
		res.Err = backend.NewConnectionError(string(c.Name()), "write", err)
		logger.Warn("读取 InfluxDB 写入响应失败: %v", err)
		return res
	}
	res.Latencies = append(res.Latencies, time.Since(start))

	if resp.StatusCode != http.StatusNoContent {
		res.Failed = hops
		res.Err = backend.NewProtocolError(string(c.Name()), "write", resp.StatusCode, respBody)
		logger.Warn("InfluxDB 返回状态码 %d", resp.StatusCode)
		return res
	}
	res.Succeeded = hops
	return res
}

// Query runs the Flux query for qt and returns the annotated CSV response.
func (c *Client) Query(ctx context.Context, qt types.QueryType, param string) ([]byte, error) {
	flux, err := BuildQuery(c.config.Bucket, qt, param)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, strings.NewReader(flux))
	if err != nil {
		return nil, backend.NewSerializationError(string(c.Name()), "query", err)
	}
	req.Header.Set("Content-Type", "application/vnd.flux")
	req.Header.Set("Accept", "application/csv")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, backend.NewConnectionError(string(c.Name()), "query", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, backend.NewConnectionError(string(c.Name()), "query", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backend.NewProtocolError(string(c.Name()), "query", resp.StatusCode, body)
	}
	return body, nil
}

// Ping checks the /ping endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pingURL, nil)
	if err != nil {
		return backend.NewConnectionError(string(c.Name()), "ping", err)
	}
	c.authorize(req)

	resp, err := c.pingClient.Do(req)
	if err != nil {
		return backend.NewConnectionError(string(c.Name()), "ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return backend.NewProtocolError(string(c.Name()), "ping", resp.StatusCode, nil)
	}
	return nil
}

// CountRows counts data rows in a CSV query response. Annotation rows and
// the per-table header rows are skipped.
func (c *Client) CountRows(body []byte) int {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.Comment = '#'

	rows := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows
		}
		if isHeader(record) {
			continue
		}
		rows++
	}
	return rows
}

func (c *Client) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Token "+c.config.Token)
	}
}

// isHeader matches the ",result,table,..." row that starts every table.
func isHeader(record []string) bool {
	return len(record) >= 3 && record[1] == "result" && record[2] == "table"
}
