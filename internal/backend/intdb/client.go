// Package intdb 实现 IntDB 的 HTTP 客户端。
//
// 每条流记录单独 POST 到 /flows，查询使用 /flows/{id} 与 /quick/* 快捷接口。
package intdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/valyala/fasthttp"

	"github.com/lzhtan/intdb-bench/internal/backend"
	"github.com/lzhtan/intdb-bench/pkg/logger"
	"github.com/lzhtan/intdb-bench/pkg/types"
)

// Config IntDB 客户端配置
type Config struct {
	URL     string        `yaml:"url" env:"IB_INTDB_URL"`
	Timeout time.Duration `yaml:"timeout" env:"IB_INTDB_TIMEOUT"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		URL:     "http://localhost:3000",
		Timeout: backend.DefaultTimeout,
	}
}

var (
	countPath = jp.MustParseString("$.count")
	flowPath  = jp.MustParseString("$.flow")
)

// Client 是 IntDB 的 backend.Backend 实现。
type Client struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

// New 创建 IntDB 客户端。
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = backend.DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                   "intdb-bench",
			MaxConnsPerHost:        64,
			MaxIdleConnDuration:    90 * time.Second,
			ReadTimeout:            timeout,
			WriteTimeout:           timeout,
			DisablePathNormalizing: true,
		},
	}
}

// Name 返回后端标识。
func (c *Client) Name() types.BackendName {
	return types.BackendIntDB
}

// Write 逐条写入批次中的流记录。
// 状态码 200 计为成功，其他状态码计为失败；传输错误时本批剩余记录全部计为失败且不再重试。
func (c *Client) Write(ctx context.Context, batch types.Batch) backend.WriteResult {
	var res backend.WriteResult
	for i, doc := range batch.Flows {
		body, err := sonic.Marshal(doc)
		if err != nil {
			res.Failed++
			res.Err = backend.NewSerializationError(string(c.Name()), "encode flow", err)
			continue
		}

		status, respBody, elapsed, err := c.do(ctx, fasthttp.MethodPost, "/flows", body, c.timeout)
		if err != nil {
			remaining := int64(len(batch.Flows) - i)
			res.Failed += remaining
			res.Err = backend.NewConnectionError(string(c.Name()), "POST /flows", err)
			logger.Warn("IntDB 写入失败，本批剩余 %d 条记录计为错误: %v", remaining, err)
			return res
		}
		res.Latencies = append(res.Latencies, elapsed)

		if status == fasthttp.StatusOK {
			res.Succeeded++
		} else {
			res.Failed++
			res.Err = backend.NewProtocolError(string(c.Name()), "POST /flows", status, respBody)
		}
	}
	return res
}

// Query 执行一次基准查询，返回原始响应体。
func (c *Client) Query(ctx context.Context, qt types.QueryType, param string) ([]byte, error) {
	path, err := queryPath(qt, param)
	if err != nil {
		return nil, err
	}

	status, body, _, err := c.do(ctx, fasthttp.MethodGet, path, nil, c.timeout)
	if err != nil {
		return nil, backend.NewConnectionError(string(c.Name()), "GET "+path, err)
	}
	if status != fasthttp.StatusOK {
		return nil, backend.NewProtocolError(string(c.Name()), "GET "+path, status, body)
	}
	if _, err := oj.Parse(body); err != nil {
		return nil, backend.NewSerializationError(string(c.Name()), "decode "+path, err)
	}
	return body, nil
}

func queryPath(qt types.QueryType, param string) (string, error) {
	switch qt {
	case types.QueryPathReconstruction:
		return "/flows/" + url.PathEscape(param), nil
	case types.QueryPathPattern:
		return "/quick/through/" + url.PathEscape(param), nil
	case types.QueryPathAggregation:
		if _, err := strconv.Atoi(param); err != nil {
			return "", fmt.Errorf("无效的时间窗口分钟数: %q", param)
		}
		return "/quick/recent/" + param, nil
	default:
		return "", fmt.Errorf("不支持的查询类型: %s", qt)
	}
}

// Ping 调用 /health 检查服务可用性。
func (c *Client) Ping(ctx context.Context) error {
	status, body, _, err := c.do(ctx, fasthttp.MethodGet, "/health", nil, backend.PingTimeout)
	if err != nil {
		return backend.NewConnectionError(string(c.Name()), "GET /health", err)
	}
	if status != fasthttp.StatusOK {
		return backend.NewProtocolError(string(c.Name()), "GET /health", status, body)
	}
	return nil
}

// Stats 获取 /stats 统计信息。
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	status, body, _, err := c.do(ctx, fasthttp.MethodGet, "/stats", nil, c.timeout)
	if err != nil {
		return nil, backend.NewConnectionError(string(c.Name()), "GET /stats", err)
	}
	if status != fasthttp.StatusOK {
		return nil, backend.NewProtocolError(string(c.Name()), "GET /stats", status, body)
	}
	var stats map[string]any
	if err := sonic.Unmarshal(body, &stats); err != nil {
		return nil, backend.NewSerializationError(string(c.Name()), "decode /stats", err)
	}
	return stats, nil
}

// CountRows 统计响应中的流数量：优先使用 count 字段，单流响应计为 1。
func (c *Client) CountRows(body []byte) int {
	data, err := oj.Parse(body)
	if err != nil {
		return 0
	}
	if list, ok := data.([]any); ok {
		return len(list)
	}
	if v := countPath.First(data); v != nil {
		switch n := v.(type) {
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	if flowPath.First(data) != nil {
		return 1
	}
	return 0
}

// do 发送请求并返回状态码、响应体副本和耗时，超时取 timeout 与 ctx 截止时间中较早者。
func (c *Client) do(ctx context.Context, method, path string, body []byte, timeout time.Duration) (int, []byte, time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	err := c.client.DoDeadline(req, resp, deadline)
	elapsed := time.Since(start)
	if err != nil {
		if err == fasthttp.ErrTimeout {
			return 0, nil, elapsed, fmt.Errorf("请求超时（超时时间: %s）: %w", timeout, err)
		}
		return 0, nil, elapsed, err
	}

	out := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), out, elapsed, nil
}
