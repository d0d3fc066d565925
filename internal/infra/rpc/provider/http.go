package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

const maxErrorBody = 512

// HTTPProvider implements Provider for JSON-RPC and REST over HTTP.
// Credentials embedded in the endpoint URL are sent as basic auth.
type HTTPProvider struct {
	name       string
	endpoint   string
	username   string
	password   string
	hasAuth    bool
	httpClient *http.Client

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
}

// NewHTTPProvider creates a new HTTP-based provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	p := &HTTPProvider{
		name:     name,
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{Available: true},
	}

	if u, err := url.Parse(endpoint); err == nil && u.User != nil {
		p.username = u.User.Username()
		p.password, _ = u.User.Password()
		p.hasAuth = true
		u.User = nil
		p.endpoint = strings.TrimRight(u.String(), "/")
	}

	return p
}

// GetName returns the provider label.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// Endpoint returns the endpoint without credentials.
func (p *HTTPProvider) Endpoint() string {
	return p.endpoint
}

// Execute performs the operation. JSON-RPC calls return the "result" member,
// REST calls return the whole body.
func (p *HTTPProvider) Execute(ctx context.Context, op Operation) (json.RawMessage, error) {
	start := time.Now()
	metrics.RPCCallsTotal.WithLabelValues(p.name, op.Name).Inc()

	result, err := p.execute(ctx, op)

	latency := time.Since(start)
	metrics.RPCLatency.WithLabelValues(p.name, op.Name).Observe(latency.Seconds())
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(p.name, errorType(err)).Inc()
		p.recordFailure()
		return nil, err
	}

	p.recordSuccess(latency)
	return result, nil
}

func (p *HTTPProvider) execute(ctx context.Context, op Operation) (json.RawMessage, error) {
	if op.IsREST {
		method := op.RESTMethod
		if method == "" {
			method = http.MethodGet
		}
		var body io.Reader
		if op.Params != nil {
			data, err := json.Marshal(op.Params)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(data)
		}
		return p.do(ctx, method, p.endpoint+op.Name, body)
	}

	reqBody := map[string]any{
		"id":     1,
		"method": op.Name,
		"params": positional(op.Params),
	}
	// JSON-RPC 1.0 nodes (bitcoind and forks) do not expect the version member
	if op.JSONRPCVersion != "1.0" {
		reqBody["jsonrpc"] = "2.0"
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	body, err := p.do(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}

	return rpcResp.Result, nil
}

func (p *HTTPProvider) do(ctx context.Context, method, target string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.hasAuth {
		req.SetBasicAuth(p.username, p.password)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, p.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return data, nil
}

// GetHealth returns call statistics for the endpoint.
func (p *HTTPProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	h := p.health
	if p.successCount > 0 {
		h.Latency = p.totalLatency / time.Duration(p.successCount)
	}
	if total := p.successCount + p.failureCount; total > 0 {
		h.ErrorRate = float64(p.failureCount) / float64(total)
	}
	return h
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.successCount++
	p.totalLatency += latency
	p.health.Available = true
	p.health.LastSuccessAt = time.Now()
}

func (p *HTTPProvider) recordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failureCount++
	p.health.Available = false
	p.health.LastFailureAt = time.Now()
}

func positional(params any) any {
	if params == nil {
		return []any{}
	}
	return params
}

func errorType(err error) string {
	if code, ok := StatusCode(err); ok {
		return fmt.Sprintf("http_%d", code)
	}
	if _, ok := err.(*RPCError); ok {
		return "rpc"
	}
	return "unavailable"
}
