// Package betterstack is a client for the BetterStack Uptime API (v2):
// heartbeats, heartbeat groups and incidents.
package betterstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

const (
	// DefaultBaseURL is the public BetterStack Uptime API.
	DefaultBaseURL = "https://uptime.betterstack.com/api/v2"

	incidentsPerPage = 50
)

var resolvePath = regexp.MustCompile(`^incidents/[^/]+/resolve$`)

// RetryPolicy controls how writes are retried. Reads are never retried.
type RetryPolicy struct {
	Interval time.Duration
	// MaxRetries bounds the retries; zero retries until the context ends.
	MaxRetries uint64
}

// DefaultRetryPolicy retries forever every 100ms.
var DefaultRetryPolicy = RetryPolicy{Interval: 100 * time.Millisecond}

func (p RetryPolicy) backoff() retry.Backoff {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultRetryPolicy.Interval
	}
	b := retry.NewConstant(interval)
	if p.MaxRetries > 0 {
		b = retry.WithMaxRetries(p.MaxRetries, b)
	}
	return b
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	APIKey         string
	RequesterEmail string
	Timeout        time.Duration
	Retry          RetryPolicy
}

// Client talks to the BetterStack API.
type Client struct {
	baseURL        string
	apiKey         string
	requesterEmail string
	httpClient     *http.Client
	retry          RetryPolicy
	log            *slog.Logger
	now            func() time.Time
}

// NewClient creates a new BetterStack client.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		requesterEmail: cfg.RequesterEmail,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		retry:          cfg.Retry,
		log:            log.With("component", "betterstack"),
		now:            time.Now,
	}
}

// UnexpectedStatusError is returned when a call answers with the wrong status.
type UnexpectedStatusError struct {
	Method   string
	Endpoint string
	Code     int
	Expected int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP status code %d (expected %d)", e.Method, e.Endpoint, e.Code, e.Expected)
}

// expectedStatus is the status a successful call answers with.
func expectedStatus(method, endpoint string) int {
	switch {
	case resolvePath.MatchString(endpoint):
		return http.StatusOK
	case method == http.MethodPost:
		return http.StatusCreated
	case method == http.MethodDelete:
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

// do performs a single request against endpoint (relative) or target (absolute).
func (c *Client) do(ctx context.Context, method, endpoint, target string, payload any) ([]byte, error) {
	if target == "" {
		target = c.baseURL + "/" + endpoint
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.AlertAPIRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	metrics.AlertAPIRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if want := expectedStatus(method, endpoint); resp.StatusCode != want {
		return nil, &UnexpectedStatusError{Method: method, Endpoint: endpoint, Code: resp.StatusCode, Expected: want}
	}

	return data, nil
}

// write performs a mutating call, retrying with the client's policy until it
// succeeds or the context ends.
func (c *Client) write(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var result []byte
	attempt := 0

	err := retry.Do(ctx, c.retry.backoff(), func(ctx context.Context) error {
		attempt++
		data, err := c.do(ctx, method, endpoint, "", payload)
		if err != nil {
			c.log.Error("Request failed, retrying", "method", method, "endpoint", endpoint, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		result = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// list follows pagination.next until exhausted or until stop returns true.
func list[T any](
	ctx context.Context,
	c *Client,
	endpoint string,
	keep func(Resource[T]) bool,
	stop func(found int) bool,
) ([]Resource[T], error) {
	var (
		items []Resource[T]
		next  string
		seen  = make(map[string]bool)
	)

	for {
		data, err := c.do(ctx, http.MethodGet, endpoint, next, nil)
		if err != nil {
			return nil, err
		}

		var p page[T]
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse %s page: %w", endpoint, err)
		}

		for _, item := range p.Data {
			if keep == nil || keep(item) {
				items = append(items, item)
			}
		}

		if p.Pagination.Next == nil || *p.Pagination.Next == "" || seen[*p.Pagination.Next] {
			break
		}
		if stop != nil && stop(len(items)) {
			break
		}
		next = *p.Pagination.Next
		seen[next] = true
	}

	return items, nil
}

// ListHeartbeats returns every heartbeat.
func (c *Client) ListHeartbeats(ctx context.Context) ([]Heartbeat, error) {
	return list[HeartbeatAttributes](ctx, c, "heartbeats", nil, nil)
}

// CreateHeartbeat creates a heartbeat, retrying until it succeeds.
func (c *Client) CreateHeartbeat(ctx context.Context, req CreateHeartbeatRequest) (Heartbeat, error) {
	if req.Name == "" {
		return Heartbeat{}, fmt.Errorf("heartbeat name is required")
	}
	data, err := c.write(ctx, http.MethodPost, "heartbeats", req)
	if err != nil {
		return Heartbeat{}, err
	}
	var resp single[HeartbeatAttributes]
	if err := json.Unmarshal(data, &resp); err != nil {
		return Heartbeat{}, fmt.Errorf("parse heartbeat: %w", err)
	}
	return resp.Data, nil
}

// DeleteHeartbeat deletes a heartbeat.
func (c *Client) DeleteHeartbeat(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodDelete, "heartbeats/"+id, nil)
	return err
}

// ListHeartbeatGroups returns every heartbeat group.
func (c *Client) ListHeartbeatGroups(ctx context.Context) ([]HeartbeatGroup, error) {
	return list[HeartbeatGroupAttributes](ctx, c, "heartbeat-groups", nil, nil)
}

// CreateHeartbeatGroup creates a heartbeat group, retrying until it succeeds.
func (c *Client) CreateHeartbeatGroup(ctx context.Context, name string) (HeartbeatGroup, error) {
	data, err := c.write(ctx, http.MethodPost, "heartbeat-groups", CreateHeartbeatGroupRequest{Name: name})
	if err != nil {
		return HeartbeatGroup{}, err
	}
	var resp single[HeartbeatGroupAttributes]
	if err := json.Unmarshal(data, &resp); err != nil {
		return HeartbeatGroup{}, fmt.Errorf("parse heartbeat group: %w", err)
	}
	return resp.Data, nil
}

// DeleteHeartbeatGroup deletes a heartbeat group.
func (c *Client) DeleteHeartbeatGroup(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodDelete, "heartbeat-groups/"+id, nil)
	return err
}

// ListIncidents returns incidents matching filter, oldest first.
func (c *Client) ListIncidents(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	from := "1970-01-01"
	if !filter.From.IsZero() {
		from = filter.From.UTC().Format(time.DateOnly)
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(incidentsPerPage))
	q.Set("from", from)
	q.Set("to", c.now().UTC().Format(time.DateOnly))
	endpoint := "incidents?" + q.Encode()

	keep := func(i Incident) bool {
		if filter.Name != "" && i.Attributes.Name != filter.Name {
			return false
		}
		if filter.Resolved != nil && i.Attributes.IsResolved() != *filter.Resolved {
			return false
		}
		return true
	}
	var stop func(int) bool
	if filter.ReturnEarly {
		stop = func(found int) bool { return found > 0 }
	}

	incidents, err := list[IncidentAttributes](ctx, c, endpoint, keep, stop)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(incidents, func(a, b Incident) int {
		return a.Attributes.StartedAt.Compare(b.Attributes.StartedAt)
	})
	return incidents, nil
}

// CreateIncident opens an incident, retrying until it succeeds.
func (c *Client) CreateIncident(ctx context.Context, name, summary string) (Incident, error) {
	data, err := c.write(ctx, http.MethodPost, "incidents", CreateIncidentRequest{
		RequesterEmail: c.requesterEmail,
		Name:           name,
		Summary:        summary,
		Email:          false,
		Push:           true,
	})
	if err != nil {
		return Incident{}, err
	}
	var resp single[IncidentAttributes]
	if err := json.Unmarshal(data, &resp); err != nil {
		return Incident{}, fmt.Errorf("parse incident: %w", err)
	}
	return resp.Data, nil
}

// ResolveIncident resolves an incident, retrying until it succeeds.
func (c *Client) ResolveIncident(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodPost, "incidents/"+id+"/resolve", nil)
	return err
}

// DeleteIncident deletes an incident, retrying until it succeeds.
func (c *Client) DeleteIncident(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodDelete, "incidents/"+id, nil)
	return err
}

// Ping calls a heartbeat URL once and returns the HTTP status.
func (c *Client) Ping(ctx context.Context, heartbeatURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, heartbeatURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
