package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

var errTest = errors.New("test")

func TestServer_Health(t *testing.T) {
	nodes := []domain.Node{
		{Name: "Bitcoin", Family: domain.FamilyUTXO},
		{Name: "Ethereum", Family: domain.FamilyEVM},
	}
	monitor := NewMonitor(nodes)
	server := NewServer(monitor, 0)

	monitor.Record("run-1", []domain.CheckOutcome{
		{Node: "Bitcoin", Metric: domain.MetricHealth, Status: domain.StatusPass},
		{Node: "Bitcoin", Metric: domain.MetricSyncStatus, Status: domain.StatusFail, NodeHeight: 10, ReferenceHeight: 20},
		{Node: "Ethereum", Metric: domain.MetricHealth, Status: domain.StatusPass},
	})

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for degraded fleet, got %d", rec.Code)
	}

	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != string(StatusDegraded) {
		t.Errorf("expected degraded, got %s", body["status"])
	}

	monitor.Record("run-2", []domain.CheckOutcome{
		{Node: "Ethereum", Metric: domain.MetricHealth, Status: domain.StatusFail},
	})

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when a node is down, got %d", rec.Code)
	}
}

func TestServer_Detailed(t *testing.T) {
	monitor := NewMonitor([]domain.Node{{Name: "Cosmos", Family: domain.FamilyCosmos}})
	monitor.Record("run-1", []domain.CheckOutcome{
		{Node: "Cosmos", Metric: domain.MetricVersion, Status: domain.StatusPass, NodeVersion: "0.34.27"},
	})

	rec := httptest.NewRecorder()
	NewServer(monitor, 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.RunID != "run-1" {
		t.Errorf("expected run-1, got %s", report.RunID)
	}
	got := report.Nodes["Cosmos"].Outcomes[domain.MetricVersion]
	if got.NodeVersion != "0.34.27" {
		t.Errorf("unexpected outcome %+v", got)
	}
}

type staticEndpoint struct {
	name   string
	health rpc.HealthStatus
}

func (e staticEndpoint) GetName() string             { return e.name }
func (e staticEndpoint) GetHealth() rpc.HealthStatus { return e.health }
func (e staticEndpoint) Execute(ctx context.Context, op rpc.Operation) (json.RawMessage, error) {
	return nil, errTest
}

func TestServer_DetailedShowsEndpoints(t *testing.T) {
	monitor := NewMonitor([]domain.Node{{Name: "Bitcoin", Family: domain.FamilyUTXO}})
	monitor.Track("Bitcoin",
		staticEndpoint{name: "Bitcoin", health: rpc.HealthStatus{Available: true, Latency: 20 * time.Millisecond}},
		staticEndpoint{name: "blockchair", health: rpc.HealthStatus{Available: false, ErrorRate: 1}},
	)
	monitor.Record("run-1", []domain.CheckOutcome{
		{Node: "Bitcoin", Metric: domain.MetricHealth, Status: domain.StatusPass},
	})

	rec := httptest.NewRecorder()
	NewServer(monitor, 0).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/detailed", nil))

	var report HealthReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.LastRun.IsZero() {
		t.Error("expected last run to be reported")
	}

	endpoints := report.Nodes["Bitcoin"].Endpoints
	if len(endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %+v", endpoints)
	}
	if endpoints[0].Name != "Bitcoin" || !endpoints[0].Available || endpoints[0].Latency != 20*time.Millisecond {
		t.Errorf("unexpected node endpoint %+v", endpoints[0])
	}
	if endpoints[1].Name != "blockchair" || endpoints[1].Available || endpoints[1].ErrorRate != 1 {
		t.Errorf("unexpected reference endpoint %+v", endpoints[1])
	}
}

func TestServer_HealthReportsLastRun(t *testing.T) {
	monitor := NewMonitor([]domain.Node{{Name: "Bitcoin", Family: domain.FamilyUTXO}})
	server := NewServer(monitor, 0)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if _, ok := body["last_run"]; ok {
		t.Errorf("expected no last_run before the first tick, got %v", body)
	}

	monitor.Record("run-1", []domain.CheckOutcome{
		{Node: "Bitcoin", Metric: domain.MetricHealth, Status: domain.StatusPass},
	})
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	body = nil
	json.NewDecoder(rec.Body).Decode(&body)
	if _, err := time.Parse(time.RFC3339, body["last_run"]); err != nil {
		t.Errorf("expected RFC3339 last_run, got %v", body)
	}
}
