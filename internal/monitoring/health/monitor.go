package health

import (
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// Monitor keeps the latest outcome per node and metric for the status server.
type Monitor struct {
	mu        sync.RWMutex
	families  map[string]domain.ChainFamily
	outcomes  map[string]map[domain.HealthMetric]domain.CheckOutcome
	endpoints map[string][]rpc.Provider
	lastRunID string
	lastRun   time.Time
}

// NewMonitor creates a monitor for the given nodes.
func NewMonitor(nodes []domain.Node) *Monitor {
	m := &Monitor{
		families:  make(map[string]domain.ChainFamily, len(nodes)),
		outcomes:  make(map[string]map[domain.HealthMetric]domain.CheckOutcome, len(nodes)),
		endpoints: make(map[string][]rpc.Provider, len(nodes)),
	}
	for _, n := range nodes {
		m.families[n.Name] = n.Family
	}
	return m
}

// Track adds endpoints whose call history is shown with the node.
func (m *Monitor) Track(node string, endpoints ...rpc.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[node] = append(m.endpoints[node], endpoints...)
}

// Record stores the outcomes of one tick and exports them as metrics.
func (m *Monitor) Record(runID string, outcomes []domain.CheckOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range outcomes {
		byMetric, ok := m.outcomes[o.Node]
		if !ok {
			byMetric = make(map[domain.HealthMetric]domain.CheckOutcome)
			m.outcomes[o.Node] = byMetric
		}
		byMetric[o.Metric] = o

		value := 0.0
		if o.OK() {
			value = 1
		}
		metrics.CheckStatus.WithLabelValues(o.Node, string(o.Metric)).Set(value)

		if o.Metric == domain.MetricSyncStatus && o.NodeHeight > 0 {
			metrics.NodeHeight.WithLabelValues(o.Node).Set(float64(o.NodeHeight))
			if o.ReferenceHeight != NoReference {
				metrics.ReferenceHeight.WithLabelValues(o.Node).Set(float64(o.ReferenceHeight))
			}
		}
	}

	m.lastRunID = runID
	m.lastRun = time.Now()
}

// CheckHealth returns the current report.
func (m *Monitor) CheckHealth() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{
		SystemStatus: StatusHealthy,
		RunID:        m.lastRunID,
		LastRun:      m.lastRun,
		Nodes:        make(map[string]NodeHealth, len(m.families)),
	}

	statuses := make([]SystemStatus, 0, len(m.families))
	for name, family := range m.families {
		outcomes := make(map[domain.HealthMetric]domain.CheckOutcome, len(m.outcomes[name]))
		for metric, o := range m.outcomes[name] {
			outcomes[metric] = o
		}
		nh := NodeHealth{
			Node:     name,
			Family:   family,
			Status:   nodeStatus(outcomes),
			Outcomes: outcomes,
		}
		for _, p := range m.endpoints[name] {
			nh.Endpoints = append(nh.Endpoints, EndpointHealth{Name: p.GetName(), HealthStatus: p.GetHealth()})
		}
		report.Nodes[name] = nh
		statuses = append(statuses, nh.Status)
	}
	report.SystemStatus = worst(statuses...)

	return report
}

// LastRun returns when outcomes were last recorded.
func (m *Monitor) LastRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRun
}
