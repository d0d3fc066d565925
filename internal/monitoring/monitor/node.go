// Package monitor runs the periodic checks and routes their results to the
// alerting services.
package monitor

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/nodewatch/internal/alerting"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/monitoring/health"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// Heartbeats confirms healthy metrics.
type Heartbeats interface {
	Send(ctx context.Context, id domain.HeartbeatIdentity)
}

// Incidents raises and resolves incidents.
type Incidents interface {
	Report(ctx context.Context, id domain.IncidentIdentity, value float64, summary string, policy alerting.Policy) (bool, error)
	Resolve(ctx context.Context, id domain.IncidentIdentity) error
}

var (
	_ Heartbeats = (*alerting.HeartbeatService)(nil)
	_ Incidents  = (*alerting.IncidentService)(nil)
)

// NodeMonitor runs every metric check of one node and sends a heartbeat
// for each metric that passed.
type NodeMonitor struct {
	checker    *health.Checker
	heartbeats Heartbeats
	instance   string
}

// NewNodeMonitor creates a node monitor.
func NewNodeMonitor(checker *health.Checker, heartbeats Heartbeats, instance string) *NodeMonitor {
	return &NodeMonitor{
		checker:    checker,
		heartbeats: heartbeats,
		instance:   instance,
	}
}

// Node returns the monitored node.
func (m *NodeMonitor) Node() domain.Node {
	return m.checker.Node()
}

// Heartbeats returns the identities this monitor may ping, in metric order.
func (m *NodeMonitor) Heartbeats() []domain.HeartbeatIdentity {
	node := m.checker.Node()
	ids := make([]domain.HeartbeatIdentity, 0, len(node.Metrics()))
	for _, metric := range node.Metrics() {
		ids = append(ids, domain.HeartbeatIdentity{Subject: node.Name, Metric: metric, Instance: m.instance})
	}
	return ids
}

// Run checks every metric concurrently and returns the outcomes in metric order.
func (m *NodeMonitor) Run(ctx context.Context) []domain.CheckOutcome {
	node := m.checker.Node()
	start := time.Now()
	defer func() {
		metrics.CheckDuration.WithLabelValues(node.Name).Observe(time.Since(start).Seconds())
	}()

	ids := m.Heartbeats()
	outcomes := make([]domain.CheckOutcome, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			o := m.checker.Check(ctx, id.Metric)
			if o.OK() {
				m.heartbeats.Send(ctx, id)
			}
			outcomes[i] = o
			return nil
		})
	}
	g.Wait()

	return outcomes
}
