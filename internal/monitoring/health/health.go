// Package health implements the node health checks (up, synced, version
// current) and reports their latest outcomes over HTTP.
package health

import (
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// SystemStatus represents the overall health state of the fleet or a node.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
	StatusUnknown  SystemStatus = "unknown"
)

// NodeHealth contains the latest outcome of every metric of one node.
type NodeHealth struct {
	Node      string                                      `json:"node"`
	Family    domain.ChainFamily                          `json:"family"`
	Status    SystemStatus                                `json:"status"`
	Outcomes  map[domain.HealthMetric]domain.CheckOutcome `json:"outcomes"`
	Endpoints []EndpointHealth                            `json:"endpoints,omitempty"`
}

// EndpointHealth is the call history of one endpoint a node check uses.
type EndpointHealth struct {
	Name string `json:"name"`
	rpc.HealthStatus
}

// HealthReport contains the full fleet health report.
type HealthReport struct {
	SystemStatus SystemStatus          `json:"system_status"`
	RunID        string                `json:"run_id,omitempty"`
	LastRun      time.Time             `json:"last_run"`
	Nodes        map[string]NodeHealth `json:"nodes"`
}

// nodeStatus derives a node status: a node that is down is critical, any
// other failing metric degrades it.
func nodeStatus(outcomes map[domain.HealthMetric]domain.CheckOutcome) SystemStatus {
	if len(outcomes) == 0 {
		return StatusUnknown
	}

	status := StatusHealthy
	for metric, o := range outcomes {
		if o.Status != domain.StatusFail {
			continue
		}
		if metric == domain.MetricHealth {
			return StatusCritical
		}
		status = StatusDegraded
	}
	return status
}

// worst aggregates node statuses (worst case wins).
func worst(statuses ...SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{
		StatusHealthy:  0,
		StatusUnknown:  1,
		StatusDegraded: 2,
		StatusCritical: 3,
	}

	result := StatusHealthy
	for _, s := range statuses {
		if rank[s] > rank[result] {
			result = s
		}
	}
	return result
}
