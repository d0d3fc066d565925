// Package alerting turns health observations into heartbeats and
// deduplicated incidents on the alert backend.
package alerting

import (
	"context"

	"github.com/vietddude/nodewatch/internal/infra/betterstack"
)

// HeartbeatStore is the heartbeat side of the alert backend.
type HeartbeatStore interface {
	ListHeartbeats(ctx context.Context) ([]betterstack.Heartbeat, error)
	CreateHeartbeat(ctx context.Context, req betterstack.CreateHeartbeatRequest) (betterstack.Heartbeat, error)
	DeleteHeartbeat(ctx context.Context, id string) error
	ListHeartbeatGroups(ctx context.Context) ([]betterstack.HeartbeatGroup, error)
	CreateHeartbeatGroup(ctx context.Context, name string) (betterstack.HeartbeatGroup, error)
	DeleteHeartbeatGroup(ctx context.Context, id string) error
	Ping(ctx context.Context, url string) (int, error)
}

// IncidentStore is the incident side of the alert backend.
type IncidentStore interface {
	ListIncidents(ctx context.Context, filter betterstack.IncidentFilter) ([]betterstack.Incident, error)
	CreateIncident(ctx context.Context, name, summary string) (betterstack.Incident, error)
	ResolveIncident(ctx context.Context, id string) error
	DeleteIncident(ctx context.Context, id string) error
}

var (
	_ HeartbeatStore = (*betterstack.Client)(nil)
	_ IncidentStore  = (*betterstack.Client)(nil)
)
