package chain

import (
	"context"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// Adapter is the boundary between the health checks and a node protocol.
// One implementation exists per chain family; every failure is returned as
// an error value and callers treat it as "not up" or "not synced".
type Adapter interface {
	// Family returns the protocol family of the node
	Family() domain.ChainFamily

	// Ping succeeds when the node answers its liveness endpoint with 200
	Ping(ctx context.Context) error

	// QueryHeight returns the node's own view of the chain tip
	QueryHeight(ctx context.Context) (domain.HeightInfo, error)

	// QueryVersion returns the version string the node advertises
	QueryVersion(ctx context.Context) (string, error)
}

// VersionSource reports the version distribution of a network: version -> count.
type VersionSource interface {
	Versions(ctx context.Context) (map[string]int, error)
}

// HeightSource reports an independent view of the network tip.
type HeightSource interface {
	// Name identifies the source in logs
	Name() string

	// ReferenceHeight returns the best block height the source knows
	ReferenceHeight(ctx context.Context) (int64, error)
}
