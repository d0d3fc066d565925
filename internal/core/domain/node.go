package domain

import "slices"

// VersionPolicy selects how a node version is judged against its network.
type VersionPolicy string

const (
	// VersionMajority requires an exact match with the most common version.
	VersionMajority VersionPolicy = "majority"
	// VersionTopN requires the node version to be among the N most common.
	VersionTopN VersionPolicy = "top_n"
	// VersionAtLeastTop requires node >= highest version in the population.
	VersionAtLeastTop VersionPolicy = "at_least_top"
	// VersionReachable only requires the version query to succeed.
	VersionReachable VersionPolicy = "reachable"
)

// Node is one monitored full node. Immutable after construction.
type Node struct {
	Name     string
	Family   ChainFamily
	Chain    Chain
	Endpoint string

	// Tolerance is how many blocks behind the reference still counts as synced.
	Tolerance int64

	// VersionPolicy is empty when the node's version is not checked.
	VersionPolicy VersionPolicy
	VersionTopN   int
}

// Metrics returns the health metrics checked for this node.
func (n Node) Metrics() []HealthMetric {
	metrics := n.Family.Metrics()
	if n.VersionPolicy == "" || slices.Contains(metrics, MetricVersion) {
		return metrics
	}
	return append(metrics, MetricVersion)
}

// HeightInfo is what a node reports about its own chain tip.
type HeightInfo struct {
	Height int64
	// HeaderHeight is zero when the protocol does not report headers.
	HeaderHeight int64
	Syncing      bool
}

// MidSync reports whether the node knows of headers it has not processed yet.
func (h HeightInfo) MidSync() bool {
	return h.HeaderHeight > h.Height
}
