package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
)

// Checker runs the health checks of one node. Outcomes depend only on what
// the adapter and the references return during the call.
type Checker struct {
	node     domain.Node
	adapter  chain.Adapter
	refs     []chain.HeightSource
	versions chain.VersionSource
	log      *slog.Logger
	now      func() time.Time
}

// NewChecker creates a checker. versions may be nil for nodes whose version
// policy needs no population.
func NewChecker(
	node domain.Node,
	adapter chain.Adapter,
	refs []chain.HeightSource,
	versions chain.VersionSource,
	log *slog.Logger,
) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		node:     node,
		adapter:  adapter,
		refs:     refs,
		versions: versions,
		log:      log.With("node", node.Name),
		now:      time.Now,
	}
}

// Node returns the node this checker watches.
func (c *Checker) Node() domain.Node {
	return c.node
}

// Check runs the check for a single metric.
func (c *Checker) Check(ctx context.Context, metric domain.HealthMetric) domain.CheckOutcome {
	switch metric {
	case domain.MetricHealth:
		return c.CheckUp(ctx)
	case domain.MetricSyncStatus:
		return c.CheckSynced(ctx)
	case domain.MetricVersion:
		return c.CheckVersion(ctx)
	default:
		o := c.outcome(metric)
		o.Status = domain.StatusNotApplicable
		o.Reason = "unsupported metric"
		return o
	}
}

// CheckUp passes when the node answers its liveness endpoint.
func (c *Checker) CheckUp(ctx context.Context) domain.CheckOutcome {
	o := c.outcome(domain.MetricHealth)

	if err := c.adapter.Ping(ctx); err != nil {
		c.log.Error("Node does not respond", "error", err)
		o.Status = domain.StatusFail
		o.Reason = err.Error()
		return o
	}

	c.log.Info("Node is up")
	o.Status = domain.StatusPass
	return o
}

// CheckSynced compares the node tip with the best reference tip. The node
// and every reference are queried concurrently so they observe the same
// moment of the chain.
func (c *Checker) CheckSynced(ctx context.Context) domain.CheckOutcome {
	o := c.outcome(domain.MetricSyncStatus)
	o.Tolerance = c.node.Tolerance

	var (
		g          errgroup.Group
		info       domain.HeightInfo
		nodeErr    error
		refHeights = make([]int64, len(c.refs))
		refErrs    = make([]error, len(c.refs))
	)

	g.Go(func() error {
		info, nodeErr = c.adapter.QueryHeight(ctx)
		return nil
	})
	for i, ref := range c.refs {
		g.Go(func() error {
			refHeights[i], refErrs[i] = ref.ReferenceHeight(ctx)
			return nil
		})
	}
	g.Wait()

	if nodeErr != nil {
		c.log.Error("Failed to query node height", "error", nodeErr)
		o.Status = domain.StatusFail
		o.Reason = nodeErr.Error()
		return o
	}

	o.NodeHeight = info.Height
	o.HeaderHeight = info.HeaderHeight

	for i, err := range refErrs {
		if err != nil {
			c.log.Warn("Reference unavailable", "reference", c.refs[i].Name(), "error", err)
		}
	}
	ref := BestReference(refHeights, refErrs)
	o.ReferenceHeight = ref
	if ref == NoReference && len(c.refs) > 0 {
		c.log.Warn("No reference height available, judging node on its own sync state")
	}

	c.log.Debug("Heights",
		"node_height", info.Height,
		"header_height", info.HeaderHeight,
		"reference_height", ref,
		"syncing", info.Syncing,
	)

	switch {
	case info.MidSync():
		c.log.Warn("Node is still processing headers", "height", info.Height, "headers", info.HeaderHeight)
		o.Status = domain.StatusFail
		o.Reason = "block height behind header height"
	case info.Syncing:
		c.log.Warn("Node is still syncing")
		o.Status = domain.StatusFail
		o.Reason = "node reports syncing"
	case !IsSynced(info.Height, ref, c.node.Tolerance):
		c.log.Warn("Node is behind the reference", "height", info.Height, "reference", ref, "tolerance", c.node.Tolerance)
		o.Status = domain.StatusFail
		o.Reason = "node height behind reference"
	default:
		c.log.Info("Node is synced")
		o.Status = domain.StatusPass
	}

	return o
}

// CheckVersion compares the node version with the reference population.
func (c *Checker) CheckVersion(ctx context.Context) domain.CheckOutcome {
	o := c.outcome(domain.MetricVersion)

	needsPopulation := c.node.VersionPolicy != domain.VersionReachable
	if needsPopulation && c.versions == nil {
		o.Status = domain.StatusInconclusive
		o.Reason = "no version reference configured"
		return o
	}

	var (
		g          errgroup.Group
		nodeVer    string
		nodeErr    error
		population map[string]int
		popErr     error
	)
	g.Go(func() error {
		nodeVer, nodeErr = c.adapter.QueryVersion(ctx)
		return nil
	})
	if needsPopulation {
		g.Go(func() error {
			population, popErr = c.versions.Versions(ctx)
			return nil
		})
	}
	g.Wait()

	if nodeErr != nil {
		if rpc.IsForbidden(nodeErr) {
			c.log.Warn("Node does not allow querying its version")
			o.Status = domain.StatusNotApplicable
			o.Reason = "version query forbidden"
			return o
		}
		c.log.Error("Failed to query node version", "error", nodeErr)
		o.Status = domain.StatusFail
		o.Reason = nodeErr.Error()
		return o
	}
	o.NodeVersion = nodeVer

	if popErr != nil {
		c.log.Warn("Version reference unavailable", "error", popErr)
		o.Status = domain.StatusInconclusive
		o.Reason = popErr.Error()
		return o
	}

	status, top, reason := EvaluateVersion(c.node.VersionPolicy, c.node.VersionTopN, nodeVer, population)
	o.Status = status
	o.TopVersion = top
	o.Reason = reason

	switch status {
	case domain.StatusPass:
		c.log.Info("Node version is up-to-date", "version", nodeVer)
	case domain.StatusFail:
		c.log.Warn("Node version is outdated", "version", nodeVer, "top", top)
	default:
		c.log.Warn("Node version could not be judged", "version", nodeVer, "reason", reason)
	}

	return o
}

func (c *Checker) outcome(metric domain.HealthMetric) domain.CheckOutcome {
	return domain.CheckOutcome{
		Node:      c.node.Name,
		Metric:    metric,
		CheckedAt: c.now(),
	}
}
