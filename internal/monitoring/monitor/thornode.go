package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/nodewatch/internal/alerting"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain/cosmos"
	"github.com/vietddude/nodewatch/internal/infra/chain/thornode"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// ThornodeSource is the THORNode API surface the monitors need.
type ThornodeSource interface {
	Nodes(ctx context.Context) ([]thornode.NodeAccount, error)
	Node(ctx context.Context, address string) (thornode.NodeAccount, error)
	GetStatus(ctx context.Context) (cosmos.Status, error)
}

var _ ThornodeSource = (*thornode.ThornodeAdapter)(nil)

// ThornodeConfig configures the THORNode monitors.
type ThornodeConfig struct {
	// Subject is the name used in incident names, e.g. "Thornode".
	Subject  string
	Address  string
	Instance string
	// SlashPointsThreshold is the absolute floor below which slash points never alert.
	SlashPointsThreshold float64
	// ObservationAlertEvery limits chain observation alerts to wall clock
	// minutes divisible by it. Resolution happens on every run.
	ObservationAlertEvery time.Duration
}

// ThornodeMonitor watches bond, slash points, jail state and chain
// observations of one THORNode validator.
type ThornodeMonitor struct {
	source    ThornodeSource
	incidents Incidents
	cfg       ThornodeConfig
	log       *slog.Logger
	now       func() time.Time
}

// NewThornodeMonitor creates a THORNode monitor.
func NewThornodeMonitor(source ThornodeSource, incidents Incidents, cfg ThornodeConfig, log *slog.Logger) *ThornodeMonitor {
	if cfg.Subject == "" {
		cfg.Subject = "Thornode"
	}
	if cfg.ObservationAlertEvery == 0 {
		cfg.ObservationAlertEvery = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &ThornodeMonitor{
		source:    source,
		incidents: incidents,
		cfg:       cfg,
		log:       log.With("component", "thornode", "address", cfg.Address),
		now:       time.Now,
	}
}

func (m *ThornodeMonitor) incident(subject string, t domain.IncidentType) domain.IncidentIdentity {
	return domain.IncidentIdentity{Subject: subject, Type: t, Instance: m.cfg.Instance}
}

// Run executes every THORNode monitor. The node list is fetched once and
// shared; jail state is queried concurrently with it.
func (m *ThornodeMonitor) Run(ctx context.Context) error {
	var (
		g       errgroup.Group
		nodeErr error
		jailErr error
	)

	g.Go(func() error {
		nodes, err := m.source.Nodes(ctx)
		if err != nil {
			nodeErr = fmt.Errorf("list nodes: %w", err)
			return nil
		}
		m.MonitorBond(nodes)
		nodeErr = errors.Join(
			m.MonitorSlashPoints(ctx, nodes),
			m.MonitorChainObservations(ctx, nodes),
		)
		return nil
	})
	g.Go(func() error {
		jailErr = m.MonitorJail(ctx)
		return nil
	})
	g.Wait()

	return errors.Join(nodeErr, jailErr)
}

// BondReport summarises the bond of a node against the active set.
type BondReport struct {
	Bond             float64
	Reward           float64
	MaxEfficientBond float64
}

// Bond computes the bond report of address. The max efficient bond is the
// highest bond in the bottom two thirds of active nodes by bond.
func Bond(nodes []thornode.NodeAccount, address string) (BondReport, bool) {
	node, ok := thornode.FindNode(nodes, address)
	if !ok {
		return BondReport{}, false
	}

	active := thornode.ActiveNodes(nodes)
	bonds := make([]float64, len(active))
	for i, n := range active {
		bonds[i] = n.TotalBond.Rune()
	}
	slices.Sort(bonds)

	report := BondReport{
		Bond:   node.TotalBond.Rune(),
		Reward: node.CurrentAward.Rune(),
	}
	if bottom := bonds[:len(bonds)*2/3]; len(bottom) > 0 {
		report.MaxEfficientBond = bottom[len(bottom)-1]
	}
	return report, true
}

// MonitorBond logs and exports the bond figures. It never alerts.
func (m *ThornodeMonitor) MonitorBond(nodes []thornode.NodeAccount) {
	report, ok := Bond(nodes, m.cfg.Address)
	if !ok {
		m.log.Warn("Node not bonded")
		return
	}

	metrics.ThornodeBond.WithLabelValues("bond").Set(report.Bond)
	metrics.ThornodeBond.WithLabelValues("reward").Set(report.Reward)
	metrics.ThornodeBond.WithLabelValues("max_efficient_bond").Set(report.MaxEfficientBond)

	m.log.Info("Bond",
		"bond", humanize.Comma(int64(math.Round(report.Bond))),
		"reward", humanize.Comma(int64(math.Round(report.Reward))),
		"max_efficient_bond", humanize.Comma(int64(math.Round(report.MaxEfficientBond))),
	)
}

// SlashPointStats describes the slash points of the active set.
type SlashPointStats struct {
	Node       float64
	Min        float64
	Median     float64
	Average    float64
	WorstTop10 float64
	Max        float64
}

// SlashPoints computes the network slash point statistics. It reports false
// when address is not an active node.
func SlashPoints(nodes []thornode.NodeAccount, address string) (SlashPointStats, bool) {
	active := thornode.ActiveNodes(nodes)
	node, ok := thornode.FindNode(active, address)
	if !ok {
		return SlashPointStats{}, false
	}

	points := make([]float64, len(active))
	sum := 0.0
	for i, n := range active {
		points[i] = float64(n.SlashPoints)
		sum += points[i]
	}
	// Worst first.
	slices.SortFunc(points, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})

	n := len(points)
	mid := n / 2
	median := points[mid]
	if n%2 == 0 {
		median = (points[mid-1] + points[mid]) / 2
	}

	return SlashPointStats{
		Node:       float64(node.SlashPoints),
		Min:        points[n-1],
		Median:     median,
		Average:    sum / float64(n),
		WorstTop10: points[n/10],
		Max:        points[0],
	}, true
}

// MonitorSlashPoints alerts when the node enters the worst performing tenth
// of the network above the absolute threshold, and resolves otherwise.
func (m *ThornodeMonitor) MonitorSlashPoints(ctx context.Context, nodes []thornode.NodeAccount) error {
	stats, ok := SlashPoints(nodes, m.cfg.Address)
	if !ok {
		m.log.Warn("Node is not active, skipping slash points monitoring")
		return nil
	}

	metrics.ThornodeSlashPoints.Set(stats.Node)
	m.log.Info("Slash points",
		"node", math.Round(stats.Node),
		"min", math.Round(stats.Min),
		"median", math.Round(stats.Median),
		"average", math.Round(stats.Average),
		"worst_top_10", math.Round(stats.WorstTop10),
		"max", math.Round(stats.Max),
	)

	id := m.incident(m.cfg.Subject, domain.IncidentSlashPoints)
	if stats.Node > stats.WorstTop10 && stats.Node > m.cfg.SlashPointsThreshold {
		summary := fmt.Sprintf("%s entered the worst performing top 10 with %s slash points!",
			m.cfg.Subject, humanize.Comma(int64(stats.Node)))
		_, err := m.incidents.Report(ctx, id, stats.Node, summary, alerting.SlashPointsPolicy{Threshold: stats.WorstTop10})
		return err
	}
	return m.incidents.Resolve(ctx, id)
}

// MonitorJail alerts while the node's jail release height lies ahead of
// the current block height.
func (m *ThornodeMonitor) MonitorJail(ctx context.Context) error {
	var (
		g      errgroup.Group
		node   thornode.NodeAccount
		status cosmos.Status
	)
	g.Go(func() (err error) {
		node, err = m.source.Node(ctx, m.cfg.Address)
		return err
	})
	g.Go(func() (err error) {
		status, err = m.source.GetStatus(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("query jail state: %w", err)
	}

	if !node.IsActive() {
		m.log.Warn("Node is not active, skipping jail monitoring")
		return nil
	}
	release := int64(node.Jail.ReleaseHeight)
	if release == 0 {
		m.log.Debug("Node has never been jailed")
		return nil
	}

	current, err := status.Height()
	if err != nil {
		return err
	}

	id := m.incident(m.cfg.Subject, domain.IncidentJail)
	if release > current {
		reason := node.Jail.Reason
		if reason == "" {
			reason = "unknown"
		}
		blocks := release - current
		m.log.Warn("Node is jailed", "blocks", blocks, "until", release, "reason", reason)

		summary := fmt.Sprintf("%s has been jailed until #%s (%s blocks)!",
			m.cfg.Subject, humanize.Comma(release), humanize.Comma(blocks))
		_, err := m.incidents.Report(ctx, id, float64(release), summary, alerting.JailPolicy{CurrentHeight: current})
		return err
	}
	return m.incidents.Resolve(ctx, id)
}

// ConsensusHeight returns the height most active nodes observed for chain.
// Nodes without an observation count as -1. Ties go to the higher height.
func ConsensusHeight(active []thornode.NodeAccount, chain string) int64 {
	counts := make(map[int64]int)
	for _, n := range active {
		h, ok := n.ObservedHeight(chain)
		if !ok {
			h = -1
		}
		counts[h]++
	}

	best, bestCount := int64(-1), 0
	for h, c := range counts {
		if c > bestCount || (c == bestCount && h > best) {
			best, bestCount = h, c
		}
	}
	return best
}

// MonitorChainObservations compares the node's observed height of every
// external chain with the network consensus.
func (m *ThornodeMonitor) MonitorChainObservations(ctx context.Context, nodes []thornode.NodeAccount) error {
	active := thornode.ActiveNodes(nodes)
	node, ok := thornode.FindNode(active, m.cfg.Address)
	if !ok {
		m.log.Warn("Node is not active, skipping chain observation monitoring")
		return nil
	}

	alertWindow := m.alertWindow()

	var errs []error
	for _, observed := range node.ObserveChains {
		chain := strings.ToUpper(observed.Chain)
		height := int64(observed.Height)
		consensus := ConsensusHeight(active, chain)
		id := m.incident(chain, domain.IncidentChainObservation)

		if height < consensus {
			// Lagging outside the alert window keeps the open incident and its cache entry.
			if !alertWindow {
				continue
			}
			diff := height - consensus
			m.log.Warn("Chain observation behind the network",
				"chain", chain, "blocks", -diff, "observed", height, "consensus", consensus)

			summary := fmt.Sprintf("%s is %s block(s) behind the majority observation of the network!",
				chain, humanize.Comma(-diff))
			if _, err := m.incidents.Report(ctx, id, float64(diff), summary, alerting.ChainObservationPolicy{}); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := m.incidents.Resolve(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *ThornodeMonitor) alertWindow() bool {
	every := int(m.cfg.ObservationAlertEvery / time.Minute)
	if every <= 1 {
		return true
	}
	return m.now().Minute()%every == 0
}
