package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/nodewatch/internal/alerting"
	"github.com/vietddude/nodewatch/internal/core/config"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/core/worker"
	"github.com/vietddude/nodewatch/internal/infra/betterstack"
	"github.com/vietddude/nodewatch/internal/infra/rpc"
	"github.com/vietddude/nodewatch/internal/monitoring/health"
	"github.com/vietddude/nodewatch/internal/monitoring/monitor"
)

// Watcher is the main application struct that manages the monitor lifecycle.
type Watcher struct {
	cfg *config.AppConfig

	runner   *monitor.Runner
	thornode *monitor.ThornodeMonitor
	restarts *monitor.RestartMonitor
	disks    *monitor.DiskMonitor

	heartbeats *alerting.HeartbeatService
	incidents  *alerting.IncidentService
	cleaner    *alerting.Cleaner
	pruner     *worker.Pruner

	scheduler    *worker.Scheduler
	healthMon    *health.Monitor
	healthServer *health.Server
	log          *slog.Logger
}

// NewWatcher creates a new Watcher instance with all dependencies initialized.
func NewWatcher(cfg *config.AppConfig) (*Watcher, error) {
	log := slog.Default()
	live := cfg.IsProduction()
	if !live {
		log.Warn("Alerting is suppressed outside production", "environment", cfg.Environment)
	}

	// 1. Alert backend
	bs := cfg.BetterStack
	client := betterstack.NewClient(betterstack.Config{
		BaseURL:        bs.BaseURL,
		APIKey:         bs.APIKey,
		RequesterEmail: bs.RequesterEmail,
		Timeout:        cfg.Timeouts.Alert,
		Retry: betterstack.RetryPolicy{
			Interval:   bs.RetryInterval,
			MaxRetries: bs.MaxRetries,
		},
	}, log)

	heartbeats := alerting.NewHeartbeatService(client, alerting.HeartbeatConfig{
		Enabled: live,
		Period:  bs.HeartbeatPeriod,
		Grace:   bs.HeartbeatGrace,
	}, log)
	incidents := alerting.NewIncidentService(client, alerting.NewCache(), alerting.IncidentConfig{
		Enabled:  live,
		Lookback: time.Duration(bs.LookbackDays) * 24 * time.Hour,
	}, log)
	cleaner := alerting.NewCleaner(client, cfg.Instance, alerting.Retention{
		Keep:   bs.Retention.Keep,
		MaxAge: bs.Retention.MaxAge,
	}, log)

	// 2. Nodes
	var (
		nodes    []domain.Node
		monitors []*monitor.NodeMonitor
		thorMon  *monitor.ThornodeMonitor
	)
	endpoints := make(map[string][]rpc.Provider)
	for _, nc := range cfg.Nodes {
		if nc.Disabled {
			log.Info("Node disabled, skipping", "node", nc.Name)
			continue
		}
		parts, err := buildNode(nc, cfg.Timeouts.RPC)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, parts.node)
		endpoints[nc.Name] = parts.endpoints
		monitors = append(monitors, monitor.NewNodeMonitor(parts.checker(log), heartbeats, cfg.Instance))

		if parts.thornode != nil && cfg.Thornode.Address != "" {
			thorMon = monitor.NewThornodeMonitor(parts.thornode, incidents, monitor.ThornodeConfig{
				Subject:               nc.Name,
				Address:               cfg.Thornode.Address,
				Instance:              cfg.Instance,
				SlashPointsThreshold:  cfg.Thornode.SlashPointsFloor(),
				ObservationAlertEvery: cfg.Thornode.ObservationAlertEvery,
			}, log)
		}
	}
	if len(monitors) == 0 {
		return nil, errors.New("no nodes configured")
	}

	healthMon := health.NewMonitor(nodes)
	for name, list := range endpoints {
		healthMon.Track(name, list...)
	}

	// 3. System monitors
	var restarts *monitor.RestartMonitor
	if len(cfg.Processes) > 0 {
		targets := make([]monitor.ProcessTarget, len(cfg.Processes))
		for i, p := range cfg.Processes {
			targets[i] = monitor.ProcessTarget{Name: p.Name, Process: p.Process}
		}
		restarts = monitor.NewRestartMonitor(monitor.NewProcessSource(targets), incidents, cfg.Instance, 0, log)
	}

	var disks *monitor.DiskMonitor
	if len(cfg.Disks) > 0 {
		list := make([]monitor.Disk, len(cfg.Disks))
		for i, d := range cfg.Disks {
			name := d.Name
			if name == "" {
				name = d.Path
			}
			list[i] = monitor.Disk{Name: name, Path: d.Path, Threshold: d.Threshold}
		}
		disks = monitor.NewDiskMonitor(list, incidents, cfg.Instance, log)
	}

	return &Watcher{
		cfg:          cfg,
		runner:       monitor.NewRunner(monitors, healthMon, log),
		thornode:     thorMon,
		restarts:     restarts,
		disks:        disks,
		heartbeats:   heartbeats,
		incidents:    incidents,
		cleaner:      cleaner,
		pruner:       worker.NewPruner(cleaner, live, log),
		scheduler:    worker.NewScheduler(log),
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.Server.Port),
		log:          log,
	}, nil
}

// Heartbeats returns every heartbeat identity in configuration order.
func (w *Watcher) Heartbeats() []domain.HeartbeatIdentity {
	var ids []domain.HeartbeatIdentity
	for _, m := range w.runner.Monitors() {
		ids = append(ids, m.Heartbeats()...)
	}
	return ids
}

// Start starts the watcher and all its components.
func (w *Watcher) Start(ctx context.Context) error {
	// Heartbeats are registered before any check runs so concurrent checks
	// never race to create them. Missing ones are created lazily on send.
	if err := w.heartbeats.EnsureAll(ctx, w.Heartbeats()); err != nil {
		w.log.Warn("Failed to initialize heartbeats, retrying on next tick", "error", err)
	}

	// Start Health Server
	go func() {
		if err := w.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("Health server failed", "error", err)
		}
	}()

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
		on   bool
	}{
		{"health-checks", w.cfg.Schedule.Checks, w.runChecks, true},
		{"thornode", w.cfg.Schedule.Thornode, w.runThornode, w.thornode != nil},
		{"system", w.cfg.Schedule.System, w.runSystem, w.restarts != nil || w.disks != nil},
	}
	for _, job := range jobs {
		if !job.on {
			continue
		}
		if err := w.scheduler.Add(job.name, job.spec, job.run); err != nil {
			return err
		}
	}
	if err := w.pruner.Schedule(ctx, w.scheduler, w.cfg.Schedule.Cleanup); err != nil {
		w.log.Warn("Initial incident cleanup failed", "error", err)
	}

	w.scheduler.Start()
	w.log.Info("Watcher started", "nodes", len(w.runner.Monitors()), "instance", w.cfg.Instance)

	// First tick runs immediately instead of waiting for the schedule.
	go w.RunOnce(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")

	if err := w.scheduler.Stop(ctx); err != nil {
		w.log.Warn("Scheduled jobs did not finish in time", "error", err)
	}

	// Stop Health Server
	return w.healthServer.Stop(ctx)
}

// RunOnce runs every monitor a single time and returns the node outcomes.
func (w *Watcher) RunOnce(ctx context.Context) []domain.CheckOutcome {
	_, outcomes := w.runner.RunAll(ctx)
	if err := w.runThornode(ctx); err != nil {
		w.log.Error("THORNode monitoring failed", "error", err)
	}
	if err := w.runSystem(ctx); err != nil {
		w.log.Error("System monitoring failed", "error", err)
	}
	return outcomes
}

// Report returns the latest health report.
func (w *Watcher) Report() health.HealthReport {
	return w.healthMon.CheckHealth()
}

// Cleanup applies incident retention once.
func (w *Watcher) Cleanup(ctx context.Context) (int, error) {
	if w.cfg.BetterStack.APIKey == "" {
		return 0, errors.New("betterstack.api_key is not configured")
	}
	return w.cleaner.Clean(ctx)
}

// Reset deletes every heartbeat, heartbeat group and incident of the account.
func (w *Watcher) Reset(ctx context.Context) error {
	if w.cfg.BetterStack.APIKey == "" {
		return errors.New("betterstack.api_key is not configured")
	}
	if err := w.heartbeats.DeleteAll(ctx); err != nil {
		return err
	}
	return w.incidents.DeleteAll(ctx)
}

func (w *Watcher) runChecks(ctx context.Context) error {
	w.runner.RunAll(ctx)
	return nil
}

func (w *Watcher) runThornode(ctx context.Context) error {
	if w.thornode == nil {
		return nil
	}
	return w.thornode.Run(ctx)
}

func (w *Watcher) runSystem(ctx context.Context) error {
	var errs []error
	if w.restarts != nil {
		errs = append(errs, w.restarts.Run(ctx))
	}
	if w.disks != nil {
		errs = append(errs, w.disks.Run(ctx))
	}
	return errors.Join(errs...)
}
