package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/vietddude/nodewatch/internal/alerting"
	"github.com/vietddude/nodewatch/internal/core/domain"
)

// Pod is a supervised workload with a restart counter, such as a
// Kubernetes container or a local daemon.
type Pod struct {
	Name        string
	Restarts    int
	LastRestart time.Time
	Reason      string
}

// PodSource lists the workloads watched for restarts.
type PodSource interface {
	Pods(ctx context.Context) ([]Pod, error)
}

// ProcessTarget is a local executable watched for restarts.
type ProcessTarget struct {
	Name    string
	Process string
}

// ProcessSource derives restart counters from local process start times.
// A restart is counted whenever the start time of a target changes.
type ProcessSource struct {
	targets []ProcessTarget
	list    func(ctx context.Context) ([]processInfo, error)

	mu    sync.Mutex
	state map[string]*Pod
	seen  map[string]int64
}

type processInfo struct {
	name      string
	createdMs int64
}

// NewProcessSource creates a process based PodSource.
func NewProcessSource(targets []ProcessTarget) *ProcessSource {
	return &ProcessSource{
		targets: targets,
		list:    listProcesses,
		state:   make(map[string]*Pod),
		seen:    make(map[string]int64),
	}
}

func listProcesses(ctx context.Context) ([]processInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]processInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		created, err := p.CreateTimeWithContext(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, processInfo{name: name, createdMs: created})
	}
	return infos, nil
}

// Pods returns one entry per target that is currently running.
func (s *ProcessSource) Pods(ctx context.Context) ([]Pod, error) {
	infos, err := s.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	// Oldest matching process wins so helper children are ignored.
	started := make(map[string]int64)
	for _, info := range infos {
		if prev, ok := started[info.name]; !ok || info.createdMs < prev {
			started[info.name] = info.createdMs
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pods []Pod
	for _, t := range s.targets {
		created, running := started[t.Process]
		if !running {
			continue
		}

		pod, ok := s.state[t.Name]
		if !ok {
			pod = &Pod{Name: t.Name}
			s.state[t.Name] = pod
		}
		if last, known := s.seen[t.Name]; known && last != created {
			pod.Restarts++
			pod.LastRestart = time.UnixMilli(created)
			pod.Reason = "process start time changed"
		}
		s.seen[t.Name] = created
		pods = append(pods, *pod)
	}
	return pods, nil
}

// RestartMonitor raises an incident when a workload restarted recently.
type RestartMonitor struct {
	pods      PodSource
	incidents Incidents
	instance  string
	window    time.Duration
	log       *slog.Logger
}

// NewRestartMonitor creates a restart monitor. Restarts older than window
// are recorded without alerting.
func NewRestartMonitor(pods PodSource, incidents Incidents, instance string, window time.Duration, log *slog.Logger) *RestartMonitor {
	if window == 0 {
		window = 10 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &RestartMonitor{
		pods:      pods,
		incidents: incidents,
		instance:  instance,
		window:    window,
		log:       log.With("component", "restarts"),
	}
}

// Run checks every workload once.
func (m *RestartMonitor) Run(ctx context.Context) error {
	pods, err := m.pods.Pods(ctx)
	if err != nil {
		return err
	}

	for _, pod := range pods {
		m.log.Info("Restarts", "pod", pod.Name, "count", pod.Restarts)

		id := domain.IncidentIdentity{Subject: pod.Name, Type: domain.IncidentRestart, Instance: m.instance}
		if pod.Restarts == 0 {
			if err := m.incidents.Resolve(ctx, id); err != nil {
				m.log.Error("Failed to resolve restart incident", "pod", pod.Name, "error", err)
			}
			continue
		}

		summary := fmt.Sprintf("%s restarted! (reason: %s, count: %s)",
			pod.Name, pod.Reason, humanize.Comma(int64(pod.Restarts)))
		policy := alerting.RestartPolicy{LastRestart: pod.LastRestart, Window: m.window}
		if _, err := m.incidents.Report(ctx, id, float64(pod.Restarts), summary, policy); err != nil {
			m.log.Error("Failed to report restart", "pod", pod.Name, "error", err)
		}
	}
	return nil
}
