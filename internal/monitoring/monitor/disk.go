package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/vietddude/nodewatch/internal/alerting"
	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// Disk is a filesystem watched for usage.
type Disk struct {
	Name      string
	Path      string
	Threshold float64 // percent
}

// DiskMonitor raises an incident when a filesystem fills up.
type DiskMonitor struct {
	disks     []Disk
	incidents Incidents
	instance  string
	usage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	log       *slog.Logger
}

// NewDiskMonitor creates a disk usage monitor.
func NewDiskMonitor(disks []Disk, incidents Incidents, instance string, log *slog.Logger) *DiskMonitor {
	if log == nil {
		log = slog.Default()
	}
	return &DiskMonitor{
		disks:     disks,
		incidents: incidents,
		instance:  instance,
		usage:     disk.UsageWithContext,
		log:       log.With("component", "disks"),
	}
}

// Run checks every disk once.
func (m *DiskMonitor) Run(ctx context.Context) error {
	var errs []error
	for _, d := range m.disks {
		if err := m.check(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (m *DiskMonitor) check(ctx context.Context, d Disk) error {
	stat, err := m.usage(ctx, d.Path)
	if err != nil {
		return fmt.Errorf("read usage of %s: %w", d.Path, err)
	}

	metrics.DiskUsage.WithLabelValues(d.Name).Set(stat.UsedPercent)
	m.log.Debug("Disk usage", "disk", d.Name, "path", d.Path, "used_percent", stat.UsedPercent)

	id := domain.IncidentIdentity{Subject: d.Name, Type: domain.IncidentDiskUsage, Instance: m.instance}
	if stat.UsedPercent <= d.Threshold {
		return m.incidents.Resolve(ctx, id)
	}

	summary := fmt.Sprintf("%s is %.1f%% full (%s of %s used)!",
		d.Name, stat.UsedPercent, humanize.Bytes(stat.Used), humanize.Bytes(stat.Total))
	_, err = m.incidents.Report(ctx, id, stat.UsedPercent, summary, alerting.DiskUsagePolicy{Threshold: d.Threshold})
	return err
}
