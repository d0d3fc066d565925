package worker

import (
	"context"
	"log/slog"
)

// Cleaner deletes alert records beyond their retention.
type Cleaner interface {
	Clean(ctx context.Context) (int, error)
}

// Pruner runs incident retention on a schedule.
type Pruner struct {
	cleaner Cleaner
	enabled bool
	log     *slog.Logger
}

// NewPruner creates a new Pruner worker. A disabled pruner does nothing.
func NewPruner(cleaner Cleaner, enabled bool, log *slog.Logger) *Pruner {
	if log == nil {
		log = slog.Default()
	}
	return &Pruner{
		cleaner: cleaner,
		enabled: enabled,
		log:     log.With("component", "pruner"),
	}
}

// Schedule registers the pruner with s and runs it once immediately.
func (p *Pruner) Schedule(ctx context.Context, s *Scheduler, spec string) error {
	if !p.enabled {
		return nil
	}
	if err := s.Add("incident-cleanup", spec, p.Prune); err != nil {
		return err
	}
	return p.Prune(ctx)
}

// Prune deletes incidents beyond retention once.
func (p *Pruner) Prune(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	deleted, err := p.cleaner.Clean(ctx)
	if err != nil {
		p.log.Error("Failed to prune incidents", "error", err)
		return err
	}
	p.log.Debug("Pruned incidents", "deleted", deleted)
	return nil
}
