package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/vietddude/nodewatch/internal/infra/betterstack"
)

// Retention bounds how many resolved incidents are kept.
type Retention struct {
	Keep   int
	MaxAge time.Duration // 0 = no age limit
}

// Cleaner deletes resolved incidents of this instance beyond the retention.
type Cleaner struct {
	store     IncidentStore
	instance  string
	retention Retention
	log       *slog.Logger
	now       func() time.Time
}

// NewCleaner creates a retention cleaner for incidents named "... (<instance>)".
func NewCleaner(store IncidentStore, instance string, retention Retention, log *slog.Logger) *Cleaner {
	if retention.Keep <= 0 {
		retention.Keep = 50
	}
	if log == nil {
		log = slog.Default()
	}
	return &Cleaner{
		store:     store,
		instance:  instance,
		retention: retention,
		log:       log.With("component", "cleaner"),
		now:       time.Now,
	}
}

// Clean deletes the incidents beyond retention and returns how many went.
func (c *Cleaner) Clean(ctx context.Context) (int, error) {
	incidents, err := c.store.ListIncidents(ctx, betterstack.IncidentFilter{Resolved: betterstack.Resolved()})
	if err != nil {
		return 0, fmt.Errorf("list incidents: %w", err)
	}

	suffix := "(" + c.instance + ")"
	var own []betterstack.Incident
	for _, incident := range incidents {
		if strings.HasSuffix(incident.Attributes.Name, suffix) && incident.Attributes.IsResolved() {
			own = append(own, incident)
		}
	}

	slices.SortStableFunc(own, func(a, b betterstack.Incident) int {
		return b.Attributes.StartedAt.Compare(a.Attributes.StartedAt)
	})

	now := c.now()
	deleted := 0
	for i, incident := range own {
		expired := c.retention.MaxAge > 0 && now.Sub(incident.Attributes.StartedAt) > c.retention.MaxAge
		if i < c.retention.Keep && !expired {
			continue
		}
		if err := c.store.DeleteIncident(ctx, incident.ID); err != nil {
			return deleted, fmt.Errorf("delete incident %s: %w", incident.ID, err)
		}
		deleted++
	}

	if deleted > 0 {
		c.log.Info("Cleaned up incidents", "deleted", deleted, "kept", len(own)-deleted)
	}
	return deleted, nil
}
