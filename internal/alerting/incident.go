package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/betterstack"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// IncidentConfig configures an IncidentService.
type IncidentConfig struct {
	// Enabled turns live backend calls on. Disabled services only log.
	Enabled bool
	// Lookback bounds the resolve search window; zero searches everything.
	Lookback time.Duration
}

// IncidentService opens, resolves and deletes incidents. At most one
// incident per identity is open at any time.
type IncidentService struct {
	store  IncidentStore
	cache  *Cache
	config IncidentConfig
	log    *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewIncidentService creates an incident service.
func NewIncidentService(store IncidentStore, cache *Cache, cfg IncidentConfig, log *slog.Logger) *IncidentService {
	if cache == nil {
		cache = NewCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &IncidentService{
		store:  store,
		cache:  cache,
		config: cfg,
		log:    log.With("component", "incidents"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Cache returns the alert cache backing the service.
func (s *IncidentService) Cache() *Cache {
	return s.cache
}

func (s *IncidentService) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Report raises an incident for value when policy considers it materially
// worse than the last one raised. An open incident for the same identity is
// resolved first. It reports whether an incident was raised.
func (s *IncidentService) Report(
	ctx context.Context,
	id domain.IncidentIdentity,
	value float64,
	summary string,
	policy Policy,
) (bool, error) {
	key := id.Key()
	unlock := s.lock(key)
	defer unlock()

	previous := s.cache.Previous(key)
	if !policy.ShouldAlert(value, previous) {
		if recordsAlways(policy) {
			s.cache.Set(key, value)
		}
		return false, nil
	}

	name := id.Name()

	if !s.config.Enabled {
		s.log.Info("Incident suppressed", "incident", name, "summary", summary)
		s.cache.Set(key, value)
		return true, nil
	}

	open, err := s.store.ListIncidents(ctx, betterstack.IncidentFilter{
		Name:        name,
		Resolved:    betterstack.Open(),
		ReturnEarly: true,
	})
	if err != nil {
		return false, fmt.Errorf("look up open incident %q: %w", name, err)
	}

	for _, incident := range open {
		s.log.Info("Superseding open incident", "incident", name, "id", incident.ID)
		if err := s.store.ResolveIncident(ctx, incident.ID); err != nil {
			return false, fmt.Errorf("resolve incident %s: %w", incident.ID, err)
		}
		metrics.IncidentsResolved.WithLabelValues(string(id.Type)).Inc()
	}

	created, err := s.store.CreateIncident(ctx, name, summary)
	if err != nil {
		return false, fmt.Errorf("create incident %q: %w", name, err)
	}

	metrics.IncidentsCreated.WithLabelValues(string(id.Type)).Inc()
	s.log.Warn("Incident created", "incident", name, "id", created.ID, "summary", summary)
	s.cache.Set(key, value)
	return true, nil
}

// Resolve resolves every open incident of the identity. Nothing open is a no-op.
func (s *IncidentService) Resolve(ctx context.Context, id domain.IncidentIdentity) error {
	key := id.Key()
	unlock := s.lock(key)
	defer unlock()

	if !s.config.Enabled {
		s.cache.Delete(key)
		return nil
	}

	filter := betterstack.IncidentFilter{
		Name:     id.Name(),
		Resolved: betterstack.Open(),
	}
	if s.config.Lookback > 0 {
		filter.From = s.now().Add(-s.config.Lookback)
	}

	open, err := s.store.ListIncidents(ctx, filter)
	if err != nil {
		return fmt.Errorf("look up open incidents %q: %w", id.Name(), err)
	}

	for _, incident := range open {
		s.log.Debug("Resolving incident", "incident", id.Name(), "id", incident.ID)
		if err := s.store.ResolveIncident(ctx, incident.ID); err != nil {
			return fmt.Errorf("resolve incident %s: %w", incident.ID, err)
		}
		metrics.IncidentsResolved.WithLabelValues(string(id.Type)).Inc()
	}
	if len(open) > 0 {
		s.log.Info("Incident resolved", "incident", id.Name(), "count", len(open))
	}

	s.cache.Delete(key)
	return nil
}

// Delete removes every incident of the identity, open or resolved.
func (s *IncidentService) Delete(ctx context.Context, id domain.IncidentIdentity) error {
	key := id.Key()
	unlock := s.lock(key)
	defer unlock()

	incidents, err := s.store.ListIncidents(ctx, betterstack.IncidentFilter{Name: id.Name()})
	if err != nil {
		return fmt.Errorf("list incidents %q: %w", id.Name(), err)
	}
	for _, incident := range incidents {
		if err := s.store.DeleteIncident(ctx, incident.ID); err != nil {
			return fmt.Errorf("delete incident %s: %w", incident.ID, err)
		}
	}

	s.cache.Delete(key)
	return nil
}

// DeleteAll removes every incident of the account.
func (s *IncidentService) DeleteAll(ctx context.Context) error {
	incidents, err := s.store.ListIncidents(ctx, betterstack.IncidentFilter{})
	if err != nil {
		return fmt.Errorf("list incidents: %w", err)
	}
	for _, incident := range incidents {
		s.log.Info("Deleting incident", "incident", incident.Attributes.Name, "id", incident.ID)
		if err := s.store.DeleteIncident(ctx, incident.ID); err != nil {
			return fmt.Errorf("delete incident %s: %w", incident.ID, err)
		}
	}

	s.cache.Reset()
	return nil
}
