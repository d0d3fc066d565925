package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/betterstack"
	"github.com/vietddude/nodewatch/internal/monitoring/metrics"
)

// HeartbeatConfig configures a HeartbeatService.
type HeartbeatConfig struct {
	// Enabled turns live backend calls on. Disabled services only log.
	Enabled bool
	Period  time.Duration
	Grace   time.Duration
}

// HeartbeatService registers heartbeats and pings them for healthy metrics.
type HeartbeatService struct {
	store  HeartbeatStore
	config HeartbeatConfig
	log    *slog.Logger

	// mu serializes lookup-then-create so an identity is created once.
	mu     sync.Mutex
	urls   map[string]string
	groups map[string]string
}

// NewHeartbeatService creates a heartbeat service.
func NewHeartbeatService(store HeartbeatStore, cfg HeartbeatConfig, log *slog.Logger) *HeartbeatService {
	if cfg.Period == 0 {
		cfg.Period = time.Minute
	}
	if cfg.Grace == 0 {
		cfg.Grace = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &HeartbeatService{
		store:  store,
		config: cfg,
		log:    log.With("component", "heartbeats"),
		urls:   make(map[string]string),
		groups: make(map[string]string),
	}
}

// EnsureAll registers every identity in order. Called once before polling starts.
func (s *HeartbeatService) EnsureAll(ctx context.Context, ids []domain.HeartbeatIdentity) error {
	if !s.config.Enabled {
		return nil
	}
	s.log.Info("Ensuring heartbeats", "count", len(ids))
	for _, id := range ids {
		if _, err := s.Ensure(ctx, id); err != nil {
			return fmt.Errorf("ensure heartbeat %q: %w", id.Name(), err)
		}
	}
	return nil
}

// Ensure returns the ping URL of the heartbeat, creating it and its group
// when absent. Calling it twice creates one heartbeat.
func (s *HeartbeatService) Ensure(ctx context.Context, id domain.HeartbeatIdentity) (string, error) {
	if !s.config.Enabled {
		return "", nil
	}

	name := id.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if url, ok := s.urls[name]; ok {
		return url, nil
	}

	heartbeats, err := s.store.ListHeartbeats(ctx)
	if err != nil {
		return "", fmt.Errorf("list heartbeats: %w", err)
	}
	for _, hb := range heartbeats {
		if hb.Attributes.Name == name {
			s.log.Debug("Heartbeat already created", "heartbeat", name)
			s.urls[name] = hb.Attributes.URL
			return hb.Attributes.URL, nil
		}
	}

	groupID, err := s.ensureGroup(ctx, id.GroupName())
	if err != nil {
		return "", err
	}

	hb, err := s.store.CreateHeartbeat(ctx, betterstack.CreateHeartbeatRequest{
		Name:             name,
		Period:           int(s.config.Period.Seconds()),
		Grace:            int(s.config.Grace.Seconds()),
		HeartbeatGroupID: groupID,
		Email:            false,
		Push:             true,
	})
	if err != nil {
		return "", fmt.Errorf("create heartbeat: %w", err)
	}

	s.log.Info("Created heartbeat", "heartbeat", name, "group", id.GroupName())
	s.urls[name] = hb.Attributes.URL
	return hb.Attributes.URL, nil
}

// ensureGroup must be called with mu held.
func (s *HeartbeatService) ensureGroup(ctx context.Context, name string) (string, error) {
	if id, ok := s.groups[name]; ok {
		return id, nil
	}

	groups, err := s.store.ListHeartbeatGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("list heartbeat groups: %w", err)
	}
	for _, g := range groups {
		if g.Attributes.Name == name {
			s.groups[name] = g.ID
			return g.ID, nil
		}
	}

	group, err := s.store.CreateHeartbeatGroup(ctx, name)
	if err != nil {
		return "", fmt.Errorf("create heartbeat group: %w", err)
	}
	s.log.Info("Created heartbeat group", "group", name)
	s.groups[name] = group.ID
	return group.ID, nil
}

// Send pings the heartbeat once. Failures are logged and left to the next tick.
func (s *HeartbeatService) Send(ctx context.Context, id domain.HeartbeatIdentity) {
	name := id.Name()

	if !s.config.Enabled {
		s.log.Debug("Heartbeat suppressed", "heartbeat", name)
		return
	}

	url, err := s.Ensure(ctx, id)
	if err != nil {
		metrics.HeartbeatsSent.WithLabelValues(name, "lookup_error").Inc()
		s.log.Error("Heartbeat lookup failed", "heartbeat", name, "error", err)
		return
	}

	code, err := s.store.Ping(ctx, url)
	if err != nil {
		metrics.HeartbeatsSent.WithLabelValues(name, "error").Inc()
		s.log.Error("Heartbeat failed", "heartbeat", name, "error", err)
		return
	}
	if code != http.StatusOK {
		metrics.HeartbeatsSent.WithLabelValues(name, strconv.Itoa(code)).Inc()
		s.log.Error("Heartbeat failed", "heartbeat", name, "status", code)
		if code == http.StatusNotFound {
			s.forget(id)
		}
		return
	}

	metrics.HeartbeatsSent.WithLabelValues(name, "ok").Inc()
	s.log.Info("Heartbeat sent", "heartbeat", name)
}

// forget drops the cached URL and group of a heartbeat deleted on the
// backend, so the next send looks them up again.
func (s *HeartbeatService) forget(id domain.HeartbeatIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.urls, id.Name())
	delete(s.groups, id.GroupName())
	s.log.Warn("Heartbeat no longer exists, will recreate", "heartbeat", id.Name())
}

// DeleteAll removes every heartbeat and heartbeat group of the account.
func (s *HeartbeatService) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	heartbeats, err := s.store.ListHeartbeats(ctx)
	if err != nil {
		return fmt.Errorf("list heartbeats: %w", err)
	}
	for _, hb := range heartbeats {
		s.log.Info("Deleting heartbeat", "heartbeat", hb.Attributes.Name)
		if err := s.store.DeleteHeartbeat(ctx, hb.ID); err != nil {
			return fmt.Errorf("delete heartbeat %s: %w", hb.ID, err)
		}
	}

	groups, err := s.store.ListHeartbeatGroups(ctx)
	if err != nil {
		return fmt.Errorf("list heartbeat groups: %w", err)
	}
	for _, g := range groups {
		s.log.Info("Deleting heartbeat group", "group", g.Attributes.Name)
		if err := s.store.DeleteHeartbeatGroup(ctx, g.ID); err != nil {
			return fmt.Errorf("delete heartbeat group %s: %w", g.ID, err)
		}
	}

	clear(s.urls)
	clear(s.groups)
	return nil
}
