package usecases

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

// SessionOptions configures the session registry.
type SessionOptions struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	MaxSessions   int
	Engine        EngineOptions
}

// CreateSessionRequest carries what a client knows at mount time.
type CreateSessionRequest struct {
	// Locator overrides the server's default locator, e.g. with a position
	// the browser already reported.
	Locator ports.Locator
	Surface domain.Surface
	Zoom    int
}

// SessionService owns the live engines.
type SessionService struct {
	deps    EngineDeps
	locator ports.Locator
	opts    SessionOptions

	mu       sync.RWMutex
	sessions map[string]*Engine
}

// NewSessionService creates a SessionService. locator may be nil, in which
// case sessions without a client position start at the default center.
func NewSessionService(deps EngineDeps, locator ports.Locator, opts SessionOptions) *SessionService {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &SessionService{
		deps:     deps,
		locator:  locator,
		opts:     opts,
		sessions: make(map[string]*Engine),
	}
}

// Create builds and mounts a new engine.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*Engine, error) {
	s.mu.RLock()
	full := s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions
	s.mu.RUnlock()
	if full {
		return nil, domain.ErrTooManySessions
	}

	opts := s.opts.Engine
	if req.Surface.Width > 0 && req.Surface.Height > 0 {
		opts.Surface = req.Surface
	}
	if req.Zoom > 0 {
		opts.Zoom = req.Zoom
	}

	e := NewEngine(uuid.NewString(), s.deps, opts)

	locator := req.Locator
	if locator == nil {
		locator = s.locator
	}
	e.Mount(ctx, locator)

	s.mu.Lock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		e.Close(ctx)
		return nil, domain.ErrTooManySessions
	}
	s.sessions[e.ID()] = e
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	slog.Info("session created", slog.String("session_id", e.ID()))
	return e, nil
}

// Get returns a live engine.
func (s *SessionService) Get(id string) (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

// List returns the IDs of live sessions in sorted order.
func (s *SessionService) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close tears a session down and forgets it.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	e.Close(ctx)
	slog.Info("session closed", slog.String("session_id", id))
	return nil
}

// Sweep closes sessions idle since before now-IdleTTL and returns how many.
func (s *SessionService) Sweep(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTTL)

	s.mu.Lock()
	var idle []*Engine
	for id, e := range s.sessions {
		if e.LastSeen().Before(cutoff) {
			idle = append(idle, e)
			delete(s.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, e := range idle {
		e.Close(ctx)
	}
	if len(idle) > 0 {
		slog.Info("idle sessions closed", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is done.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Shutdown closes every session.
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	all := make([]*Engine, 0, len(s.sessions))
	for _, e := range s.sessions {
		all = append(all, e)
	}
	s.sessions = make(map[string]*Engine)
	metrics.ActiveSessions.Set(0)
	s.mu.Unlock()

	for _, e := range all {
		e.Close(ctx)
	}
}
