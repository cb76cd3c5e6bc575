package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
)

// EngineDeps are the boundaries an engine talks to. Publisher may be nil.
type EngineDeps struct {
	Geocoder  ports.Geocoder
	Renderer  ports.Renderer
	Snapper   ports.Snapper
	Store     ports.ArtifactStore
	Codec     ports.TrackCodec
	Publisher ports.EventPublisher
}

// EngineOptions configures a new engine.
type EngineOptions struct {
	DefaultCenter domain.GeoPoint
	Zoom          int
	Surface       domain.Surface
	Search        SearchOptions
	Pipeline      PipelineOptions
}

// EngineSnapshot is a read-only view of a session.
type EngineSnapshot struct {
	ID         string                   `json:"id"`
	Viewport   domain.Viewport          `json:"viewport"`
	Surface    domain.Surface           `json:"surface"`
	Query      string                   `json:"query"`
	Candidates []domain.SearchCandidate `json:"candidates"`
	Route      *domain.RouteArtifact    `json:"route"`
	Status     PipelineStatus           `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	LastSeen   time.Time                `json:"last_seen"`
}

// Engine is one map-sync session: viewport, search box, route pipeline and
// the artifact it produced.
type Engine struct {
	id        string
	opts      EngineOptions
	publisher ports.EventPublisher

	viewport  *ViewportTracker
	search    *LocationSearch
	pipeline  *RoutePipeline
	artifacts *ArtifactManager

	base   context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	createdAt time.Time
	lastSeen  time.Time
	closed    bool
}

// NewEngine assembles an engine. Call Mount before serving it.
func NewEngine(id string, deps EngineDeps, opts EngineOptions) *Engine {
	if opts.Surface.Width <= 0 || opts.Surface.Height <= 0 {
		opts.Surface = domain.Surface{Width: 350, Height: 350}
	}

	logger := slog.Default().With(slog.String("session_id", id))
	base, cancel := context.WithCancel(logging.WithLogger(context.Background(), logger))

	now := time.Now().UTC()
	e := &Engine{
		id:        id,
		opts:      opts,
		publisher: deps.Publisher,
		viewport:  NewViewportTracker(opts.DefaultCenter, opts.Zoom),
		artifacts: NewArtifactManager(deps.Store, deps.Codec),
		base:      base,
		cancel:    cancel,
		createdAt: now,
		lastSeen:  now,
	}

	searchOpts := opts.Search
	searchOpts.OnResults = func(ctx context.Context, res SearchResult) {
		e.publish(ctx, domain.EventSearchResults, res)
	}
	searchOpts.OnSelect = func(ctx context.Context, c domain.SearchCandidate) {
		vp := e.viewport.UpdateCenter(c.Location)
		e.publish(ctx, domain.EventFlyTo, vp)
	}
	e.search = NewLocationSearch(base, deps.Geocoder, searchOpts)
	e.pipeline = NewRoutePipeline(e.viewport, deps.Renderer, deps.Snapper, e.artifacts, opts.Pipeline)
	return e
}

// ID returns the session ID.
func (e *Engine) ID() string { return e.id }

// Context lives until the engine is closed.
func (e *Engine) Context() context.Context { return e.base }

// Mount seeds the viewport from locator, falling back to the default center.
func (e *Engine) Mount(ctx context.Context, locator ports.Locator) domain.Viewport {
	e.touch()
	vp := e.viewport.Seed(ctx, locator, e.opts.DefaultCenter)
	e.publish(ctx, domain.EventViewportUpdated, vp)
	return vp
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() domain.Viewport {
	return e.viewport.Snapshot()
}

// HandleMapEvent applies a map interaction.
func (e *Engine) HandleMapEvent(ctx context.Context, evt domain.MapEvent) domain.Viewport {
	e.touch()
	vp := e.viewport.HandleEvent(evt)
	e.publish(ctx, domain.EventViewportUpdated, vp)
	return vp
}

// UpdateCenter sets the viewport center.
func (e *Engine) UpdateCenter(ctx context.Context, p domain.GeoPoint) domain.Viewport {
	e.touch()
	vp := e.viewport.UpdateCenter(p)
	e.publish(ctx, domain.EventViewportUpdated, vp)
	return vp
}

// UpdateBounds records measured map bounds.
func (e *Engine) UpdateBounds(ctx context.Context, b domain.Bounds) domain.Viewport {
	e.touch()
	vp := e.viewport.UpdateBounds(b)
	e.publish(ctx, domain.EventViewportUpdated, vp)
	return vp
}

// SearchInput feeds a keystroke into the debounced search box.
func (e *Engine) SearchInput(query string) {
	e.touch()
	e.search.Input(query)
}

// Search runs an immediate search.
func (e *Engine) Search(ctx context.Context, query string) SearchResult {
	e.touch()
	return e.search.Search(ctx, query)
}

// Select picks a candidate and flies the map to it.
func (e *Engine) Select(ctx context.Context, id string) (domain.SearchCandidate, error) {
	e.touch()
	return e.search.Select(ctx, id)
}

// Preview transforms a drawing locally. A zero surface uses the session's.
func (e *Engine) Preview(elements []domain.DrawingElement, surface domain.Surface) (domain.GeoPath, domain.Bounds, error) {
	e.touch()
	if surface == (domain.Surface{}) {
		surface = e.opts.Surface
	}
	return e.pipeline.Preview(elements, surface)
}

// Submit runs the route pipeline. A zero surface uses the session's.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*domain.RouteArtifact, error) {
	e.touch()
	if e.isClosed() {
		return nil, domain.ErrSessionClosed
	}
	if req.Surface == (domain.Surface{}) {
		req.Surface = e.opts.Surface
	}

	artifact, err := e.pipeline.Submit(ctx, req)
	if err != nil {
		e.publish(ctx, domain.EventRouteFailed, map[string]string{"error": err.Error()})
		return nil, err
	}
	e.publish(ctx, domain.EventRouteCompleted, artifact)
	return artifact, nil
}

// Route returns the current artifact, or nil.
func (e *Engine) Route() *domain.RouteArtifact {
	return e.artifacts.Current()
}

// Status returns the pipeline state.
func (e *Engine) Status() PipelineStatus {
	return e.pipeline.Status()
}

// OpenArtifact returns the track file behind a live handle.
func (e *Engine) OpenArtifact(ctx context.Context, handle string) (*domain.StoredArtifact, error) {
	e.touch()
	return e.artifacts.Open(ctx, handle)
}

// Snapshot returns a read-only view of the session.
func (e *Engine) Snapshot() EngineSnapshot {
	query, candidates := e.search.Candidates()
	e.mu.Lock()
	created, seen := e.createdAt, e.lastSeen
	e.mu.Unlock()
	return EngineSnapshot{
		ID:         e.id,
		Viewport:   e.viewport.Snapshot(),
		Surface:    e.opts.Surface,
		Query:      query,
		Candidates: candidates,
		Route:      e.artifacts.Current(),
		Status:     e.pipeline.Status(),
		CreatedAt:  created,
		LastSeen:   seen,
	}
}

// LastSeen is the time of the last interaction.
func (e *Engine) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

// Close tears the session down: pending searches are dropped and the live
// track handle is revoked. Safe to call more than once.
func (e *Engine) Close(ctx context.Context) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.search.Close()
	e.cancel()
	e.artifacts.Close(ctx)
	e.publish(ctx, domain.EventSessionClosed, nil)
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) touch() {
	e.mu.Lock()
	e.lastSeen = time.Now().UTC()
	e.mu.Unlock()
}

func (e *Engine) publish(ctx context.Context, eventType string, payload any) {
	if e.publisher == nil {
		return
	}
	evt := domain.SessionEvent{
		Type:      eventType,
		SessionID: e.id,
		Payload:   payload,
		At:        time.Now().UTC(),
	}
	if err := e.publisher.PublishSessionEvent(ctx, evt); err != nil {
		logging.FromContext(ctx).Warn("publish session event",
			slog.String("session_id", e.id),
			slog.String("type", eventType),
			slog.Any("error", err),
		)
	}
}
