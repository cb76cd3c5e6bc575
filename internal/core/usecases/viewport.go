package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

// GeolocationTimeout bounds the initial position lookup.
const GeolocationTimeout = 5 * time.Second

// ViewportTracker owns the viewport of one session. Every write goes through
// its methods and is applied atomically.
type ViewportTracker struct {
	mu sync.RWMutex
	vp domain.Viewport
}

// NewViewportTracker starts at center with no measured bounds.
func NewViewportTracker(center domain.GeoPoint, zoom int) *ViewportTracker {
	if zoom < 0 {
		zoom = 0
	}
	return &ViewportTracker{vp: domain.Viewport{Center: center, Zoom: zoom}}
}

// Snapshot returns a copy of the current viewport.
func (t *ViewportTracker) Snapshot() domain.Viewport {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyViewport(t.vp)
}

// UpdateCenter moves the center. If the point leaves the measured bounds,
// the bounds are dropped until the map reports new ones.
func (t *ViewportTracker) UpdateCenter(p domain.GeoPoint) domain.Viewport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setCenter(p)
	return copyViewport(t.vp)
}

// UpdateBounds stores measured bounds. If the current center falls outside,
// it moves to the middle of the new rectangle.
func (t *ViewportTracker) UpdateBounds(b domain.Bounds) domain.Viewport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setBounds(b)
	return copyViewport(t.vp)
}

// HandleEvent applies a map interaction event. Click recenters on the clicked
// point; drag-end, zoom-end and load write the map's own center, zoom and
// bounds in one step.
func (t *ViewportTracker) HandleEvent(evt domain.MapEvent) domain.Viewport {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt.Kind {
	case domain.MapEventClick:
		if evt.At != nil {
			t.setCenter(*evt.At)
		}
	case domain.MapEventDragEnd, domain.MapEventZoomEnd, domain.MapEventLoad:
		if evt.Zoom != nil && *evt.Zoom >= 0 {
			t.vp.Zoom = *evt.Zoom
		}
		if evt.Center != nil {
			t.vp.Center = *evt.Center
		}
		if evt.Bounds != nil {
			t.setBounds(*evt.Bounds)
		} else if evt.Center != nil && t.vp.Bounds != nil && !t.vp.Bounds.Contains(*evt.Center) {
			t.vp.Bounds = nil
		}
	}
	return copyViewport(t.vp)
}

// Seed resolves the device position and uses it as center. On failure the
// fallback is used and a warning is logged; it never fails.
func (t *ViewportTracker) Seed(ctx context.Context, locator ports.Locator, fallback domain.GeoPoint) domain.Viewport {
	center := fallback
	if locator == nil {
		return t.UpdateCenter(center)
	}

	lctx, cancel := context.WithTimeout(ctx, GeolocationTimeout)
	defer cancel()

	p, err := locator.Locate(lctx, domain.LocateOptions{
		HighAccuracy: true,
		Timeout:      GeolocationTimeout,
		MaximumAge:   0,
	})
	switch {
	case err != nil:
		logging.FromContext(ctx).Warn("geolocation unavailable, using default center",
			slog.Any("error", err),
			slog.Float64("lat", fallback.Lat),
			slog.Float64("lon", fallback.Lon),
		)
		metrics.GeolocationFallbacks.Inc()
	case !p.Valid():
		logging.FromContext(ctx).Warn("geolocation returned invalid point, using default center",
			slog.Float64("lat", p.Lat), slog.Float64("lon", p.Lon))
		metrics.GeolocationFallbacks.Inc()
	default:
		center = p
	}
	return t.UpdateCenter(center)
}

func (t *ViewportTracker) setCenter(p domain.GeoPoint) {
	t.vp.Center = p
	if t.vp.Bounds != nil && !t.vp.Bounds.Contains(p) {
		t.vp.Bounds = nil
	}
}

func (t *ViewportTracker) setBounds(b domain.Bounds) {
	t.vp.Bounds = &b
	if !b.Contains(t.vp.Center) {
		t.vp.Center = b.Center()
	}
}

func copyViewport(vp domain.Viewport) domain.Viewport {
	if vp.Bounds != nil {
		b := *vp.Bounds
		vp.Bounds = &b
	}
	return vp
}
