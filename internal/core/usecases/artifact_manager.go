package usecases

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/geospatial"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
)

const gpxContentType = "application/gpx+xml"

// ArtifactManager holds the current route artifact of a session and makes
// sure each download handle it creates is revoked exactly once.
type ArtifactManager struct {
	store ports.ArtifactStore
	codec ports.TrackCodec

	mu      sync.Mutex
	current *domain.RouteArtifact
	issued  map[string]struct{}
	closed  bool
}

// NewArtifactManager creates an ArtifactManager.
func NewArtifactManager(store ports.ArtifactStore, codec ports.TrackCodec) *ArtifactManager {
	return &ArtifactManager{store: store, codec: codec, issued: make(map[string]struct{})}
}

// DecodeTrack turns the base64 track payload into raw bytes. Both standard
// and URL-safe alphabets are accepted, padded or not.
func DecodeTrack(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidTrack)
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", domain.ErrInvalidTrack)
}

// Replace builds a new artifact from a snapping result and swaps it in.
// On any error the current artifact is left untouched.
func (m *ArtifactManager) Replace(ctx context.Context, res *domain.SnapResult) (*domain.RouteArtifact, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no result", domain.ErrInvalidTrack)
	}
	data, err := DecodeTrack(res.GPXFile)
	if err != nil {
		return nil, err
	}
	if m.codec != nil {
		if _, err := m.codec.Decode(data); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTrack, err)
		}
	}

	handle, err := m.store.Put(ctx, domain.TrackFilename, gpxContentType, data)
	if err != nil {
		return nil, fmt.Errorf("store track: %w", err)
	}

	points := res.Points
	if points == nil {
		points = domain.GeoPath{}
	}
	artifact := &domain.RouteArtifact{
		ID:           uuid.NewString(),
		Points:       points,
		EncodedTrack: res.GPXFile,
		Handle:       handle,
		Filename:     domain.TrackFilename,
		Segments:     points.Segments(),
		LengthMeters: geospatial.Length(points.LineString()),
		CreatedAt:    time.Now().UTC(),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.revoke(ctx, handle)
		return nil, fmt.Errorf("artifact manager closed")
	}
	prev := m.current
	m.current = artifact
	m.issued[handle] = struct{}{}
	m.mu.Unlock()

	if prev != nil {
		m.revoke(ctx, prev.Handle)
	}
	return artifact, nil
}

// Current returns the live artifact, or nil.
func (m *ArtifactManager) Current() *domain.RouteArtifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Open returns the stored file behind handle if it belongs to the live artifact.
// Handles this manager never issued are ErrArtifactNotFound; issued handles
// that are no longer live are ErrArtifactRevoked.
func (m *ArtifactManager) Open(ctx context.Context, handle string) (*domain.StoredArtifact, error) {
	m.mu.Lock()
	cur := m.current
	_, issued := m.issued[handle]
	m.mu.Unlock()
	if !issued {
		return nil, domain.ErrArtifactNotFound
	}
	if cur == nil || cur.Handle != handle {
		return nil, domain.ErrArtifactRevoked
	}
	return m.store.Get(ctx, handle)
}

// Close revokes the live handle. Calling it again is a no-op.
func (m *ArtifactManager) Close(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	cur := m.current
	m.current = nil
	m.mu.Unlock()

	if cur != nil {
		m.revoke(ctx, cur.Handle)
	}
}

func (m *ArtifactManager) revoke(ctx context.Context, handle string) {
	ok, err := m.store.Revoke(ctx, handle)
	if err != nil {
		logging.FromContext(ctx).Warn("revoke track handle", slog.String("handle", handle), slog.Any("error", err))
		return
	}
	if ok {
		metrics.ArtifactsRevoked.Inc()
	}
}
