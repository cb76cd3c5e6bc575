package ports

import (
	"context"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// Geocoder resolves free text to candidate locations.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error)
}

// Snapper turns a rendered sketch plus its geographic frame into a route.
type Snapper interface {
	Snap(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error)
}

// RoadSnapper snaps an already geographic path onto the road network.
type RoadSnapper interface {
	SnapToRoads(ctx context.Context, path domain.GeoPath) (domain.GeoPath, error)
}

// Renderer rasterizes a drawing scene into an image.
type Renderer interface {
	Render(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) ([]byte, error)
}

// Locator obtains the device's current position.
type Locator interface {
	Locate(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error)
}

// TrackCodec encodes and decodes track files.
type TrackCodec interface {
	Encode(name string, path domain.GeoPath) ([]byte, error)
	Decode(data []byte) (domain.GeoPath, error)
}

// ArtifactStore holds decoded track files behind revocable handles.
type ArtifactStore interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Get(ctx context.Context, handle string) (*domain.StoredArtifact, error)
	// Revoke reports whether the handle was live before the call.
	Revoke(ctx context.Context, handle string) (bool, error)
}

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
