// Package googlemaps wraps the Google Geocoding and Roads APIs.
package googlemaps

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// maxRoadPath is the Roads API limit on points per request.
const maxRoadPath = 100

// Client implements ports.Geocoder and ports.RoadSnapper.
type Client struct {
	client *maps.Client
}

// New creates a Client with the given API key. Extra options (base URL,
// HTTP client) are passed through.
func New(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{client: client}, nil
}

// Search geocodes query and returns at most limit candidates.
func (c *Client) Search(ctx context.Context, query string, limit int) (_ []domain.SearchCandidate, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanGeocode, attribute.String("geocoder", "google"))
	defer func() { telemetry.EndSpan(span, err) }()

	results, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}
	return toCandidates(results, limit), nil
}

// SnapToRoads snaps path onto the road network, interpolating along road
// geometry. Paths longer than the API limit are sent in chunks.
func (c *Client) SnapToRoads(ctx context.Context, path domain.GeoPath) (_ domain.GeoPath, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRoadSnap, attribute.Int("points", len(path)))
	defer func() { telemetry.EndSpan(span, err) }()

	out := domain.GeoPath{}
	for _, chunk := range chunkPath(path, maxRoadPath) {
		resp, err := c.client.SnapToRoad(ctx, &maps.SnapToRoadRequest{
			Path:        toLatLngs(chunk),
			Interpolate: true,
		})
		if err != nil {
			return nil, fmt.Errorf("roads api error: %w", err)
		}
		out = append(out, fromSnapped(resp.SnappedPoints)...)
	}
	return out, nil
}

func toCandidates(results []maps.GeocodingResult, limit int) []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, 0, len(results))
	for _, r := range results {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, domain.SearchCandidate{
			ID:    r.PlaceID,
			Label: r.FormattedAddress,
			Location: domain.GeoPoint{
				Lat: r.Geometry.Location.Lat,
				Lon: r.Geometry.Location.Lng,
			},
		})
	}
	return out
}

func toLatLngs(path domain.GeoPath) []maps.LatLng {
	out := make([]maps.LatLng, len(path))
	for i, p := range path {
		out[i] = maps.LatLng{Lat: p.Lat, Lng: p.Lon}
	}
	return out
}

func fromSnapped(points []maps.SnappedPoint) domain.GeoPath {
	out := make(domain.GeoPath, len(points))
	for i, sp := range points {
		out[i] = domain.GeoPoint{Lat: sp.Location.Lat, Lon: sp.Location.Lng}
	}
	return out
}

func chunkPath(path domain.GeoPath, size int) []domain.GeoPath {
	var chunks []domain.GeoPath
	for len(path) > size {
		chunks = append(chunks, path[:size])
		path = path[size:]
	}
	if len(path) > 0 {
		chunks = append(chunks, path)
	}
	return chunks
}
