// Package snapping talks to route snapping backends.
package snapping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// leafletBounds is the JSON shape a Leaflet LatLngBounds serializes to.
type leafletBounds struct {
	SouthWest leafletLatLng `json:"_southWest"`
	NorthEast leafletLatLng `json:"_northEast"`
}

type leafletLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type coordinatizeResponse struct {
	Points  [][]float64 `json:"points"`
	GPXFile string      `json:"gpxFile"`
}

// Client implements ports.Snapper against a remote coordinatize endpoint.
type Client struct {
	url  string
	http *http.Client
}

// NewClient creates a remote snapping client.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// Snap posts the rendered image and its frame as multipart form data.
func (c *Client) Snap(ctx context.Context, req domain.SnapRequest) (_ *domain.SnapResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSnap,
		attribute.String("mode", "remote"),
		attribute.Bool("snap", req.Snap),
		attribute.Int("max_points", req.MaxPoints),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("snapping request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("snapping service status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out coordinatizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode snapping response: %w", err)
	}
	return toResult(out)
}

func encodeForm(req domain.SnapRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", "drawing.png")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, "", err
	}

	bounds, err := json.Marshal(leafletBounds{
		SouthWest: leafletLatLng{Lat: req.Frame.MinLat, Lng: req.Frame.MinLon},
		NorthEast: leafletLatLng{Lat: req.Frame.MaxLat, Lng: req.Frame.MaxLon},
	})
	if err != nil {
		return nil, "", err
	}

	corners := req.Frame.Corners()
	fields := []struct{ k, v string }{
		{"latitude", formatFloat(req.Center.Lat)},
		{"longitude", formatFloat(req.Center.Lon)},
		{"topLeft", formatPoint(corners.TopLeft)},
		{"topRight", formatPoint(corners.TopRight)},
		{"botLeft", formatPoint(corners.BotLeft)},
		{"botRight", formatPoint(corners.BotRight)},
		{"bounds", string(bounds)},
		{"snap", strconv.FormatBool(req.Snap)},
		{"max_points", strconv.Itoa(req.MaxPoints)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.k, f.v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func toResult(r coordinatizeResponse) (*domain.SnapResult, error) {
	path := make(domain.GeoPath, 0, len(r.Points))
	for i, pair := range r.Points {
		if len(pair) < 2 {
			return nil, fmt.Errorf("snapping response point %d: want [lat, lon], got %v", i, pair)
		}
		p, err := domain.NewGeoPoint(pair[0], pair[1])
		if err != nil {
			return nil, fmt.Errorf("snapping response point %d: %w", i, err)
		}
		path = append(path, p)
	}
	return &domain.SnapResult{Points: path, GPXFile: r.GPXFile}, nil
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatPoint(p domain.GeoPoint) string {
	return formatFloat(p.Lat) + "," + formatFloat(p.Lon)
}
