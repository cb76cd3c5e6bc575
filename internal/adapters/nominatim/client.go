// Package nominatim is a geocoder backed by the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// searchResult is one entry of GET /search?format=json.
type searchResult struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Class       string `json:"class"`
}

// Options configures the client.
type Options struct {
	BaseURL    string
	UserAgent  string
	RatePerSec float64
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements ports.Geocoder.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a Nominatim client. The public instance allows one request per
// second; RatePerSec enforces that across all sessions.
func New(opts Options) *Client {
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      hc,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// Search returns up to limit candidates for query.
func (c *Client) Search(ctx context.Context, query string, limit int) (_ []domain.SearchCandidate, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanGeocode,
		attribute.String("geocoder", "nominatim"),
		attribute.Int("limit", limit),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nominatim rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		p, err := domain.NewGeoPoint(lat, lon)
		if err != nil {
			continue
		}
		candidates = append(candidates, domain.SearchCandidate{
			ID:       strconv.FormatInt(r.PlaceID, 10),
			Label:    r.DisplayName,
			Location: p,
		})
	}
	return candidates, nil
}
