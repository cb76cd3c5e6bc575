// Package geolocation provides ports.Locator implementations.
package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// ipAPIResponse is the subset of the ip-api.com JSON answer we read.
type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Country string  `json:"country"`
}

// IPLocator approximates a client's position from its IP address.
type IPLocator struct {
	url  string
	http *http.Client
}

// NewIPLocator creates an IP locator against an ip-api compatible endpoint.
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IPLocator{url: strings.TrimRight(url, "/"), http: &http.Client{Timeout: timeout}}
}

// ForIP binds the locator to one client address.
func (l *IPLocator) ForIP(ip string) *BoundIPLocator {
	return &BoundIPLocator{parent: l, ip: ip}
}

// BoundIPLocator is an IPLocator bound to one client address.
type BoundIPLocator struct {
	parent *IPLocator
	ip     string
}

// Locate implements ports.Locator. Private and loopback addresses are
// resolved as the server's own public address.
func (b *BoundIPLocator) Locate(ctx context.Context, opts domain.LocateOptions) (_ domain.GeoPoint, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanLocate, attribute.String("locator", "ip"))
	defer func() { telemetry.EndSpan(span, err) }()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	target := b.parent.url
	if ip := net.ParseIP(b.ip); ip != nil && !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsUnspecified() {
		target += "/" + ip.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	resp, err := b.parent.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocateTimeout, Message: "Timeout expired"}
		}
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocatePositionUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, &domain.LocateError{
			Code:    domain.LocatePositionUnavailable,
			Message: fmt.Sprintf("ip lookup status %d", resp.StatusCode),
		}
	}

	var out ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocatePositionUnavailable, Message: err.Error()}
	}
	if out.Status != "success" {
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocatePositionUnavailable, Message: out.Message}
	}
	p, err := domain.NewGeoPoint(out.Lat, out.Lon)
	if err != nil {
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocatePositionUnavailable, Message: err.Error()}
	}
	return p, nil
}
