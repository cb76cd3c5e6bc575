package domain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

func TestNewGeoPoint_Validation(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		wantErr  bool
	}{
		{"irvine", 33.6459, -117.842717, false},
		{"north pole", 90, 0, false},
		{"antimeridian", 0, -180, false},
		{"lat too high", 90.0001, 0, true},
		{"lon too low", 0, -180.5, true},
		{"nan", math.NaN(), 0, true},
		{"inf", 0, math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewGeoPoint(tt.lat, tt.lon)
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestGeoPath_Segments(t *testing.T) {
	if got := (domain.GeoPath{}).Segments(); len(got) != 0 {
		t.Errorf("expected 0 segments for empty path, got %d", len(got))
	}
	if got := (domain.GeoPath{{Lat: 1, Lon: 1}}).Segments(); len(got) != 0 {
		t.Errorf("expected 0 segments for single point, got %d", len(got))
	}

	path := domain.GeoPath{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}}
	segs := path.Segments()
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0][0] != path[0] || segs[0][1] != path[1] || segs[1][0] != path[1] || segs[1][1] != path[2] {
		t.Errorf("segments not paired in order: %+v", segs)
	}
}

func TestBounds_ContainsAndCorners(t *testing.T) {
	c := domain.GeoPoint{Lat: 33.6459, Lon: -117.842717}
	b := domain.BoundsAround(c, 0.0088, 0.0048)

	if !b.Contains(c) {
		t.Error("expected bounds to contain its center")
	}
	if b.Contains(domain.GeoPoint{Lat: 34, Lon: -117.842717}) {
		t.Error("expected point north of box to be outside")
	}
	if math.Abs(b.Width()-0.0088) > 1e-12 || math.Abs(b.Height()-0.0048) > 1e-12 {
		t.Errorf("unexpected extents %v x %v", b.Width(), b.Height())
	}

	corners := b.Corners()
	if corners.TopLeft.Lat != b.MaxLat || corners.TopLeft.Lon != b.MinLon {
		t.Errorf("top-left should be north-west, got %+v", corners.TopLeft)
	}
	if corners.BotRight.Lat != b.MinLat || corners.BotRight.Lon != b.MaxLon {
		t.Errorf("bottom-right should be south-east, got %+v", corners.BotRight)
	}
}

func TestLocateError_MatchesUnavailable(t *testing.T) {
	err := error(&domain.LocateError{Code: domain.LocatePermissionDenied, Message: "denied"})
	if !errors.Is(err, domain.ErrLocationUnavailable) {
		t.Error("expected LocateError to unwrap to ErrLocationUnavailable")
	}
}
