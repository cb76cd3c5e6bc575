package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewGeoPoint validates lat/lon and returns the point.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return GeoPoint{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, lat, lon)
	}
	return p, nil
}

// Valid reports whether both components are finite and within WGS 84 range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Orb converts to an orb point (lon, lat order).
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Tuple returns the [lat, lon] pair used on the wire by map clients.
func (p GeoPoint) Tuple() [2]float64 {
	return [2]float64{p.Lat, p.Lon}
}

// GeoPath is an ordered route; order is travel order.
type GeoPath []GeoPoint

// LineString converts the path to an orb line string.
func (g GeoPath) LineString() orb.LineString {
	ls := make(orb.LineString, len(g))
	for i, p := range g {
		ls[i] = p.Orb()
	}
	return ls
}

// PathFromLineString is the inverse of GeoPath.LineString.
func PathFromLineString(ls orb.LineString) GeoPath {
	path := make(GeoPath, len(ls))
	for i, p := range ls {
		path[i] = GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
	}
	return path
}

// Segment is a pair of consecutive route points, drawn as one polyline piece.
type Segment [2]GeoPoint

// Segments pairs consecutive points. Fewer than two points yields no segments.
func (g GeoPath) Segments() []Segment {
	if len(g) < 2 {
		return []Segment{}
	}
	segs := make([]Segment, 0, len(g)-1)
	for i := 0; i+1 < len(g); i++ {
		segs = append(segs, Segment{g[i], g[i+1]})
	}
	return segs
}

// Bounds represents a geographic bounding box.
// (MinLat, MinLon) is the south-west corner, (MaxLat, MaxLon) the north-east one.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsAround returns the rectangle centered on c with the given full extents in degrees.
func BoundsAround(c GeoPoint, width, height float64) Bounds {
	return Bounds{
		MinLat: c.Lat - height/2,
		MinLon: c.Lon - width/2,
		MaxLat: c.Lat + height/2,
		MaxLon: c.Lon + width/2,
	}
}

func (b Bounds) SouthWest() GeoPoint { return GeoPoint{Lat: b.MinLat, Lon: b.MinLon} }
func (b Bounds) NorthEast() GeoPoint { return GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon} }
func (b Bounds) NorthWest() GeoPoint { return GeoPoint{Lat: b.MaxLat, Lon: b.MinLon} }
func (b Bounds) SouthEast() GeoPoint { return GeoPoint{Lat: b.MinLat, Lon: b.MaxLon} }

// Width is the longitudinal extent in degrees.
func (b Bounds) Width() float64 { return b.MaxLon - b.MinLon }

// Height is the latitudinal extent in degrees.
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{Lat: (b.MinLat + b.MaxLat) / 2, Lon: (b.MinLon + b.MaxLon) / 2}
}

// Orb converts to an orb bound.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{Min: b.SouthWest().Orb(), Max: b.NorthEast().Orb()}
}

// Contains reports whether p lies inside or on the edge of the rectangle.
func (b Bounds) Contains(p GeoPoint) bool {
	return b.Orb().Contains(p.Orb())
}

// Valid reports whether both corners are valid points and the box is not inverted.
func (b Bounds) Valid() bool {
	return b.SouthWest().Valid() && b.NorthEast().Valid() && b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Corners holds the four corners of a reference rectangle.
type Corners struct {
	TopLeft  GeoPoint `json:"top_left"`
	TopRight GeoPoint `json:"top_right"`
	BotLeft  GeoPoint `json:"bot_left"`
	BotRight GeoPoint `json:"bot_right"`
}

// Corners returns the corners as seen on a north-up map.
func (b Bounds) Corners() Corners {
	return Corners{
		TopLeft:  b.NorthWest(),
		TopRight: b.NorthEast(),
		BotLeft:  b.SouthWest(),
		BotRight: b.SouthEast(),
	}
}
