// Package gpx reads and writes GPX 1.1 track files.
package gpx

import (
	"errors"
	"fmt"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

const creator = "sketchroute"

// Codec implements ports.TrackCodec.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec { return &Codec{} }

// Encode writes path as a single-segment GPX 1.1 track.
func (c *Codec) Encode(name string, path domain.GeoPath) ([]byte, error) {
	points := make([]gpxgo.GPXPoint, 0, len(path))
	for _, p := range path {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCoordinate, p)
		}
		points = append(points, gpxgo.GPXPoint{
			Point: gpxgo.Point{Latitude: p.Lat, Longitude: p.Lon},
		})
	}

	doc := &gpxgo.GPX{
		Version: "1.1",
		Creator: creator,
		Tracks: []gpxgo.GPXTrack{{
			Name:     name,
			Segments: []gpxgo.GPXTrackSegment{{Points: points}},
		}},
	}
	data, err := doc.ToXml(gpxgo.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

// Decode parses a GPX document and returns its points in file order: track
// points first, then route points, then waypoints.
func (c *Codec) Decode(data []byte) (domain.GeoPath, error) {
	if len(data) == 0 {
		return nil, errors.New("empty gpx document")
	}
	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	path := domain.GeoPath{}
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				path = append(path, domain.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude})
			}
		}
	}
	for _, rte := range doc.Routes {
		for _, pt := range rte.Points {
			path = append(path, domain.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude})
		}
	}
	for _, wpt := range doc.Waypoints {
		path = append(path, domain.GeoPoint{Lat: wpt.Latitude, Lon: wpt.Longitude})
	}
	return path, nil
}
