package http

import (
	"github.com/samirrijal/sketchroute/internal/core/domain"
)

type pointDTO struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lon *float64 `json:"lon" validate:"required,longitude"`
}

// toDomain must only be called after validation.
func (p pointDTO) toDomain() domain.GeoPoint {
	return domain.GeoPoint{Lat: *p.Lat, Lon: *p.Lon}
}

type boundsDTO struct {
	MinLat float64 `json:"min_lat" validate:"latitude"`
	MinLon float64 `json:"min_lon" validate:"longitude"`
	MaxLat float64 `json:"max_lat" validate:"latitude,gtefield=MinLat"`
	MaxLon float64 `json:"max_lon" validate:"longitude,gtefield=MinLon"`
}

func (b boundsDTO) toDomain() domain.Bounds {
	return domain.Bounds{MinLat: b.MinLat, MinLon: b.MinLon, MaxLat: b.MaxLat, MaxLon: b.MaxLon}
}

type surfaceDTO struct {
	Width  float64 `json:"width" validate:"gt=0,lte=10000"`
	Height float64 `json:"height" validate:"gt=0,lte=10000"`
}

func (s *surfaceDTO) toDomain() domain.Surface {
	if s == nil {
		return domain.Surface{}
	}
	return domain.Surface{Width: s.Width, Height: s.Height}
}

type locateErrorDTO struct {
	Code    int    `json:"code" validate:"min=1,max=3"`
	Message string `json:"message" validate:"max=500"`
}

// createSessionRequest carries what the browser learned before opening a
// session. Position and LocateError are mutually exclusive; with neither, the
// client's IP address is used.
type createSessionRequest struct {
	Position    *pointDTO       `json:"position" validate:"excluded_with=LocateError"`
	LocateError *locateErrorDTO `json:"locate_error"`
	Surface     *surfaceDTO     `json:"surface"`
	Zoom        int             `json:"zoom" validate:"min=0,max=22"`
}

type mapEventRequest struct {
	Kind   string     `json:"kind" validate:"required,oneof=click dragend zoomend load"`
	At     *pointDTO  `json:"at" validate:"required_if=Kind click"`
	Center *pointDTO  `json:"center"`
	Zoom   *int       `json:"zoom" validate:"omitempty,min=0,max=22"`
	Bounds *boundsDTO `json:"bounds"`
}

func (r mapEventRequest) toDomain() domain.MapEvent {
	evt := domain.MapEvent{Kind: domain.MapEventKind(r.Kind), Zoom: r.Zoom}
	if r.At != nil {
		p := r.At.toDomain()
		evt.At = &p
	}
	if r.Center != nil {
		p := r.Center.toDomain()
		evt.Center = &p
	}
	if r.Bounds != nil {
		b := r.Bounds.toDomain()
		evt.Bounds = &b
	}
	return evt
}

type searchInputRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type selectRequest struct {
	ID string `json:"id" validate:"required,max=128"`
}

type localPointDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type elementDTO struct {
	ID     string          `json:"id" validate:"max=64"`
	Kind   string          `json:"kind" validate:"required,oneof=freehand line"`
	Offset localPointDTO   `json:"offset"`
	Points []localPointDTO `json:"points" validate:"max=10000"`
}

type drawingRequest struct {
	Elements []elementDTO `json:"elements" validate:"max=500,dive"`
	Surface  *surfaceDTO  `json:"surface"`
}

func (r drawingRequest) elements() []domain.DrawingElement {
	out := make([]domain.DrawingElement, len(r.Elements))
	for i, e := range r.Elements {
		pts := make([]domain.LocalPoint, len(e.Points))
		for j, p := range e.Points {
			pts[j] = domain.LocalPoint{X: p.X, Y: p.Y}
		}
		out[i] = domain.DrawingElement{
			ID:     e.ID,
			Kind:   domain.ElementKind(e.Kind),
			Offset: domain.LocalPoint{X: e.Offset.X, Y: e.Offset.Y},
			Points: pts,
		}
	}
	return out
}

type submitRequest struct {
	drawingRequest
	Snap      *bool `json:"snap"` // defaults to true
	MaxPoints int   `json:"max_points" validate:"min=0,max=500"`
}

// transformResponse is the local preview of a drawing.
type transformResponse struct {
	Frame    domain.Bounds    `json:"frame"`
	Corners  domain.Corners   `json:"corners"`
	Points   domain.GeoPath   `json:"points"`
	Segments []domain.Segment `json:"segments"`
}
