package domain

import "time"

// Viewport is the engine's notion of the currently displayed region.
type Viewport struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds *Bounds  `json:"bounds"` // nil before the first measurement
}

// MapEventKind enumerates map interaction events.
type MapEventKind string

const (
	MapEventClick   MapEventKind = "click"
	MapEventDragEnd MapEventKind = "dragend"
	MapEventZoomEnd MapEventKind = "zoomend"
	MapEventLoad    MapEventKind = "load"
)

// MapEvent is a map interaction as reported by the map widget at fire time.
// Click carries the clicked point in At; the other kinds carry the map's own
// center, zoom and bounds.
type MapEvent struct {
	Kind   MapEventKind `json:"kind"`
	At     *GeoPoint    `json:"at,omitempty"`
	Center *GeoPoint    `json:"center,omitempty"`
	Zoom   *int         `json:"zoom,omitempty"`
	Bounds *Bounds      `json:"bounds,omitempty"`
}

// LocateOptions mirrors the browser geolocation request options.
type LocateOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}
