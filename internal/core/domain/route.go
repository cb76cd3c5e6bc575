package domain

import "time"

// TrackFilename is the name under which every track file is offered.
const TrackFilename = "encoded_data.gpx"

// SubmissionState is the state of the route request pipeline.
type SubmissionState string

const (
	SubmissionIdle      SubmissionState = "idle"
	SubmissionLoading   SubmissionState = "loading"
	SubmissionSucceeded SubmissionState = "succeeded"
	SubmissionFailed    SubmissionState = "failed"
)

// SnapRequest is everything the snapping boundary needs for one submission.
type SnapRequest struct {
	Image     []byte  // rendered PNG of the scene
	Center    GeoPoint
	Frame     Bounds
	Sketch    GeoPath // locally transformed drawing
	Snap      bool
	MaxPoints int
}

// SnapResult is the snapping boundary's answer.
type SnapResult struct {
	Points  GeoPath
	GPXFile string // base64
}

// RouteArtifact is the result of a successful submission.
type RouteArtifact struct {
	ID           string    `json:"id"`
	Points       GeoPath   `json:"points"`
	EncodedTrack string    `json:"-"`
	Handle       string    `json:"handle"`
	Filename     string    `json:"filename"`
	Segments     []Segment `json:"segments"`
	LengthMeters float64   `json:"length_meters"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoredArtifact is a decoded track file held behind a revocable handle.
type StoredArtifact struct {
	Handle      string
	Filename    string
	ContentType string
	Data        []byte
}
