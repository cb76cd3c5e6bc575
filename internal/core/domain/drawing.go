package domain

// ElementKind discriminates drawing elements.
type ElementKind string

const (
	ElementFreehand ElementKind = "freehand"
	ElementLine     ElementKind = "line"
)

// LocalPoint is a point in drawing-surface pixel space.
type LocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by o.
func (p LocalPoint) Add(o LocalPoint) LocalPoint {
	return LocalPoint{X: p.X + o.X, Y: p.Y + o.Y}
}

// DrawingElement is a read-only snapshot of one shape on the drawing surface.
// Points are relative to Offset.
type DrawingElement struct {
	ID     string       `json:"id,omitempty"`
	Kind   ElementKind  `json:"kind"`
	Offset LocalPoint   `json:"offset"`
	Points []LocalPoint `json:"points"`
}

// Surface is the drawing surface size reported at capture time.
type Surface struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
