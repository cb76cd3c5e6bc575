package usecases

import (
	"fmt"
	"math"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// LineMode selects how straight-line elements are transformed.
type LineMode string

const (
	// LineAnchor transforms only the element's offset.
	LineAnchor LineMode = "anchor"
	// LineEndpoints transforms the first and last point of the line.
	LineEndpoints LineMode = "endpoints"
	// LineVertices transforms every point of the line, like any other element.
	// It is the default.
	LineVertices LineMode = "points"
)

// FrameSource selects where the reference rectangle comes from.
type FrameSource string

const (
	// FrameFixed uses a box of configured extents centered on the viewport center.
	FrameFixed FrameSource = "fixed"
	// FrameBounds uses the last measured map bounds.
	FrameBounds FrameSource = "bounds"
)

// FrameConfig describes the reference rectangle the drawing surface spans.
type FrameConfig struct {
	Source    FrameSource
	BoxWidth  float64 // degrees of longitude
	BoxHeight float64 // degrees of latitude
}

// TransformOptions tunes Transform.
type TransformOptions struct {
	LineMode LineMode
}

// ReferenceFrame resolves the geographic rectangle the drawing surface maps onto.
func ReferenceFrame(vp domain.Viewport, cfg FrameConfig) (domain.Bounds, error) {
	switch cfg.Source {
	case FrameBounds:
		if vp.Bounds == nil {
			return domain.Bounds{}, domain.ErrFrameUnavailable
		}
		return *vp.Bounds, nil
	case FrameFixed, "":
		return domain.BoundsAround(vp.Center, cfg.BoxWidth, cfg.BoxHeight), nil
	default:
		return domain.Bounds{}, fmt.Errorf("unknown frame source %q", cfg.Source)
	}
}

// Transform maps drawing elements onto the frame rectangle.
// The surface's top-left corner is the frame's north-west corner; x grows east
// and y grows south. Output order is element order, then point order.
// An empty scene yields an empty path. A zero-sized surface yields an empty
// path and ErrDegenerateSurface. A point that lands outside WGS 84 range
// (a frame spilling over a pole or the antimeridian, or a point far off
// the surface) yields an empty path and ErrInvalidCoordinate.
func Transform(elements []domain.DrawingElement, frame domain.Bounds, surface domain.Surface, opts TransformOptions) (domain.GeoPath, error) {
	path := domain.GeoPath{}
	if len(elements) == 0 {
		return path, nil
	}
	if !usableDimension(surface.Width) || !usableDimension(surface.Height) {
		return path, fmt.Errorf("%w: %vx%v", domain.ErrDegenerateSurface, surface.Width, surface.Height)
	}

	project := func(p domain.LocalPoint) error {
		fx := p.X / surface.Width
		fy := p.Y / surface.Height
		g, err := domain.NewGeoPoint(frame.MaxLat-fy*frame.Height(), frame.MinLon+fx*frame.Width())
		if err != nil {
			return fmt.Errorf("project (%v, %v): %w", p.X, p.Y, err)
		}
		path = append(path, g)
		return nil
	}

	for _, el := range elements {
		var points []domain.LocalPoint
		switch {
		case el.Kind == domain.ElementLine && (opts.LineMode == LineAnchor || len(el.Points) == 0):
			points = []domain.LocalPoint{{}}
		case el.Kind == domain.ElementLine && opts.LineMode == LineEndpoints:
			points = el.Points[:1]
			if len(el.Points) > 1 {
				points = []domain.LocalPoint{el.Points[0], el.Points[len(el.Points)-1]}
			}
		default:
			points = el.Points
		}
		for _, p := range points {
			if err := project(el.Offset.Add(p)); err != nil {
				return domain.GeoPath{}, err
			}
		}
	}
	return path, nil
}

func usableDimension(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
