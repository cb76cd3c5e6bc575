// Package render rasterizes drawing scenes.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fogleman/gg"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// PNGRenderer draws the scene as black strokes on white and encodes a PNG of
// a fixed output size, scaling from the drawing surface.
type PNGRenderer struct {
	width     int
	height    int
	lineWidth float64
}

// NewPNGRenderer creates a renderer producing width x height images.
func NewPNGRenderer(width, height int, lineWidth float64) *PNGRenderer {
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 500
	}
	if lineWidth <= 0 {
		lineWidth = 4
	}
	return &PNGRenderer{width: width, height: height, lineWidth: lineWidth}
}

// Render implements ports.Renderer.
func (r *PNGRenderer) Render(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) (_ []byte, err error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanRender,
		attribute.Int("elements", len(elements)),
		attribute.Int("width", r.width),
		attribute.Int("height", r.height),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if surface.Width <= 0 || surface.Height <= 0 {
		return nil, domain.ErrDegenerateSurface
	}
	sx := float64(r.width) / surface.Width
	sy := float64(r.height) / surface.Height

	dc := gg.NewContext(r.width, r.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(r.lineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, el := range elements {
		switch len(el.Points) {
		case 0:
			continue
		case 1:
			p := el.Offset.Add(el.Points[0])
			dc.DrawCircle(p.X*sx, p.Y*sy, r.lineWidth/2)
			dc.Fill()
			continue
		}
		for i, lp := range el.Points {
			p := el.Offset.Add(lp)
			if i == 0 {
				dc.MoveTo(p.X*sx, p.Y*sy)
			} else {
				dc.LineTo(p.X*sx, p.Y*sy)
			}
		}
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
