package snapping

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/geospatial"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// Local implements ports.Snapper in process. It works from the locally
// transformed sketch rather than the image: the path is simplified to the
// requested point budget, optionally snapped onto roads, and written as GPX.
type Local struct {
	codec ports.TrackCodec
	roads ports.RoadSnapper
}

// NewLocal creates a local snapper. roads may be nil, in which case snap
// requests return the simplified sketch unchanged.
func NewLocal(codec ports.TrackCodec, roads ports.RoadSnapper) *Local {
	return &Local{codec: codec, roads: roads}
}

// Snap implements ports.Snapper.
func (l *Local) Snap(ctx context.Context, req domain.SnapRequest) (_ *domain.SnapResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSnap,
		attribute.String("mode", "local"),
		attribute.Bool("snap", req.Snap),
		attribute.Int("sketch_points", len(req.Sketch)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	path := domain.PathFromLineString(geospatial.Simplify(req.Sketch.LineString(), req.MaxPoints))

	if req.Snap && len(path) > 0 {
		if l.roads == nil {
			logging.FromContext(ctx).Debug("road snapping requested but no road snapper configured")
		} else {
			snapped, err := l.roads.SnapToRoads(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("snap to roads: %w", err)
			}
			if len(snapped) > 0 {
				path = snapped
			} else {
				logging.FromContext(ctx).Warn("road snapper returned no points, keeping sketch",
					slog.Int("points", len(path)))
			}
		}
	}

	data, err := l.codec.Encode("sketch", path)
	if err != nil {
		return nil, fmt.Errorf("encode track: %w", err)
	}
	return &domain.SnapResult{
		Points:  path,
		GPXFile: base64.StdEncoding.EncodeToString(data),
	}, nil
}
