package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
	"github.com/samirrijal/sketchroute/internal/pkg/metrics"
	"github.com/samirrijal/sketchroute/internal/pkg/telemetry"
)

// SubmitRequest is one drawing submission.
type SubmitRequest struct {
	Elements  []domain.DrawingElement
	Surface   domain.Surface
	Snap      bool
	MaxPoints int
}

// PipelineOptions configures a RoutePipeline.
type PipelineOptions struct {
	Frame            FrameConfig
	Transform        TransformOptions
	DefaultMaxPoints int
	MaxPointsCap     int
	Mode             string // metrics label: remote | local
}

// PipelineStatus is the caller-visible state of the pipeline.
type PipelineStatus struct {
	State     domain.SubmissionState `json:"state"`
	Loading   bool                   `json:"loading"`
	InFlight  int                    `json:"in_flight"`
	LastError string                 `json:"last_error,omitempty"`
}

// RoutePipeline turns a drawing into a route artifact through the snapping
// boundary. Submissions are not mutually excluded; the one that completes
// last wins.
type RoutePipeline struct {
	viewport  *ViewportTracker
	renderer  ports.Renderer
	snapper   ports.Snapper
	artifacts *ArtifactManager
	opts      PipelineOptions

	mu        sync.Mutex
	inFlight  int
	state     domain.SubmissionState
	lastError string
}

// NewRoutePipeline wires a pipeline for one session.
func NewRoutePipeline(viewport *ViewportTracker, renderer ports.Renderer, snapper ports.Snapper, artifacts *ArtifactManager, opts PipelineOptions) *RoutePipeline {
	if opts.DefaultMaxPoints <= 0 {
		opts.DefaultMaxPoints = 20
	}
	if opts.MaxPointsCap <= 0 {
		opts.MaxPointsCap = 500
	}
	if opts.Mode == "" {
		opts.Mode = "remote"
	}
	return &RoutePipeline{
		viewport:  viewport,
		renderer:  renderer,
		snapper:   snapper,
		artifacts: artifacts,
		opts:      opts,
		state:     domain.SubmissionIdle,
	}
}

// Loading reports whether any submission is outstanding.
func (p *RoutePipeline) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// Status returns the pipeline state.
func (p *RoutePipeline) Status() PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PipelineStatus{State: p.state, Loading: p.inFlight > 0, InFlight: p.inFlight, LastError: p.lastError}
}

// Preview runs only the local transform against the current viewport.
func (p *RoutePipeline) Preview(elements []domain.DrawingElement, surface domain.Surface) (domain.GeoPath, domain.Bounds, error) {
	frame, err := ReferenceFrame(p.viewport.Snapshot(), p.opts.Frame)
	if err != nil {
		return domain.GeoPath{}, domain.Bounds{}, err
	}
	path, err := Transform(elements, frame, surface, p.opts.Transform)
	return path, frame, err
}

// Submit renders the drawing, sends it with its geographic frame to the
// snapping service and swaps in the resulting artifact. On failure the
// previous artifact stays in place and the loading flag is cleared.
func (p *RoutePipeline) Submit(ctx context.Context, req SubmitRequest) (*domain.RouteArtifact, error) {
	p.begin()

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSubmission,
		attribute.Int("elements", len(req.Elements)),
		attribute.Bool("snap", req.Snap),
	)
	artifact, err := p.run(ctx, req)
	telemetry.EndSpan(span, err)

	p.finish(err)
	if err != nil {
		metrics.RouteSubmissions.WithLabelValues("failed").Inc()
		logging.FromContext(ctx).Warn("route submission failed", slog.Any("error", err))
		return nil, err
	}
	metrics.RouteSubmissions.WithLabelValues("succeeded").Inc()
	return artifact, nil
}

func (p *RoutePipeline) run(ctx context.Context, req SubmitRequest) (*domain.RouteArtifact, error) {
	vp := p.viewport.Snapshot()
	frame, err := ReferenceFrame(vp, p.opts.Frame)
	if err != nil {
		return nil, err
	}

	sketch, err := Transform(req.Elements, frame, req.Surface, p.opts.Transform)
	if err != nil {
		return nil, err
	}

	image, err := p.renderer.Render(ctx, req.Elements, req.Surface)
	if err != nil {
		return nil, fmt.Errorf("render drawing: %w", err)
	}

	start := time.Now()
	res, err := p.snapper.Snap(ctx, domain.SnapRequest{
		Image:     image,
		Center:    vp.Center,
		Frame:     frame,
		Sketch:    sketch,
		Snap:      req.Snap,
		MaxPoints: p.maxPoints(req.MaxPoints),
	})
	metrics.SnapDuration.WithLabelValues(p.opts.Mode).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("snapping service: %w", err)
	}

	return p.artifacts.Replace(ctx, res)
}

func (p *RoutePipeline) maxPoints(requested int) int {
	if requested <= 0 {
		return p.opts.DefaultMaxPoints
	}
	if requested > p.opts.MaxPointsCap {
		return p.opts.MaxPointsCap
	}
	return requested
}

func (p *RoutePipeline) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight++
	p.state = domain.SubmissionLoading
}

func (p *RoutePipeline) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight--
	outcome := domain.SubmissionSucceeded
	p.lastError = ""
	if err != nil {
		outcome = domain.SubmissionFailed
		p.lastError = err.Error()
	}
	// Another submission is still outstanding; stay busy.
	if p.inFlight > 0 {
		return
	}
	p.state = outcome
}
