package usecases_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
)

const sampleGPX = `<?xml version="1.0"?><gpx version="1.1"><trk><trkseg><trkpt lat="33.6" lon="-117.8"/></trkseg></trk></gpx>`

func snapOK(points ...domain.GeoPoint) *mockSnapper {
	return &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		return &domain.SnapResult{Points: points, GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX))}, nil
	}}
}

type pipelineFixture struct {
	viewport *usecases.ViewportTracker
	store    *mockStore
	manager  *usecases.ArtifactManager
	pipeline *usecases.RoutePipeline
}

func newPipeline(snapper *mockSnapper, renderer *mockRenderer, frame usecases.FrameConfig) *pipelineFixture {
	if renderer == nil {
		renderer = &mockRenderer{}
	}
	if frame.BoxWidth == 0 {
		frame.BoxWidth, frame.BoxHeight = 0.0088, 0.0048
	}
	vp := usecases.NewViewportTracker(irvine, 15)
	store := newMockStore()
	mgr := usecases.NewArtifactManager(store, &mockCodec{})
	p := usecases.NewRoutePipeline(vp, renderer, snapper, mgr, usecases.PipelineOptions{
		Frame:     frame,
		Transform: usecases.TransformOptions{LineMode: usecases.LineEndpoints},
	})
	return &pipelineFixture{viewport: vp, store: store, manager: mgr, pipeline: p}
}

func drawing() usecases.SubmitRequest {
	return usecases.SubmitRequest{
		Elements: []domain.DrawingElement{stroke(domain.LocalPoint{X: 0, Y: 0}, domain.LocalPoint{X: 100, Y: 100})},
		Surface:  domain.Surface{Width: 350, Height: 350},
		Snap:     true,
	}
}

func TestRoutePipeline_Submit_BuildsRequest(t *testing.T) {
	var got domain.SnapRequest
	snapper := &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		got = req
		return &domain.SnapResult{
			Points:  domain.GeoPath{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}, {Lat: 3, Lon: 3}},
			GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX)),
		}, nil
	}}
	var renderedSurface domain.Surface
	renderer := &mockRenderer{renderFn: func(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) ([]byte, error) {
		renderedSurface = surface
		return []byte("png"), nil
	}}
	f := newPipeline(snapper, renderer, usecases.FrameConfig{})

	artifact, err := f.pipeline.Submit(context.Background(), drawing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got.Image) != "png" || !got.Snap || got.MaxPoints != 20 {
		t.Errorf("unexpected snap request: image=%q snap=%v max=%d", got.Image, got.Snap, got.MaxPoints)
	}
	if got.Center != irvine || !got.Frame.Contains(irvine) {
		t.Errorf("expected frame around %v, got center %v frame %v", irvine, got.Center, got.Frame)
	}
	if len(got.Sketch) != 2 {
		t.Errorf("expected locally transformed sketch of 2 points, got %v", got.Sketch)
	}
	if renderedSurface != (domain.Surface{Width: 350, Height: 350}) {
		t.Errorf("expected the drawing surface to be passed to the renderer, got %v", renderedSurface)
	}

	// The service may change the point count.
	if len(artifact.Points) != 3 || len(artifact.Segments) != 2 {
		t.Errorf("expected 3 points / 2 segments, got %d / %d", len(artifact.Points), len(artifact.Segments))
	}
	if artifact.Filename != "encoded_data.gpx" || artifact.Handle == "" {
		t.Errorf("unexpected artifact %+v", artifact)
	}
	if st := f.pipeline.Status(); st.State != domain.SubmissionSucceeded || st.Loading {
		t.Errorf("expected succeeded and idle, got %+v", st)
	}
}

func TestRoutePipeline_MaxPointsClamped(t *testing.T) {
	var max int
	snapper := &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		max = req.MaxPoints
		return &domain.SnapResult{GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX))}, nil
	}}
	f := newPipeline(snapper, nil, usecases.FrameConfig{})

	req := drawing()
	req.MaxPoints = 10000
	if _, err := f.pipeline.Submit(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if max != 500 {
		t.Errorf("expected cap 500, got %d", max)
	}
}

func TestRoutePipeline_FailureKeepsPreviousArtifact(t *testing.T) {
	fail := false
	snapper := &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		if fail {
			return nil, errors.New("snapping service returned 502")
		}
		return &domain.SnapResult{
			Points:  domain.GeoPath{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
			GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX)),
		}, nil
	}}
	f := newPipeline(snapper, nil, usecases.FrameConfig{})

	first, err := f.pipeline.Submit(context.Background(), drawing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail = true
	if _, err := f.pipeline.Submit(context.Background(), drawing()); err == nil {
		t.Fatal("expected error")
	}

	if cur := f.manager.Current(); cur == nil || cur.ID != first.ID {
		t.Errorf("expected previous artifact to remain, got %+v", cur)
	}
	if f.store.RevokeCount(first.Handle) != 0 {
		t.Error("failed submission must not revoke the live handle")
	}
	st := f.pipeline.Status()
	if st.Loading || st.State != domain.SubmissionFailed || st.LastError == "" {
		t.Errorf("expected failed, not loading, with error, got %+v", st)
	}
}

func TestRoutePipeline_RenderAndDecodeFailures(t *testing.T) {
	renderer := &mockRenderer{renderFn: func(ctx context.Context, elements []domain.DrawingElement, surface domain.Surface) ([]byte, error) {
		return nil, errors.New("export failed")
	}}
	f := newPipeline(snapOK(), renderer, usecases.FrameConfig{})
	if _, err := f.pipeline.Submit(context.Background(), drawing()); err == nil {
		t.Error("expected render error")
	}

	garbage := &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		return &domain.SnapResult{Points: domain.GeoPath{{Lat: 1, Lon: 1}}, GPXFile: "%%% not base64 %%%"}, nil
	}}
	f = newPipeline(garbage, nil, usecases.FrameConfig{})
	_, err := f.pipeline.Submit(context.Background(), drawing())
	if !errors.Is(err, domain.ErrInvalidTrack) {
		t.Errorf("expected ErrInvalidTrack, got %v", err)
	}
	if f.manager.Current() != nil || f.store.LiveCount() != 0 {
		t.Error("no partial artifact may be produced")
	}
}

func TestRoutePipeline_DegenerateSurfaceAndMissingFrame(t *testing.T) {
	f := newPipeline(snapOK(), nil, usecases.FrameConfig{})
	req := drawing()
	req.Surface = domain.Surface{Width: 0, Height: 350}
	if _, err := f.pipeline.Submit(context.Background(), req); !errors.Is(err, domain.ErrDegenerateSurface) {
		t.Errorf("expected ErrDegenerateSurface, got %v", err)
	}

	f = newPipeline(snapOK(), nil, usecases.FrameConfig{Source: usecases.FrameBounds})
	if _, err := f.pipeline.Submit(context.Background(), drawing()); !errors.Is(err, domain.ErrFrameUnavailable) {
		t.Errorf("expected ErrFrameUnavailable, got %v", err)
	}
	if f.pipeline.Loading() {
		t.Error("loading flag must be cleared after failure")
	}
}

func TestRoutePipeline_LoadingWhileOutstanding(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	snapper := &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		close(entered)
		<-release
		return &domain.SnapResult{GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX))}, nil
	}}
	f := newPipeline(snapper, nil, usecases.FrameConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := f.pipeline.Submit(context.Background(), drawing())
		done <- err
	}()
	<-entered

	if st := f.pipeline.Status(); !st.Loading || st.State != domain.SubmissionLoading {
		t.Errorf("expected loading during round trip, got %+v", st)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.pipeline.Loading() {
		t.Error("expected loading cleared")
	}
}

func TestRoutePipeline_SequentialSubmissionsRevokeEachPrevious(t *testing.T) {
	f := newPipeline(snapOK(domain.GeoPoint{Lat: 1, Lon: 1}, domain.GeoPoint{Lat: 2, Lon: 2}), nil, usecases.FrameConfig{})

	const n = 10
	handles := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a, err := f.pipeline.Submit(context.Background(), drawing())
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		handles = append(handles, a.Handle)
		if live := f.store.LiveCount(); live != 1 {
			t.Fatalf("after submit %d: expected 1 live handle, got %d", i, live)
		}
	}

	for i, h := range handles[:n-1] {
		if c := f.store.RevokeCount(h); c != 1 {
			t.Errorf("handle %d (%s) revoked %d times, want 1", i, h, c)
		}
	}
	if c := f.store.RevokeCount(handles[n-1]); c != 0 {
		t.Errorf("live handle revoked %d times", c)
	}

	f.manager.Close(context.Background())
	f.manager.Close(context.Background())
	if c := f.store.RevokeCount(handles[n-1]); c != 1 {
		t.Errorf("teardown should revoke the last handle exactly once, got %d", c)
	}
	if f.store.LiveCount() != 0 {
		t.Error(fmt.Sprintf("expected no live handles after teardown, got %d", f.store.LiveCount()))
	}
}
