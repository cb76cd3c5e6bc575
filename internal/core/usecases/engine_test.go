package usecases_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
)

type engineFixture struct {
	engine    *usecases.Engine
	geocoder  *mockGeocoder
	snapper   *mockSnapper
	store     *mockStore
	publisher *mockPublisher
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		geocoder:  &mockGeocoder{},
		snapper:   snapOK(domain.GeoPoint{Lat: 1, Lon: 1}, domain.GeoPoint{Lat: 2, Lon: 2}),
		store:     newMockStore(),
		publisher: &mockPublisher{},
	}
	f.engine = usecases.NewEngine("s1", usecases.EngineDeps{
		Geocoder:  f.geocoder,
		Renderer:  &mockRenderer{},
		Snapper:   f.snapper,
		Store:     f.store,
		Codec:     &mockCodec{},
		Publisher: f.publisher,
	}, usecases.EngineOptions{
		DefaultCenter: irvine,
		Zoom:          15,
		Search:        usecases.SearchOptions{Debounce: 20 * time.Millisecond, Limit: 5},
		Pipeline: usecases.PipelineOptions{
			Frame: usecases.FrameConfig{BoxWidth: 0.0088, BoxHeight: 0.0048},
		},
	})
	t.Cleanup(func() { f.engine.Close(context.Background()) })
	return f
}

func TestEngine_MountFallsBackAndPublishes(t *testing.T) {
	f := newEngine(t)
	vp := f.engine.Mount(context.Background(), &mockLocator{})
	if vp.Center != irvine {
		t.Errorf("expected default center, got %v", vp.Center)
	}
	if _, ok := f.publisher.Last(domain.EventViewportUpdated); !ok {
		t.Error("expected viewport.updated event")
	}
}

func TestEngine_SelectFliesToCandidate(t *testing.T) {
	f := newEngine(t)
	ucla := domain.SearchCandidate{ID: "1", Label: "UCLA", Location: domain.GeoPoint{Lat: 34.0689, Lon: -118.4452}}
	f.geocoder.searchFn = func(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
		return []domain.SearchCandidate{ucla}, nil
	}
	ctx := context.Background()

	res := f.engine.Search(ctx, "ucla")
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %v", res.Candidates)
	}
	if _, ok := f.publisher.Last(domain.EventSearchResults); !ok {
		t.Error("expected search.results event")
	}

	if _, err := f.engine.Select(ctx, "1"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if f.engine.Viewport().Center != ucla.Location {
		t.Errorf("expected center at candidate, got %v", f.engine.Viewport().Center)
	}
	evt, ok := f.publisher.Last(domain.EventFlyTo)
	if !ok {
		t.Fatal("expected map.fly_to event")
	}
	if vp, _ := evt.Payload.(domain.Viewport); vp.Center != ucla.Location || evt.SessionID != "s1" {
		t.Errorf("unexpected fly_to event %+v", evt)
	}
	if snap := f.engine.Snapshot(); len(snap.Candidates) != 0 || snap.Query != "" {
		t.Errorf("expected cleared search box, got %q %v", snap.Query, snap.Candidates)
	}

	if _, err := f.engine.Select(ctx, "1"); !errors.Is(err, domain.ErrCandidateNotFound) {
		t.Errorf("expected ErrCandidateNotFound after list cleared, got %v", err)
	}
}

func TestEngine_DebouncedInputPublishesResults(t *testing.T) {
	f := newEngine(t)
	f.geocoder.searchFn = func(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
		return []domain.SearchCandidate{{ID: query, Label: query}}, nil
	}
	f.engine.SearchInput("i")
	f.engine.SearchInput("ir")
	f.engine.SearchInput("irvine")

	waitFor(t, time.Second, func() bool {
		_, ok := f.publisher.Last(domain.EventSearchResults)
		return ok
	})
	if calls := f.geocoder.Calls(); len(calls) != 1 || calls[0] != "irvine" {
		t.Errorf("expected a single request for the last query, got %v", calls)
	}
}

func TestEngine_SubmitPublishesOutcome(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	artifact, err := f.engine.Submit(ctx, usecases.SubmitRequest{Elements: drawing().Elements, Snap: true})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if f.engine.Route() == nil || f.engine.Route().ID != artifact.ID {
		t.Error("expected submitted artifact to be current")
	}
	if _, ok := f.publisher.Last(domain.EventRouteCompleted); !ok {
		t.Error("expected route.completed")
	}

	f.snapper.snapFn = func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
		return nil, errors.New("connection refused")
	}
	if _, err := f.engine.Submit(ctx, usecases.SubmitRequest{Elements: drawing().Elements}); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := f.publisher.Last(domain.EventRouteFailed); !ok {
		t.Error("expected route.failed")
	}
	if f.engine.Route().ID != artifact.ID {
		t.Error("failed submission replaced the artifact")
	}

	file, err := f.engine.OpenArtifact(ctx, artifact.Handle)
	if err != nil || file.Filename != domain.TrackFilename {
		t.Errorf("expected downloadable track, got %v %v", file, err)
	}
}

func TestEngine_CloseRevokesAndRejects(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	artifact, err := f.engine.Submit(ctx, usecases.SubmitRequest{
		Elements: drawing().Elements,
		Surface:  domain.Surface{Width: 350, Height: 350},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.engine.Close(ctx)
	f.engine.Close(ctx)

	if f.store.RevokeCount(artifact.Handle) != 1 {
		t.Errorf("handle revoked %d times, want 1", f.store.RevokeCount(artifact.Handle))
	}
	if f.engine.Context().Err() == nil {
		t.Error("expected engine context cancelled")
	}
	if _, err := f.engine.Submit(ctx, drawing()); !errors.Is(err, domain.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}

	closed := 0
	for _, typ := range f.publisher.Types() {
		if typ == domain.EventSessionClosed {
			closed++
		}
	}
	if closed != 1 {
		t.Errorf("expected one session.closed event, got %d", closed)
	}
}

func TestEngine_PreviewUsesSessionSurface(t *testing.T) {
	f := newEngine(t)
	path, frame, err := f.engine.Preview([]domain.DrawingElement{
		stroke(domain.LocalPoint{X: 0, Y: 0}, domain.LocalPoint{X: 350, Y: 350}),
	}, domain.Surface{})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected 2 points, got %v", path)
	}
	nw, se := frame.NorthWest(), frame.SouthEast()
	if !near(path[0].Lat, nw.Lat, geoTolerance) || !near(path[0].Lon, nw.Lon, geoTolerance) ||
		!near(path[1].Lat, se.Lat, geoTolerance) || !near(path[1].Lon, se.Lon, geoTolerance) {
		t.Errorf("expected corners %v %v, got %v", nw, se, path)
	}
}

func TestEngine_NilPublisher(t *testing.T) {
	e := usecases.NewEngine("quiet", usecases.EngineDeps{
		Geocoder: &mockGeocoder{},
		Renderer: &mockRenderer{},
		Snapper:  &mockSnapper{snapFn: func(ctx context.Context, req domain.SnapRequest) (*domain.SnapResult, error) {
			return &domain.SnapResult{GPXFile: base64.StdEncoding.EncodeToString([]byte(sampleGPX))}, nil
		}},
		Store: newMockStore(),
		Codec: &mockCodec{},
	}, usecases.EngineOptions{DefaultCenter: irvine, Pipeline: usecases.PipelineOptions{
		Frame: usecases.FrameConfig{BoxWidth: 0.01, BoxHeight: 0.01},
	}})
	ctx := context.Background()
	e.Mount(ctx, nil)
	e.UpdateCenter(ctx, irvine)
	if _, err := e.Submit(ctx, drawing()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Close(ctx)
}
