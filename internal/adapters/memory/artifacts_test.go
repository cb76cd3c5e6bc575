package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

func TestArtifactStore_Lifecycle(t *testing.T) {
	s := NewArtifactStore()
	ctx := context.Background()

	data := []byte("<gpx/>")
	h, err := s.Put(ctx, domain.TrackFilename, "application/gpx+xml", data)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	data[0] = 'X'

	f, err := s.Get(ctx, h)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(f.Data) != "<gpx/>" || f.Filename != domain.TrackFilename {
		t.Errorf("unexpected file %+v", f)
	}

	ok, err := s.Revoke(ctx, h)
	if err != nil || !ok {
		t.Fatalf("expected first revoke to report live handle, got %v %v", ok, err)
	}
	ok, _ = s.Revoke(ctx, h)
	if ok {
		t.Error("second revoke must report a dead handle")
	}
	if _, err := s.Get(ctx, h); !errors.Is(err, domain.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestArtifactStore_UniqueHandles(t *testing.T) {
	s := NewArtifactStore()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		h, _ := s.Put(context.Background(), "f", "t", nil)
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
	}
}
