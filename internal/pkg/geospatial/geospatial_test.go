package geospatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine(t *testing.T) {
	// Irvine to Los Angeles, roughly 56 km.
	d := Haversine(33.6846, -117.8265, 34.0522, -118.2437)
	if d < 54000 || d > 58000 {
		t.Errorf("expected ~56km, got %.0fm", d)
	}
	if Haversine(10, 10, 10, 10) != 0 {
		t.Error("expected zero distance for identical points")
	}
}

func TestLength(t *testing.T) {
	ls := orb.LineString{{0, 0}, {0, 1}, {0, 2}}
	want := 2 * Haversine(0, 0, 1, 0)
	if got := Length(ls); math.Abs(got-want) > 1e-6 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if Length(orb.LineString{{1, 1}}) != 0 {
		t.Error("expected zero length for single point")
	}
}

func TestDownsample(t *testing.T) {
	ls := make(orb.LineString, 101)
	for i := range ls {
		ls[i] = orb.Point{float64(i), 0}
	}

	out := Downsample(ls, 11)
	if len(out) != 11 {
		t.Fatalf("expected 11 points, got %d", len(out))
	}
	if out[0] != ls[0] || out[10] != ls[100] {
		t.Errorf("endpoints not kept: %v .. %v", out[0], out[10])
	}
	for i := 1; i < len(out); i++ {
		if out[i][0] <= out[i-1][0] {
			t.Fatalf("order not preserved at %d: %v", i, out)
		}
	}

	if got := Downsample(ls[:5], 20); len(got) != 5 {
		t.Errorf("short input should be returned unchanged, got %d", len(got))
	}
}

func TestSimplify_RespectsBudget(t *testing.T) {
	// A zig-zag that Douglas-Peucker cannot collapse at small tolerances.
	ls := make(orb.LineString, 200)
	for i := range ls {
		y := 0.0
		if i%2 == 1 {
			y = 0.02
		}
		ls[i] = orb.Point{float64(i) * 0.001, y}
	}

	out := Simplify(ls, 20)
	if len(out) > 20 {
		t.Fatalf("expected at most 20 points, got %d", len(out))
	}
	if out[0] != ls[0] || out[len(out)-1] != ls[len(ls)-1] {
		t.Error("expected endpoints to survive simplification")
	}

	straight := orb.LineString{{0, 0}, {0.5, 0}, {1, 0}, {1.5, 0}}
	if got := Simplify(straight, 2); len(got) != 2 {
		t.Errorf("expected collinear points to collapse to 2, got %d", len(got))
	}
}
