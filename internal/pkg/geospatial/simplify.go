package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// Douglas-Peucker tolerances tried in order, in degrees (roughly 1 m to 1 km).
var simplifyThresholds = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01}

// Simplify reduces ls to at most maxPoints points, keeping both endpoints.
// Douglas-Peucker is tried with growing tolerance; if the shape still has
// too many vertices it is thinned by even sampling.
func Simplify(ls orb.LineString, maxPoints int) orb.LineString {
	if maxPoints <= 0 || len(ls) <= maxPoints {
		return ls
	}

	out := ls
	for _, threshold := range simplifyThresholds {
		out = simplify.DouglasPeucker(threshold).LineString(ls.Clone())
		if len(out) <= maxPoints {
			return out
		}
	}
	return Downsample(out, maxPoints)
}

// Downsample picks maxPoints evenly spaced vertices, always including the first and last.
func Downsample(ls orb.LineString, maxPoints int) orb.LineString {
	n := len(ls)
	if maxPoints <= 0 || n <= maxPoints {
		return ls
	}
	if maxPoints == 1 {
		return orb.LineString{ls[0]}
	}

	out := make(orb.LineString, 0, maxPoints)
	step := float64(n-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		out = append(out, ls[int(float64(i)*step+0.5)])
	}
	return out
}
