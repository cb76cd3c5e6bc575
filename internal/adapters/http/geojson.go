package http

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/geospatial"
)

// segmentsFeatureCollection renders each route segment as its own feature so
// map clients can style or hit-test them one by one.
func segmentsFeatureCollection(path domain.GeoPath) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, s := range path.Segments() {
		f := geojson.NewFeature(orb.LineString{s[0].Orb(), s[1].Orb()})
		f.Properties["index"] = i
		f.Properties["length_meters"] = geospatial.Haversine(s[0].Lat, s[0].Lon, s[1].Lat, s[1].Lon)
		fc.Append(f)
	}
	return fc
}
