package amrsim

import (
	"fmt"
	"os"

	orb "github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// FeatureCollection describes the layout as geojson in pixel coordinates:
// one polygon per shelf, one closed line per loop, a point per connector and
// a point for the obstacle.
func (l *Layout) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, b := range l.shelves {
		f := geojson.NewFeature(b.ToPolygon())
		f.Properties["kind"] = "shelf"
		f.Properties["index"] = i
		fc.Append(f)
	}

	for _, loop := range loopOrder {
		ring := l.Ring(loop)
		f := geojson.NewFeature(orb.LineString(ring))
		f.Properties["kind"] = "loop"
		f.Properties["name"] = string(loop)
		f.Properties["length"] = planar.Length(ring)
		f.Properties["central"] = l.IsCentral(loop)
		f.Properties["detour"] = string(l.Detour(loop))
		fc.Append(f)
	}

	for _, c := range l.connectors {
		f := geojson.NewFeature(orb.Point{c.X, l.centerY})
		f.Properties["kind"] = "connector"
		f.Properties["name"] = string(c.Name)
		fc.Append(f)
	}

	f := geojson.NewFeature(l.obstacle.Center)
	f.Properties["kind"] = "obstacle"
	f.Properties["radius"] = l.obstacle.Radius
	fc.Append(f)

	return fc
}

// TrailFeatures returns one MultiLineString feature per agent holding its
// recorded trail.
func (s *Simulation) TrailFeatures() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, a := range s.agents {
		f := geojson.NewFeature(s.trails[i].MultiLineString())
		f.Properties["id"] = a.ID
		f.Properties["color"] = a.Color
		f.Properties["loop"] = string(a.Cursor.Loop)
		f.Properties["defaultLoop"] = string(a.defaultLoop)
		fc.Append(f)
	}
	return fc
}

// WriteFeatureCollection writes fc to path as geojson.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	raw, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, raw, 0644)
}
