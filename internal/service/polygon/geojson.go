package polygon

import (
	"sort"

	"github.com/paulmach/orb/geojson"
)

func (e *entry) feature() *geojson.Feature {
	f := geojson.NewFeature(e.polygon.Orb())
	f.ID = e.id

	opts := e.polygon.Options()
	f.Properties["name"] = e.name
	f.Properties["vertex_count"] = e.polygon.VertexCount()
	f.Properties["area"] = e.polygon.Area()
	f.Properties["stroke"] = opts.StrokeColor
	f.Properties["stroke-width"] = opts.StrokeWeight
	f.Properties["stroke-opacity"] = opts.StrokeOpacity
	if opts.Fill {
		f.Properties["fill"] = opts.FillColor
		f.Properties["fill-opacity"] = opts.FillOpacity
	}
	return f
}

// Feature exports one polygon as a GeoJSON feature
func (s *PolygonService) Feature(id string) (*geojson.Feature, error) {
	e, ok := s.storage.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.feature(), nil
}

// FeatureCollection exports every polygon, ordered by id
func (s *PolygonService) FeatureCollection() *geojson.FeatureCollection {
	entries := s.storage.GetAllValues()
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	fc := geojson.NewFeatureCollection()
	for _, e := range entries {
		fc.Append(e.feature())
	}
	return fc
}
