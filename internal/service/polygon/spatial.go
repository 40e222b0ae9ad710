package polygon

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"polyring/internal/model"
)

// minExtent keeps degenerate bounds (points, axis-aligned segments) valid rtree rectangles
const minExtent = 1e-9

// pointSearchRadius is the half-size in degrees of the box used for point lookups
const pointSearchRadius = 1e-7

// polygonSpatial is the rtree item for one polygon version
type polygonSpatial struct {
	id    string
	bound orb.Bound
}

// Bounds implements the rtreego.Spatial interface
func (p *polygonSpatial) Bounds() rtreego.Rect {
	return boundRect(p.bound)
}

func boundRect(b orb.Bound) rtreego.Rect {
	// Convert orb.Bound to rtreego.Rect format ([lng, lat])
	rect, _ := rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{
			math.Max(b.Max[0]-b.Min[0], minExtent),
			math.Max(b.Max[1]-b.Min[1], minExtent),
		},
	)
	return rect
}

func newSpatialTree() *rtreego.Rtree {
	// 2D index with min 25, max 50 entries per node
	return rtreego.NewTree(2, 25, 50)
}

// reindex replaces the index item of e. Polygons with fewer than 3 vertices
// contain nothing and are left out.
func (s *PolygonService) reindex(e *entry) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	if old, ok := s.indexed[e.id]; ok {
		s.spatialIndex.Delete(old)
		delete(s.indexed, e.id)
	}
	if e.polygon.VertexCount() < 3 {
		return
	}

	item := &polygonSpatial{id: e.id, bound: e.polygon.Bound()}
	s.spatialIndex.Insert(item)
	s.indexed[e.id] = item
}

func (s *PolygonService) unindex(id string) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	if old, ok := s.indexed[id]; ok {
		s.spatialIndex.Delete(old)
		delete(s.indexed, id)
	}
}

// rebuildSpatialIndex rebuilds the spatial index from storage
func (s *PolygonService) rebuildSpatialIndex() {
	s.indexMutex.Lock()
	s.spatialIndex = newSpatialTree()
	s.indexed = make(map[string]*polygonSpatial)
	s.indexMutex.Unlock()

	s.storage.ForEach(func(_ string, e *entry) bool {
		s.reindex(e)
		return true
	})
}

// candidatesAt returns ids whose bounding boxes contain point
func (s *PolygonService) candidatesAt(point model.LatLng) []string {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	searchRect, err := rtreego.NewRect(
		rtreego.Point{point.Lng - pointSearchRadius, point.Lat - pointSearchRadius},
		[]float64{2 * pointSearchRadius, 2 * pointSearchRadius},
	)
	if err != nil {
		s.log.Error(err, "invalid search rect", "lat", point.Lat, "lng", point.Lng)
		return nil
	}

	results := s.spatialIndex.SearchIntersect(searchRect)
	ids := make([]string, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.(*polygonSpatial).id)
	}
	return ids
}
