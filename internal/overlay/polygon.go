// Package overlay holds the map overlay geometry: polygons built from
// coordinates or encoded polylines, with vertex editing and area queries.
package overlay

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"

	"polyring/internal/model"
	"polyring/internal/polyline"
	"polyring/internal/util"
)

// Polygon is a mutable ring of vertices with optional holes.
// It is not safe for concurrent use.
type Polygon struct {
	ring  []model.LatLng
	holes [][]model.LatLng
	opts  Options
}

// New creates a polygon from a copy of points
func New(points []model.LatLng, opts Options) *Polygon {
	return &Polygon{
		ring: append([]model.LatLng(nil), points...),
		opts: opts,
	}
}

// FromEncoded decodes the polylines in order. The first one becomes the
// outer ring, every following one an inner ring.
func FromEncoded(polylines []polyline.EncodedPolyline, opts Options) (*Polygon, error) {
	p := &Polygon{opts: opts}
	for i, pl := range polylines {
		points, err := pl.Decode()
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}
		if i == 0 {
			p.ring = points
			continue
		}
		p.holes = append(p.holes, points)
	}
	return p, nil
}

// WithHoles returns a polygon with the given inner rings
func WithHoles(points []model.LatLng, holes [][]model.LatLng, opts Options) *Polygon {
	p := New(points, opts)
	for _, h := range holes {
		p.holes = append(p.holes, append([]model.LatLng(nil), h...))
	}
	return p
}

// VertexCount returns the number of vertices of the outer ring
func (p *Polygon) VertexCount() int {
	return len(p.ring)
}

// Vertex returns the vertex at index
func (p *Polygon) Vertex(index int) (model.LatLng, error) {
	if index < 0 || index >= len(p.ring) {
		return model.LatLng{}, &IndexOutOfRangeError{Op: "vertex", Index: index, Length: len(p.ring)}
	}
	return p.ring[index], nil
}

// Vertices returns a copy of the outer ring
func (p *Polygon) Vertices() []model.LatLng {
	return append([]model.LatLng(nil), p.ring...)
}

// Holes returns a copy of the inner rings
func (p *Polygon) Holes() [][]model.LatLng {
	if len(p.holes) == 0 {
		return nil
	}
	out := make([][]model.LatLng, len(p.holes))
	for i, h := range p.holes {
		out[i] = append([]model.LatLng(nil), h...)
	}
	return out
}

func (p *Polygon) Options() Options {
	return p.opts
}

func (p *Polygon) SetOptions(opts Options) {
	p.opts = opts
}

// ValidatePoints checks that every point is a valid coordinate
func ValidatePoints(points []model.LatLng) error {
	for i, pt := range points {
		if !pt.Valid() {
			return fmt.Errorf("point %d: %w: (%v, %v)", i, ErrInvalidCoordinate, pt.Lat, pt.Lng)
		}
	}
	return nil
}

// InsertVertex inserts point before index. index may equal VertexCount to append.
func (p *Polygon) InsertVertex(index int, point model.LatLng) error {
	if index < 0 || index > len(p.ring) {
		return &IndexOutOfRangeError{Op: "insert vertex", Index: index, Length: len(p.ring)}
	}
	if !point.Valid() {
		return fmt.Errorf("insert vertex: %w: (%v, %v)", ErrInvalidCoordinate, point.Lat, point.Lng)
	}
	p.ring = append(p.ring, model.LatLng{})
	copy(p.ring[index+1:], p.ring[index:])
	p.ring[index] = point
	return nil
}

// DeleteVertex removes the vertex at index
func (p *Polygon) DeleteVertex(index int) error {
	if index < 0 || index >= len(p.ring) {
		return &IndexOutOfRangeError{Op: "delete vertex", Index: index, Length: len(p.ring)}
	}
	p.ring = append(p.ring[:index], p.ring[index+1:]...)
	return nil
}

// Area returns the spherical area in square meters enclosed by the outer
// ring minus its holes. Rings with fewer than 3 vertices have no area.
func (p *Polygon) Area() float64 {
	area := ringArea(p.ring)
	if area == 0 {
		return 0
	}
	for _, h := range p.holes {
		area -= ringArea(h)
	}
	return math.Max(area, 0)
}

func ringArea(points []model.LatLng) float64 {
	if len(points) < 3 {
		return 0
	}
	return math.Abs(geo.Area(model.Ring(points)))
}

// Perimeter returns the great-circle length of the closed outer ring in meters
func (p *Polygon) Perimeter() float64 {
	return util.PathLength(p.ring, true)
}

// Orb converts the polygon to closed orb rings
func (p *Polygon) Orb() orb.Polygon {
	poly := orb.Polygon{model.Ring(p.ring)}
	for _, h := range p.holes {
		poly = append(poly, model.Ring(h))
	}
	return poly
}

// Bound returns the bounding box of the outer ring
func (p *Polygon) Bound() orb.Bound {
	return model.Ring(p.ring).Bound()
}

// Contains reports whether point lies inside the outer ring and outside every hole
func (p *Polygon) Contains(point model.LatLng) bool {
	if len(p.ring) < 3 {
		return false
	}
	return planar.PolygonContains(p.Orb(), point.Point())
}

// Clone returns a deep copy
func (p *Polygon) Clone() *Polygon {
	return WithHoles(p.ring, p.holes, p.opts)
}
