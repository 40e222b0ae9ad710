package model

import "github.com/paulmach/orb"

// LatLng is a geographic coordinate in degrees
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns the coordinate as an orb point ([lng, lat] order)
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Valid reports whether the coordinate is finite with latitude in [-90, 90]
// and longitude in [-180, 180]
func (l LatLng) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// Ring converts a sequence of coordinates to a closed orb ring
func Ring(points []LatLng) orb.Ring {
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Point())
	}
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}
