package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"polyring/internal/model"
)

// EarthRadiusMeters is the mean earth radius used for great-circle lengths
const EarthRadiusMeters = 6371000.0

// Distance returns the great-circle distance between two coordinates in meters
func Distance(a, b model.LatLng) float64 {
	// Convert coordinates from degrees to S2 points
	p1 := s2.PointFromLatLng(s2.LatLngFromDegrees(a.Lat, a.Lng))
	p2 := s2.PointFromLatLng(s2.LatLngFromDegrees(b.Lat, b.Lng))

	angle := s1.Angle(s2.ChordAngleBetweenPoints(p1, p2).Angle())
	return angle.Radians() * EarthRadiusMeters
}

// PathLength sums the great-circle distances along the points.
// When closed is true the segment from the last point back to the first is included.
func PathLength(points []model.LatLng, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	if closed {
		total += Distance(points[len(points)-1], points[0])
	}
	return total
}
