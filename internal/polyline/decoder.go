package polyline

import (
	"fmt"
	"math"

	"polyring/internal/model"
)

// DefaultPrecision is the number of decimal digits per degree used by Google Maps
const DefaultPrecision = 5

// MaxPrecision bounds the scale factor so accumulated values stay exact in a float64
const MaxPrecision = 10

// EncodedPolyline is an encoded point string together with its levels side-channel.
// Levels only matter for rendering and never affect the decoded geometry.
type EncodedPolyline struct {
	Points    string `json:"points"`
	Precision int    `json:"precision"`
	Levels    string `json:"levels,omitempty"`
	NumLevels int    `json:"num_levels,omitempty"`
	Style     Style  `json:"style"`
}

// Style holds presentation attributes passed through to renderers
type Style struct {
	Color   string  `json:"color,omitempty"`
	Weight  int     `json:"weight,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// New creates an encoded polyline with the given precision and levels
func New(points string, precision int, levels string, numLevels int) EncodedPolyline {
	return EncodedPolyline{
		Points:    points,
		Precision: precision,
		Levels:    levels,
		NumLevels: numLevels,
	}
}

// Decode decodes the point string at the polyline's precision
func (p EncodedPolyline) Decode() ([]model.LatLng, error) {
	return Decode(p.Points, p.Precision)
}

// DecodeLevels decodes the levels string, one integer per point
func (p EncodedPolyline) DecodeLevels() ([]int, error) {
	return DecodeLevels(p.Levels)
}

// Decode converts an encoded polyline string to a slice of coordinates.
// Implementation based on Google's Encoded Polyline Algorithm Format.
// A malformed string yields no points at all.
func Decode(encoded string, precision int) ([]model.LatLng, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	scale := math.Pow10(precision)

	var points []model.LatLng
	index := 0
	var lat, lng int64

	for index < len(encoded) {
		dlat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, &MalformedEncodingError{Offset: next, Reason: "missing longitude"}
		}
		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dlat
		lng += dlng

		// Google order: latitude first
		points = append(points, model.LatLng{
			Lat: float64(lat) / scale,
			Lng: float64(lng) / scale,
		})
	}

	return points, nil
}

// DecodeAll decodes each polyline in order and concatenates the results
func DecodeAll(polylines []EncodedPolyline) ([]model.LatLng, error) {
	var points []model.LatLng
	for i, p := range polylines {
		decoded, err := p.Decode()
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}
		points = append(points, decoded...)
	}
	return points, nil
}

// DecodeLevels maps each character to charCode-63
func DecodeLevels(levels string) ([]int, error) {
	if levels == "" {
		return nil, nil
	}
	out := make([]int, len(levels))
	for i := 0; i < len(levels); i++ {
		b, err := chunk(levels, i)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// decodeValue reads one zig-zag encoded delta starting at index
// and returns it with the index of the next unread byte.
func decodeValue(encoded string, index int) (int64, int, error) {
	start := index
	var result uint64
	shift := 0

	for {
		if index >= len(encoded) {
			return 0, index, &MalformedEncodingError{Offset: start, Reason: "truncated chunk sequence"}
		}
		b, err := chunk(encoded, index)
		if err != nil {
			return 0, index, err
		}
		index++

		// the 13th chunk only has room for bits 60..63
		payload := uint64(b & 0x1f)
		if shift > 60 || (shift == 60 && payload > 0xf) {
			return 0, index, &MalformedEncodingError{Offset: start, Reason: "value overflows 64 bits"}
		}
		result |= payload << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	value := int64(result >> 1)
	if result&1 != 0 {
		value = ^value
	}
	return value, index, nil
}

func chunk(s string, i int) (int, error) {
	b := int(s[i]) - 63
	if b < 0 || b > 0x3f {
		return 0, &MalformedEncodingError{Offset: i, Reason: fmt.Sprintf("invalid character %q", s[i])}
	}
	return b, nil
}
