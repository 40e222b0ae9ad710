package polyline

import (
	"fmt"
	"math"
	"strings"

	"polyring/internal/model"
)

// Encode converts coordinates to an encoded polyline string at the given precision.
// Precision outside [0, MaxPrecision] falls back to DefaultPrecision.
func Encode(points []model.LatLng, precision int) string {
	if precision < 0 || precision > MaxPrecision {
		precision = DefaultPrecision
	}
	scale := math.Pow10(precision)

	buf := make([]byte, 0, len(points)*8)
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * scale))
		lng := int64(math.Round(p.Lng * scale))

		buf = encodeValue(buf, lat-prevLat)
		buf = encodeValue(buf, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return string(buf)
}

// maxScaled bounds scaled coordinates so every delta fits in an int64
const maxScaled = 1 << 61

// CheckEncodable reports whether every point fits Encode's integer range at
// precision. Encode's output is undefined for points it rejects.
func CheckEncodable(points []model.LatLng, precision int) error {
	if precision < 0 || precision > MaxPrecision {
		return fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	scale := math.Pow10(precision)
	for i, p := range points {
		lat, lng := math.Abs(p.Lat*scale), math.Abs(p.Lng*scale)
		if !(lat <= maxScaled && lng <= maxScaled) {
			return fmt.Errorf("point %d: %w at precision %d: (%v, %v)", i, ErrUnencodable, precision, p.Lat, p.Lng)
		}
	}
	return nil
}

// EncodeLevels encodes one level per point. Levels must be in [0, 63].
func EncodeLevels(levels []int) string {
	var sb strings.Builder
	sb.Grow(len(levels))
	for _, l := range levels {
		if l < 0 {
			l = 0
		} else if l > 0x3f {
			l = 0x3f
		}
		sb.WriteByte(byte(l + 63))
	}
	return sb.String()
}

func encodeValue(buf []byte, value int64) []byte {
	v := uint64(value) << 1
	if value < 0 {
		v = ^v
	}
	for v >= 0x20 {
		buf = append(buf, byte((v&0x1f)|0x20)+63)
		v >>= 5
	}
	return append(buf, byte(v)+63)
}
