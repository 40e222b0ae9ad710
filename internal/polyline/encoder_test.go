package polyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyring/internal/model"
)

func TestEncodeGoogleExample(t *testing.T) {
	points := []model.LatLng{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", Encode(points, DefaultPrecision))
}

func TestEncodeReproducesFountain(t *testing.T) {
	points, err := Decode(fountainOuter, 2)
	require.NoError(t, err)
	assert.Equal(t, fountainOuter, Encode(points, 2))
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(nil, DefaultPrecision))
}

func TestEncodeLevels(t *testing.T) {
	assert.Equal(t, "BBBBB", EncodeLevels([]int{3, 3, 3, 3, 3}))
	assert.Equal(t, "?~", EncodeLevels([]int{-4, 100}))
}

func TestCheckEncodable(t *testing.T) {
	assert.NoError(t, CheckEncodable([]model.LatLng{{Lat: 90, Lng: -180}, {Lat: 33759.66, Lng: 1e6}}, MaxPrecision))

	err := CheckEncodable([]model.LatLng{{Lat: 1, Lng: 1}, {Lat: 1e15, Lng: 0}}, 6)
	assert.ErrorIs(t, err, ErrUnencodable)
	assert.ErrorContains(t, err, "point 1")

	assert.ErrorIs(t, CheckEncodable(nil, 11), ErrInvalidPrecision)
}
