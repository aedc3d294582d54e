package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestRoundCoordinate(t *testing.T) {
	assert.Equal(t, 14.634912, RoundCoordinate(14.63491234567))
	assert.Equal(t, -90.506882, RoundCoordinate(-90.5068824))
	assert.Equal(t, 1.0, RoundCoordinate(0.9999999))
}

func TestFirstResultExtractsCityAndState(t *testing.T) {
	resp := []maps.GeocodingResult{{
		FormattedAddress: "6a Avenida, Zona 1, Guatemala",
		Geometry:         maps.AddressGeometry{Location: maps.LatLng{Lat: 14.6349, Lng: -90.5069}},
		AddressComponents: []maps.AddressComponent{
			{LongName: "Guatemala City", Types: []string{"locality", "political"}},
			{LongName: "Guatemala Department", Types: []string{"administrative_area_level_1"}},
		},
	}}

	r, err := firstResult(resp)
	require.NoError(t, err)
	assert.Equal(t, "Guatemala City", r.City)
	assert.Equal(t, "Guatemala Department", r.State)
	assert.Equal(t, 14.6349, r.Latitude)
}

func TestFirstResultFallsBackToLevelTwo(t *testing.T) {
	resp := []maps.GeocodingResult{{
		AddressComponents: []maps.AddressComponent{
			{LongName: "Mixco", Types: []string{"administrative_area_level_2"}},
		},
	}}
	r, err := firstResult(resp)
	require.NoError(t, err)
	assert.Equal(t, "Mixco", r.City)

	_, err = firstResult(nil)
	assert.ErrorIs(t, err, ErrNoResults)
}
