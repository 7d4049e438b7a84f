package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var delhi = Coordinate{Lat: 28.6139, Lon: 77.2090}

func TestGenerateGrid_Single(t *testing.T) {
	coords, err := GenerateGrid(delhi, 0, PatternSingle)
	require.NoError(t, err)
	assert.Equal(t, []Coordinate{delhi}, coords)
}

func TestGenerateGrid_Cross5Order(t *testing.T) {
	coords, err := GenerateGrid(delhi, 0.01, PatternCross5)
	require.NoError(t, err)
	require.Len(t, coords, 5)

	want := []Coordinate{
		{Lat: 28.6139, Lon: 77.209},
		{Lat: 28.6239, Lon: 77.209},
		{Lat: 28.6139, Lon: 77.219},
		{Lat: 28.6039, Lon: 77.209},
		{Lat: 28.6139, Lon: 77.199},
	}
	for i := range want {
		assert.Equal(t, want[i], coords[i].Rounded(), "coordinate %d", i)
	}
}

func TestGenerateGrid_Cross5AlwaysFivePoints(t *testing.T) {
	centers := []Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 90, Lon: 180},
		{Lat: -90, Lon: -180},
		{Lat: 89.999, Lon: 179.999},
		{Lat: -33.8688, Lon: 151.2093},
	}
	for _, c := range centers {
		coords, err := GenerateGrid(c, 0.01, PatternCross5)
		require.NoError(t, err)
		require.Len(t, coords, 5)
		assert.Equal(t, c, coords[0], "center must come first")
		for _, p := range coords {
			assert.NoError(t, p.Validate(), "generated point %v must be valid", p)
		}
	}
}

func TestGenerateGrid_WrapsAntimeridian(t *testing.T) {
	coords, err := GenerateGrid(Coordinate{Lat: 10, Lon: 179.995}, 0.01, PatternCross5)
	require.NoError(t, err)
	assert.InDelta(t, -179.995, coords[2].Lon, 1e-9)
}

func TestGenerateGrid_InvalidOffset(t *testing.T) {
	for _, offset := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		_, err := GenerateGrid(delhi, offset, PatternCross5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
}

func TestGenerateGrid_InvalidCenter(t *testing.T) {
	_, err := GenerateGrid(Coordinate{Lat: 91, Lon: 0}, 0.01, PatternCross5)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestGenerateGrid_UnknownPattern(t *testing.T) {
	_, err := GenerateGrid(delhi, 0.01, Pattern("ring"))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestGenerateGrid_Deterministic(t *testing.T) {
	a, err := GenerateGrid(delhi, 0.05, PatternCross5)
	require.NoError(t, err)
	b, err := GenerateGrid(delhi, 0.05, PatternCross5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("CROSS5")
	require.NoError(t, err)
	assert.Equal(t, PatternCross5, p)

	p, err = ParsePattern(" single ")
	require.NoError(t, err)
	assert.Equal(t, PatternSingle, p)

	_, err = ParsePattern("hex")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCoordinate_Validate(t *testing.T) {
	assert.NoError(t, Coordinate{Lat: 90, Lon: -180}.Validate())
	assert.ErrorIs(t, Coordinate{Lat: -90.1, Lon: 0}.Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, Coordinate{Lat: 0, Lon: 180.5}.Validate(), ErrInvalidParameter)
	assert.ErrorIs(t, Coordinate{Lat: math.NaN(), Lon: 0}.Validate(), ErrInvalidParameter)
}

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(delhi, delhi), 1e-9)
	// 0.01° of latitude is roughly 1.11 km everywhere.
	assert.InDelta(t, 1.11, DistanceKm(delhi, Coordinate{Lat: delhi.Lat + 0.01, Lon: delhi.Lon}), 0.01)
}
