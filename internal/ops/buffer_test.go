package ops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestBufferPointHalfMile(t *testing.T) {
	// Maryland state plane, ftUS. Half a mile is 2640 ft.
	points := pointTable(2248, []string{"branch"}, [][2]float64{{1_300_000, 500_000}})

	out, err := Buffer(points, 0.5, UnitMiles)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	p, ok := out.Row(0).Geom.(*geom.Polygon)
	require.True(t, ok)

	const radius = 2640.0
	ring := p.LinearRing(0).FlatCoords()
	for i := 0; i+1 < len(ring); i += 2 {
		d := math.Hypot(ring[i]-1_300_000, ring[i+1]-500_000)
		assert.InDelta(t, radius, d, 0.1, "every vertex sits on the circle")
	}

	assert.True(t, pointInGeom(1_300_000, 500_000, p), "buffer contains its center")

	// A 64-gon loses under 0.2% of the disc area.
	area := abs(signedArea(ring))
	assert.InDelta(t, math.Pi*radius*radius, area, 0.005*math.Pi*radius*radius)

	name, err := out.String(0, "name")
	require.NoError(t, err)
	assert.Equal(t, "branch", name, "attributes carry through")
}

func TestBufferPolygonGrows(t *testing.T) {
	regions := polygonTable(2248, []string{"a"}, [][]float64{square(0, 0, 1000)})

	out, err := Buffer(regions, 100, UnitFeet)
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	p, ok := out.Row(0).Geom.(*geom.Polygon)
	require.True(t, ok)
	ring := p.LinearRing(0).FlatCoords()

	// Original corners are interior points of the dilation.
	for _, c := range [][2]float64{{0, 0}, {1000, 0}, {1000, 1000}, {0, 1000}} {
		assert.True(t, pointInRing(c[0], c[1], ring))
	}

	// Dilated square area: s^2 + 4*s*r + pi*r^2, within the 64-gon error.
	want := 1000.0*1000.0 + 4*1000.0*100.0 + math.Pi*100.0*100.0
	assert.InDelta(t, want, abs(signedArea(ring)), 0.01*want)
}

func TestBufferRefusesGeographicCRS(t *testing.T) {
	points := pointTable(4326, []string{"p"}, [][2]float64{{-76.6, 39.3}})

	_, err := Buffer(points, 0.5, UnitMiles)
	assert.Error(t, err)
}

func TestBufferRejectsBadInputs(t *testing.T) {
	points := pointTable(2248, []string{"p"}, [][2]float64{{0, 0}})

	_, err := Buffer(points, 0, UnitMiles)
	assert.Error(t, err, "non-positive distance")

	_, err = Buffer(points, 1, Unit("furlongs"))
	assert.Error(t, err, "unknown unit")
}

func TestBufferMeterCRSUsesNativeUnits(t *testing.T) {
	// Web Mercator is meter-based: a 1 meter buffer has radius 1.
	points := pointTable(3857, []string{"p"}, [][2]float64{{0, 0}})

	out, err := Buffer(points, 1, UnitMeters)
	require.NoError(t, err)

	ring := out.Row(0).Geom.(*geom.Polygon).LinearRing(0).FlatCoords()
	for i := 0; i+1 < len(ring); i += 2 {
		assert.InDelta(t, 1.0, math.Hypot(ring[i], ring[i+1]), 1e-9)
	}
}
