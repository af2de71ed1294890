package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
	"github.com/chesapeake-analytics/geopipe/internal/ops"
	"github.com/chesapeake-analytics/geopipe/internal/store"
)

// twoRegions builds adjacent squares around Baltimore: region A holds both
// test points, region B holds none.
func twoRegions() *geotable.Table {
	t := geotable.New([]string{"geoid"}, 4326)
	for i, ring := range [][]float64{
		{-76.7, 39.2, -76.5, 39.2, -76.5, 39.4, -76.7, 39.4, -76.7, 39.2},
		{-76.5, 39.2, -76.3, 39.2, -76.3, 39.4, -76.5, 39.4, -76.5, 39.2},
	} {
		t.MustAppend(geotable.Row{
			Geom:  geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}).SetSRID(4326),
			Attrs: []any{[]string{"A", "B"}[i]},
		})
	}
	return t
}

func writePointsCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "banks.csv")
	content := `name,longitude,latitude
First National,-76.62,39.30
Harbor Trust,-76.60,39.31
Ghost Branch,,39.50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipelineEndToEnd(t *testing.T) {
	res, err := New(nil).Run(context.Background(), Inputs{
		PointsCSV:      writePointsCSV(t),
		LonColumn:      "longitude",
		LatColumn:      "latitude",
		PointsEPSG:     4326,
		Regions:        twoRegions(),
		Key:            "geoid",
		BufferDistance: 0.5,
		BufferUnit:     ops.UnitMiles,
		BufferEPSG:     2248,
	})
	require.NoError(t, err)

	// The null-coordinate row is dropped at load time.
	assert.Equal(t, 2, res.Points.Len())
	assert.Equal(t, 2, res.Cropped.Len())
	assert.Equal(t, 2, res.Joined.Len())

	// Both regions survive the remerge; the empty one is explicitly zero.
	require.Equal(t, 2, res.Counted.Len())
	counts := map[string]float64{}
	for i := 0; i < res.Counted.Len(); i++ {
		k, err := res.Counted.String(i, "geoid")
		require.NoError(t, err)
		v, err := res.Counted.Float(i, "count")
		require.NoError(t, err)
		counts[k] = v
	}
	assert.Equal(t, map[string]float64{"A": 2, "B": 0}, counts)

	// Buffers are computed in the projected CRS.
	require.Equal(t, 2, res.Buffered.Len())
	assert.Equal(t, 2248, res.Buffered.EPSG())
	_, isPoly := res.Buffered.Row(0).Geom.(*geom.Polygon)
	assert.True(t, isPoly)

	// Every stage reports.
	names := make([]string, len(res.Stages))
	for i, st := range res.Stages {
		names[i] = st.Name
	}
	assert.Equal(t, []string{"load_points", "crop", "sjoin", "count_remerge", "buffer"}, names)
}

func TestPipelineRecordsStages(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(context.Background()))

	_, err = New(st).Run(context.Background(), Inputs{
		PointsCSV:      writePointsCSV(t),
		LonColumn:      "longitude",
		LatColumn:      "latitude",
		PointsEPSG:     4326,
		Regions:        twoRegions(),
		Key:            "geoid",
		BufferDistance: 0.5,
		BufferEPSG:     2248,
	})
	require.NoError(t, err)
}

func TestPipelineValidatesInputs(t *testing.T) {
	_, err := New(nil).Run(context.Background(), Inputs{PointsCSV: "x.csv", Key: "geoid"})
	assert.Error(t, err, "regions are required")

	_, err = New(nil).Run(context.Background(), Inputs{PointsCSV: "x.csv", Regions: twoRegions()})
	assert.Error(t, err, "key is required")
}

func TestPipelineCRSMismatchFails(t *testing.T) {
	regions := twoRegions().WithEPSG(2248)

	_, err := New(nil).Run(context.Background(), Inputs{
		PointsCSV:      writePointsCSV(t),
		LonColumn:      "longitude",
		LatColumn:      "latitude",
		PointsEPSG:     4326,
		Regions:        regions,
		Key:            "geoid",
		BufferDistance: 0.5,
		BufferEPSG:     2248,
	})
	assert.Error(t, err)
}
