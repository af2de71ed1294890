package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

func joinedTable(keys []string) *geotable.Table {
	t := geotable.New([]string{"name", "geoid"}, 4326)
	for i, k := range keys {
		t.MustAppend(geotable.Row{
			Geom:  geom.NewPointFlat(geom.XY, []float64{float64(i), 0}).SetSRID(4326),
			Attrs: []any{"p", k},
		})
	}
	return t
}

func regionTable(keys []string) *geotable.Table {
	t := geotable.New([]string{"geoid"}, 4326)
	for i, k := range keys {
		ring := []float64{
			float64(i * 10), 0,
			float64(i*10 + 4), 0,
			float64(i*10 + 4), 4,
			float64(i * 10), 4,
			float64(i * 10), 0,
		}
		t.MustAppend(geotable.Row{
			Geom:  geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}).SetSRID(4326),
			Attrs: []any{k},
		})
	}
	return t
}

func TestCountByKey(t *testing.T) {
	joined := joinedTable([]string{"A", "A", "B"})

	counts, err := CountByKey(joined, "geoid")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, counts)

	_, err = CountByKey(joined, "missing")
	assert.Error(t, err)
}

func TestMergeCountsZeroFills(t *testing.T) {
	regions := regionTable([]string{"A", "B", "C"})
	counts := map[string]int{"A": 2, "B": 1}

	out, err := MergeCounts(regions, counts, "geoid", "count")
	require.NoError(t, err)

	// Every region appears exactly once, including the unmatched one.
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"geoid", "count"}, out.Columns())

	got := map[string]float64{}
	total := 0.0
	for i := 0; i < out.Len(); i++ {
		k, err := out.String(i, "geoid")
		require.NoError(t, err)
		v, err := out.Float(i, "count")
		require.NoError(t, err)
		got[k] = v
		total += v
	}
	assert.Equal(t, map[string]float64{"A": 2, "B": 1, "C": 0}, got)
	assert.Equal(t, 3.0, total, "counts are conserved")
}

func TestJoinCountMerge(t *testing.T) {
	joined := joinedTable([]string{"B", "B", "B"})
	regions := regionTable([]string{"A", "B"})

	out, err := JoinCountMerge(joined, regions, "geoid", "n")
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	a, err := out.Float(0, "n")
	require.NoError(t, err)
	b, err := out.Float(1, "n")
	require.NoError(t, err)
	assert.Equal(t, 0.0, a)
	assert.Equal(t, 3.0, b)

	// Region geometries survive the merge.
	_, isPoly := out.Row(0).Geom.(*geom.Polygon)
	assert.True(t, isPoly)
}
