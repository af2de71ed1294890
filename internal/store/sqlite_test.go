package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleLayer() *geotable.Table {
	t := geotable.New([]string{"geoid", "name"}, 4326)
	ring := []float64{-76.9, 39.2, -76.3, 39.2, -76.3, 39.7, -76.9, 39.7, -76.9, 39.2}
	t.MustAppend(geotable.Row{
		Geom:  geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}).SetSRID(4326),
		Attrs: []any{"24005", "Baltimore County"},
	})
	t.MustAppend(geotable.Row{
		Geom:  geom.NewPointFlat(geom.XY, []float64{-76.61, 39.29}).SetSRID(4326),
		Attrs: []any{"24510", nil},
	})
	return t
}

func TestPutGetLayerRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutLayer(ctx, "MD", "county", 2023, sampleLayer()))

	got, err := s.GetLayer(ctx, "MD", "county", 2023)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 4326, got.EPSG())
	assert.Equal(t, []string{"geoid", "name"}, got.Columns())

	p, ok := got.Row(0).Geom.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, -76.9, p.LinearRing(0).FlatCoords()[0])

	geoid, err := got.String(1, "geoid")
	require.NoError(t, err)
	assert.Equal(t, "24510", geoid)
}

func TestGetLayerMissReturnsNil(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetLayer(context.Background(), "MD", "tract", 2023)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutLayerReplacesPrevious(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutLayer(ctx, "MD", "county", 2023, sampleLayer()))

	smaller := geotable.New([]string{"geoid", "name"}, 4326)
	smaller.MustAppend(geotable.Row{
		Geom:  geom.NewPointFlat(geom.XY, []float64{-76.61, 39.29}).SetSRID(4326),
		Attrs: []any{"24510", "Baltimore City"},
	})
	require.NoError(t, s.PutLayer(ctx, "MD", "county", 2023, smaller))

	got, err := s.GetLayer(ctx, "MD", "county", 2023)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Len())
}

func TestHasLayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.HasLayer(ctx, "MD", "county", 2023)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.PutLayer(ctx, "MD", "county", 2023, sampleLayer()))

	ok, err = s.HasLayer(ctx, "MD", "county", 2023)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatusListsLayers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutLayer(ctx, "VA", "tract", 2023, sampleLayer()))
	require.NoError(t, s.PutLayer(ctx, "MD", "county", 2023, sampleLayer()))

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)

	// Ordered by state then geography.
	assert.Equal(t, "MD", status[0].State)
	assert.Equal(t, "VA", status[1].State)
	assert.Equal(t, 2, status[0].RowCount)
	assert.WithinDuration(t, time.Now().UTC(), status[0].FetchedAt, time.Minute)
}

func TestRecordStage(t *testing.T) {
	s := openTestStore(t)
	err := s.RecordStage(context.Background(), "crop", 42, 150*time.Millisecond)
	require.NoError(t, err)
}
