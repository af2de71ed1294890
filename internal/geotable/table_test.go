package geotable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func point(x, y float64) geom.T {
	return geom.NewPointFlat(geom.XY, []float64{x, y})
}

func TestAppendChecksSchemaWidth(t *testing.T) {
	table := New([]string{"name", "value"}, 4326)

	err := table.Append(Row{Geom: point(1, 2), Attrs: []any{"a", 1.5}})
	require.NoError(t, err)

	err = table.Append(Row{Geom: point(1, 2), Attrs: []any{"too", "many", "attrs"}})
	assert.Error(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestColumnIndex(t *testing.T) {
	table := New([]string{"name", "value"}, 4326)

	i, ok := table.ColumnIndex("value")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = table.ColumnIndex("missing")
	assert.False(t, ok)
}

func TestStringAndFloatConversions(t *testing.T) {
	table := New([]string{"name", "value", "count"}, 4326)
	table.MustAppend(Row{Geom: point(0, 0), Attrs: []any{"branch", 1.5, 7}})
	table.MustAppend(Row{Geom: point(0, 0), Attrs: []any{nil, "2.25", nil}})

	s, err := table.String(0, "name")
	require.NoError(t, err)
	assert.Equal(t, "branch", s)

	s, err = table.String(1, "name")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	f, err := table.Float(0, "value")
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	f, err = table.Float(0, "count")
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	f, err = table.Float(1, "value")
	require.NoError(t, err)
	assert.Equal(t, 2.25, f)

	_, err = table.Float(1, "count")
	assert.Error(t, err, "null values are not numeric")

	_, err = table.Float(0, "missing")
	assert.Error(t, err)
}

func TestAddColumn(t *testing.T) {
	table := New([]string{"name"}, 4326)
	table.MustAppend(Row{Geom: point(0, 0), Attrs: []any{"a"}})
	table.MustAppend(Row{Geom: point(1, 1), Attrs: []any{"b"}})

	out, err := table.AddColumn("count", []any{2, 0})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "count"}, out.Columns())
	assert.Equal(t, 2, out.Len())

	v, err := out.Float(1, "count")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	// Original table is untouched.
	assert.Equal(t, []string{"name"}, table.Columns())

	_, err = table.AddColumn("name", []any{"x", "y"})
	assert.Error(t, err, "duplicate column name")

	_, err = table.AddColumn("short", []any{1})
	assert.Error(t, err, "value count mismatch")
}

func TestBounds(t *testing.T) {
	table := New(nil, 4326)
	assert.Nil(t, table.Bounds(), "empty table has no bounds")

	table.MustAppend(Row{Geom: point(-76.6, 39.3), Attrs: nil})
	table.MustAppend(Row{Geom: point(-76.1, 39.7), Attrs: nil})

	b := table.Bounds()
	require.NotNil(t, b)
	assert.Equal(t, -76.6, b.Min(0))
	assert.Equal(t, 39.7, b.Max(1))
}

func TestWithEPSG(t *testing.T) {
	table := New([]string{"name"}, 0)
	table.MustAppend(Row{Geom: point(1, 2), Attrs: []any{"a"}})

	tagged := table.WithEPSG(4326)
	assert.Equal(t, 4326, tagged.EPSG())
	assert.Equal(t, 0, table.EPSG())
	assert.Equal(t, table.Len(), tagged.Len())
}

func TestSameCRS(t *testing.T) {
	a := New(nil, 4326)
	b := New(nil, 4326)
	assert.NoError(t, SameCRS(a, b))

	c := New(nil, 2248)
	assert.Error(t, SameCRS(a, c), "mismatched CRS")

	untagged := New(nil, 0)
	assert.Error(t, SameCRS(a, untagged), "untagged CRS")
}
