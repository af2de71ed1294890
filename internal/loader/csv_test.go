package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVPoints(t *testing.T) {
	path := writeTemp(t, "banks.csv", `Name,Longitude,Latitude
First National,-76.61,39.29
Harbor Trust,-76.59,39.31
Ghost Branch,,39.50
`)

	table, err := CSVPoints(path, PointOptions{
		LonColumn: "longitude",
		LatColumn: "latitude",
		EPSG:      4326,
	})
	require.NoError(t, err)

	// The row with an empty longitude is dropped, not zero-filled.
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 4326, table.EPSG())
	assert.Equal(t, []string{"name", "longitude", "latitude"}, table.Columns())

	p := table.Row(0).Geom.(*geom.Point)
	assert.InDelta(t, -76.61, p.X(), 1e-9)
	assert.InDelta(t, 39.29, p.Y(), 1e-9)

	name, err := table.String(1, "name")
	require.NoError(t, err)
	assert.Equal(t, "Harbor Trust", name)
}

func TestCSVPointsUnparsableCoordinate(t *testing.T) {
	path := writeTemp(t, "points.csv", `longitude,latitude
-76.61,39.29
not-a-number,39.30
`)

	table, err := CSVPoints(path, PointOptions{
		LonColumn: "longitude",
		LatColumn: "latitude",
		EPSG:      4326,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestCSVPointsCustomDelimiter(t *testing.T) {
	path := writeTemp(t, "points.txt", "lon|lat\n-76.61|39.29\n")

	table, err := CSVPoints(path, PointOptions{
		LonColumn: "lon",
		LatColumn: "lat",
		EPSG:      4326,
		Delimiter: '|',
	})
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
}

func TestCSVPointsMissingColumn(t *testing.T) {
	path := writeTemp(t, "points.csv", "x,y\n1,2\n")

	_, err := CSVPoints(path, PointOptions{
		LonColumn: "longitude",
		LatColumn: "latitude",
		EPSG:      4326,
	})
	assert.Error(t, err)
}

func TestCSVPointsRequiresEPSG(t *testing.T) {
	path := writeTemp(t, "points.csv", "longitude,latitude\n-76.61,39.29\n")

	_, err := CSVPoints(path, PointOptions{LonColumn: "longitude", LatColumn: "latitude"})
	assert.Error(t, err)
}
