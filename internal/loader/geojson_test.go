package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestGeoJSON(t *testing.T) {
	path := writeTemp(t, "regions.geojson", `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"geoid": "24005", "name": "Baltimore County"},
				"geometry": {"type": "Polygon", "coordinates": [[[-76.9, 39.2], [-76.3, 39.2], [-76.3, 39.7], [-76.9, 39.7], [-76.9, 39.2]]]}
			},
			{
				"type": "Feature",
				"properties": {"geoid": "24510"},
				"geometry": {"type": "Point", "coordinates": [-76.61, 39.29]}
			}
		]
	}`)

	table, err := GeoJSON(path)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 4326, table.EPSG())
	// Columns are the sorted union of all property keys.
	assert.Equal(t, []string{"geoid", "name"}, table.Columns())

	_, isPoly := table.Row(0).Geom.(*geom.Polygon)
	assert.True(t, isPoly)

	name, err := table.String(1, "name")
	require.NoError(t, err)
	assert.Equal(t, "", name, "absent property is null")
}

func TestGeoJSONRejectsMissingGeometry(t *testing.T) {
	path := writeTemp(t, "bad.geojson", `{
		"type": "FeatureCollection",
		"features": [{"type": "Feature", "properties": {}, "geometry": null}]
	}`)

	_, err := GeoJSON(path)
	assert.Error(t, err)
}
