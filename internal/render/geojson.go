package render

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// FeatureCollection converts a table to a GeoJSON feature collection. The
// table must be geographic (EPSG:4326), since GeoJSON consumers expect
// lon/lat per RFC 7946.
func FeatureCollection(t *geotable.Table) (*geojson.FeatureCollection, error) {
	if t.EPSG() != 4326 {
		return nil, eris.Errorf("render: geojson requires EPSG:4326, table is EPSG:%d", t.EPSG())
	}

	cols := t.Columns()
	fc := &geojson.FeatureCollection{}
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		props := make(map[string]interface{}, len(cols))
		for j, c := range cols {
			props[c] = row.Attrs[j]
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   row.Geom,
			Properties: props,
		})
	}
	return fc, nil
}

// MarshalGeoJSON converts a table to GeoJSON bytes.
func MarshalGeoJSON(t *geotable.Table) ([]byte, error) {
	fc, err := FeatureCollection(t)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(fc)
	if err != nil {
		return nil, eris.Wrap(err, "render: marshal geojson")
	}
	return data, nil
}
