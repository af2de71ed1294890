package loader

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// geojsonEPSG is the CRS of all RFC 7946 GeoJSON: WGS 84 lon/lat.
const geojsonEPSG = 4326

// GeoJSON reads a GeoJSON FeatureCollection into a table tagged EPSG:4326.
// The column schema is the sorted union of all feature property keys.
func GeoJSON(path string) (*geotable.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "loader: parse geojson %s", path)
	}

	colSet := map[string]bool{}
	for _, f := range fc.Features {
		for k := range f.Properties {
			colSet[k] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	table := geotable.New(cols, geojsonEPSG)
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, eris.Errorf("loader: feature %d of %s has no geometry", i, path)
		}
		attrs := make([]any, len(cols))
		for j, c := range cols {
			attrs[j] = f.Properties[c]
		}
		table.MustAppend(geotable.Row{Geom: f.Geometry, Attrs: attrs})
	}

	return table, nil
}
