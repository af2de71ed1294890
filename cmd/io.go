package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/geotable"
	"github.com/chesapeake-analytics/geopipe/internal/loader"
	"github.com/chesapeake-analytics/geopipe/internal/render"
)

// loadOptions carries the shared input flags of the file-reading commands.
type loadOptions struct {
	epsg int    // source CRS for shapefile/CSV/XLSX input
	lon  string // coordinate column names for CSV/XLSX input
	lat  string
}

// loadTable reads any supported input format into a table, dispatching on
// the file extension.
func loadTable(path string, opts loadOptions) (*geotable.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		if opts.epsg == 0 {
			return nil, eris.Errorf("%s: shapefile input requires --epsg", path)
		}
		return loader.Shapefile(path, opts.epsg)
	case ".geojson", ".json":
		return loader.GeoJSON(path)
	case ".csv", ".txt":
		return loader.CSVPoints(path, loader.PointOptions{
			LonColumn: opts.lon, LatColumn: opts.lat, EPSG: opts.epsg,
		})
	case ".xlsx":
		return loader.XLSXPoints(path, loader.PointOptions{
			LonColumn: opts.lon, LatColumn: opts.lat, EPSG: opts.epsg,
		})
	default:
		return nil, eris.Errorf("%s: unsupported input format", path)
	}
}

// writeGeoJSON writes a table as GeoJSON, transforming to EPSG:4326 first
// when the table carries a projected CRS.
func writeGeoJSON(t *geotable.Table, out string) error {
	if t.EPSG() != 4326 {
		var err error
		t, err = crs.Transform(t, 4326)
		if err != nil {
			return err
		}
	}
	data, err := render.MarshalGeoJSON(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", out)
	}
	return nil
}
