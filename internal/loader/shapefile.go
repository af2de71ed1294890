// Package loader reads vector files (shapefile, GeoJSON) and delimited
// point data (CSV, XLSX) into geometry-aware tables.
package loader

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// Shapefile reads a shapefile into a table tagged with the given EPSG code.
// Shapefiles carry no machine-readable CRS here, so the caller supplies it.
// All DBF fields become string attribute columns; records whose geometry is
// nil or of an unsupported type are skipped and counted.
func Shapefile(path string, epsg int) (*geotable.Table, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = strings.ToLower(strings.TrimRight(f.String(), "\x00"))
	}

	table := geotable.New(cols, epsg)
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		g := shapeToGeom(shape, epsg)
		if g == nil {
			skipped++
			continue
		}

		attrs := make([]any, len(cols))
		for i := range cols {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				attrs[i] = nil
			} else {
				attrs[i] = val
			}
		}

		table.MustAppend(geotable.Row{Geom: g, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("loader: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return table, nil
}
