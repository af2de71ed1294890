package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/crs"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output.geojson>",
	Short: "Read a vector or delimited point file and write GeoJSON",
	Long: `Reads a shapefile, GeoJSON, CSV, or XLSX input into a geometry-aware table
and writes it out as GeoJSON. Shapefile and coordinate-column inputs carry no
CRS metadata, so --epsg is required for them; --to reprojects before writing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		epsg, _ := cmd.Flags().GetInt("epsg")
		to, _ := cmd.Flags().GetInt("to")
		lon, _ := cmd.Flags().GetString("lon")
		lat, _ := cmd.Flags().GetString("lat")

		table, err := loadTable(args[0], loadOptions{epsg: epsg, lon: lon, lat: lat})
		if err != nil {
			return eris.Wrap(err, "convert")
		}

		if to != 0 {
			table, err = crs.Transform(table, to)
			if err != nil {
				return eris.Wrap(err, "convert")
			}
		}

		if err := writeGeoJSON(table, args[1]); err != nil {
			return eris.Wrap(err, "convert")
		}

		zap.L().Info("converted",
			zap.String("input", args[0]),
			zap.String("output", args[1]),
			zap.Int("rows", table.Len()),
		)
		fmt.Printf("%d rows written to %s\n", table.Len(), args[1])
		return nil
	},
}

func init() {
	convertCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	convertCmd.Flags().Int("to", 0, "reproject to this EPSG before writing")
	convertCmd.Flags().String("lon", "longitude", "longitude column for CSV/XLSX input")
	convertCmd.Flags().String("lat", "latitude", "latitude column for CSV/XLSX input")
	rootCmd.AddCommand(convertCmd)
}
