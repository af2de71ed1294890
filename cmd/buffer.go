package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/ops"
)

var bufferCmd = &cobra.Command{
	Use:   "buffer <input> <output.geojson>",
	Short: "Expand geometries by a fixed distance",
	Long: `Replaces every geometry with its dilation by the given distance. Buffering
needs linear units, so the layer is first reprojected to --buffer-epsg (a
projected CRS) before expansion; the output is written back as GeoJSON in
EPSG:4326.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		epsg, _ := cmd.Flags().GetInt("epsg")
		lon, _ := cmd.Flags().GetString("lon")
		lat, _ := cmd.Flags().GetString("lat")
		distance, _ := cmd.Flags().GetFloat64("distance")
		unit, _ := cmd.Flags().GetString("unit")
		bufferEPSG, _ := cmd.Flags().GetInt("buffer-epsg")

		if bufferEPSG == 0 {
			bufferEPSG = cfg.Report.BufferEPSG
		}

		table, err := loadTable(args[0], loadOptions{epsg: epsg, lon: lon, lat: lat})
		if err != nil {
			return eris.Wrap(err, "buffer")
		}

		if table.EPSG() != bufferEPSG {
			table, err = crs.Transform(table, bufferEPSG)
			if err != nil {
				return eris.Wrap(err, "buffer")
			}
		}

		out, err := ops.Buffer(table, distance, ops.Unit(unit))
		if err != nil {
			return eris.Wrap(err, "buffer")
		}

		if err := writeGeoJSON(out, args[1]); err != nil {
			return eris.Wrap(err, "buffer")
		}
		fmt.Printf("%d buffered geometries written to %s\n", out.Len(), args[1])
		return nil
	},
}

func init() {
	bufferCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	bufferCmd.Flags().String("lon", "longitude", "longitude column for CSV/XLSX input")
	bufferCmd.Flags().String("lat", "latitude", "latitude column for CSV/XLSX input")
	bufferCmd.Flags().Float64("distance", 0.5, "buffer distance")
	bufferCmd.Flags().String("unit", "miles", "distance unit: miles, feet, or meters")
	bufferCmd.Flags().Int("buffer-epsg", 0, "projected CRS for the buffer computation (default from config)")
	rootCmd.AddCommand(bufferCmd)
}
