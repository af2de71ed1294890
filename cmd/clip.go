package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/ops"
)

var clipCmd = &cobra.Command{
	Use:   "clip <subject> <reference> <output.geojson>",
	Short: "Crop or exactly intersect a layer against a reference layer",
	Long: `Crops the subject layer to the reference layer's bounding rectangle, or with
--exact computes the true intersection against the reference geometries.
Both inputs must share a CRS.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		epsg, _ := cmd.Flags().GetInt("epsg")
		lon, _ := cmd.Flags().GetString("lon")
		lat, _ := cmd.Flags().GetString("lat")
		exact, _ := cmd.Flags().GetBool("exact")

		subject, err := loadTable(args[0], loadOptions{epsg: epsg, lon: lon, lat: lat})
		if err != nil {
			return eris.Wrap(err, "clip: subject")
		}
		ref, err := loadTable(args[1], loadOptions{epsg: epsg})
		if err != nil {
			return eris.Wrap(err, "clip: reference")
		}

		out := subject
		if exact {
			out, err = ops.Intersect(subject, ref)
		} else {
			out, err = ops.Crop(subject, ref)
		}
		if err != nil {
			return eris.Wrap(err, "clip")
		}

		if err := writeGeoJSON(out, args[2]); err != nil {
			return eris.Wrap(err, "clip")
		}
		fmt.Printf("%d of %d rows kept, written to %s\n", out.Len(), subject.Len(), args[2])
		return nil
	},
}

func init() {
	clipCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	clipCmd.Flags().String("lon", "longitude", "longitude column for CSV/XLSX input")
	clipCmd.Flags().String("lat", "latitude", "latitude column for CSV/XLSX input")
	clipCmd.Flags().Bool("exact", false, "exact intersection instead of bounding-rectangle crop")
	rootCmd.AddCommand(clipCmd)
}
