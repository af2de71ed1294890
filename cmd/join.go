package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/aggregate"
	"github.com/chesapeake-analytics/geopipe/internal/ops"
)

var joinCmd = &cobra.Command{
	Use:   "join <left> <right> <output.geojson>",
	Short: "Spatially join two layers, optionally counting matches per region",
	Long: `Inner spatial join: keeps left rows whose geometry intersects a right
geometry, carrying the matched right attributes alongside. With --count-key the
output is instead the right table with a per-region match count column, where
regions with no match get an explicit zero.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		epsg, _ := cmd.Flags().GetInt("epsg")
		lon, _ := cmd.Flags().GetString("lon")
		lat, _ := cmd.Flags().GetString("lat")
		countKey, _ := cmd.Flags().GetString("count-key")
		countCol, _ := cmd.Flags().GetString("count-col")

		left, err := loadTable(args[0], loadOptions{epsg: epsg, lon: lon, lat: lat})
		if err != nil {
			return eris.Wrap(err, "join: left")
		}
		right, err := loadTable(args[1], loadOptions{epsg: epsg})
		if err != nil {
			return eris.Wrap(err, "join: right")
		}

		joined, err := ops.SJoin(left, right)
		if err != nil {
			return eris.Wrap(err, "join")
		}

		out := joined
		if countKey != "" {
			out, err = aggregate.JoinCountMerge(joined, right, countKey, countCol)
			if err != nil {
				return eris.Wrap(err, "join")
			}
		}

		if err := writeGeoJSON(out, args[2]); err != nil {
			return eris.Wrap(err, "join")
		}
		fmt.Printf("%d rows written to %s\n", out.Len(), args[2])
		return nil
	},
}

func init() {
	joinCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	joinCmd.Flags().String("lon", "longitude", "longitude column for CSV/XLSX input")
	joinCmd.Flags().String("lat", "latitude", "latitude column for CSV/XLSX input")
	joinCmd.Flags().String("count-key", "", "region key column; emit per-region counts instead of the join")
	joinCmd.Flags().String("count-col", "count", "name of the count column")
	rootCmd.AddCommand(joinCmd)
}
