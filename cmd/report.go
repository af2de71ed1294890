package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/boundary"
	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/geotable"
	"github.com/chesapeake-analytics/geopipe/internal/ops"
	"github.com/chesapeake-analytics/geopipe/internal/render"
	"github.com/chesapeake-analytics/geopipe/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <points.csv>",
	Short: "Run the full analysis pipeline and write plots and a map",
	Long: `Runs the end-to-end pipeline: load the point CSV, crop to the region
extent, spatially join, count points per region with zero-fill, and buffer the
points in a projected CRS. Regions come from --regions (a local file) or are
fetched by --state and --geography. Outputs land in the report output
directory: counted and buffered GeoJSON, a choropleth SVG, and an interactive
map page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		lon, _ := cmd.Flags().GetString("lon")
		lat, _ := cmd.Flags().GetString("lat")
		regionsPath, _ := cmd.Flags().GetString("regions")
		regionsEPSG, _ := cmd.Flags().GetInt("regions-epsg")
		state, _ := cmd.Flags().GetString("state")
		geography, _ := cmd.Flags().GetString("geography")
		year, _ := cmd.Flags().GetInt("year")
		key, _ := cmd.Flags().GetString("key")
		outDir, _ := cmd.Flags().GetString("out")

		if key == "" {
			key = cfg.Report.Key
		}
		if outDir == "" {
			outDir = cfg.Report.OutDir
		}
		if year == 0 {
			year = cfg.Boundary.Year
		}

		cache, err := openCache(ctx)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		defer cache.Close()

		var regions *geotable.Table
		switch {
		case regionsPath != "":
			regions, err = loadTable(regionsPath, loadOptions{epsg: regionsEPSG})
		case state != "":
			src := boundary.NewSource(
				boundary.NewDownloader(cfg.Boundary.BaseURL, cfg.Boundary.FTPHost, cfg.Boundary.RatePerSec),
				cache,
				cfg.Cache.Dir,
			)
			regions, err = src.Get(ctx, state, geography, year)
		default:
			return eris.New("report: need --regions or --state")
		}
		if err != nil {
			return eris.Wrap(err, "report: regions")
		}

		res, err := report.New(cache).Run(ctx, report.Inputs{
			PointsCSV:      args[0],
			LonColumn:      lon,
			LatColumn:      lat,
			PointsEPSG:     regions.EPSG(),
			Regions:        regions,
			Key:            key,
			BufferDistance: cfg.Report.BufferMiles,
			BufferUnit:     ops.UnitMiles,
			BufferEPSG:     cfg.Report.BufferEPSG,
		})
		if err != nil {
			return eris.Wrap(err, "report")
		}

		if err := writeReportOutputs(res, outDir); err != nil {
			return eris.Wrap(err, "report")
		}

		for _, st := range res.Stages {
			fmt.Printf("%-14s %6d rows  %s\n", st.Name, st.Rows, st.Duration.Round(time.Millisecond))
		}
		fmt.Printf("outputs written to %s\n", outDir)
		return nil
	},
}

// writeReportOutputs writes every pipeline product: GeoJSON intermediates, a
// choropleth plot of the counted regions with the points on top, and an
// interactive map page.
func writeReportOutputs(res *report.Result, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "create %s", outDir)
	}

	if err := writeGeoJSON(res.Counted, filepath.Join(outDir, "counted.geojson")); err != nil {
		return err
	}
	if err := writeGeoJSON(res.Buffered, filepath.Join(outDir, "buffered.geojson")); err != nil {
		return err
	}

	countStyle := render.Style{
		Stroke: "#555555",
		Choropleth: &render.Choropleth{
			Column:   "count",
			MinColor: "#f7fbff",
			MaxColor: "#08519c",
		},
	}
	pointStyle := render.Style{Fill: "#d94801", Stroke: "#7f2704"}

	layers := []render.Layer{
		{Name: "regions", Table: res.Counted, Style: countStyle},
		{Name: "points", Table: res.Cropped, Style: pointStyle},
	}

	doc, err := render.SVG(layers, render.SVGOptions{})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.svg"), []byte(doc), 0o644); err != nil {
		return eris.Wrap(err, "write report.svg")
	}

	// The buffered layer lives in the projected CRS; bring everything to
	// lon/lat for the web map.
	webLayers := make([]render.Layer, 0, 3)
	for _, l := range append(layers, render.Layer{Name: "buffers", Table: res.Buffered, Style: render.Style{Fill: "#fdae6b"}}) {
		t, err := crs.Transform(l.Table, 4326)
		if err != nil {
			return eris.Wrapf(err, "layer %q", l.Name)
		}
		webLayers = append(webLayers, render.Layer{Name: l.Name, Table: t, Style: l.Style})
	}
	page, err := render.HTML(webLayers, render.HTMLOptions{Title: "analysis report"})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "report.html"), []byte(page), 0o644); err != nil {
		return eris.Wrap(err, "write report.html")
	}
	return nil
}

func init() {
	reportCmd.Flags().String("lon", "longitude", "longitude column in the points CSV")
	reportCmd.Flags().String("lat", "latitude", "latitude column in the points CSV")
	reportCmd.Flags().String("regions", "", "region polygon file (shapefile or GeoJSON)")
	reportCmd.Flags().Int("regions-epsg", 0, "EPSG of the region file when it is a shapefile")
	reportCmd.Flags().String("state", "", "fetch regions for this state instead of --regions")
	reportCmd.Flags().String("geography", "tract", "boundary level when fetching regions")
	reportCmd.Flags().Int("year", 0, "boundary vintage year (default from config)")
	reportCmd.Flags().String("key", "", "unique region key column (default from config)")
	reportCmd.Flags().String("out", "", "output directory (default from config)")
	rootCmd.AddCommand(reportCmd)
}
