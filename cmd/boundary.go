package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/boundary"
	"github.com/chesapeake-analytics/geopipe/internal/store"
)

var boundaryCmd = &cobra.Command{
	Use:   "boundary",
	Short: "Fetch and cache administrative boundary layers",
}

var boundaryFetchCmd = &cobra.Command{
	Use:   "fetch <output.geojson>",
	Short: "Fetch one boundary layer and write it as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		state, _ := cmd.Flags().GetString("state")
		geography, _ := cmd.Flags().GetString("geography")
		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = cfg.Boundary.Year
		}

		cache, err := openCache(ctx)
		if err != nil {
			return eris.Wrap(err, "boundary fetch")
		}
		defer cache.Close()

		src := boundary.NewSource(
			boundary.NewDownloader(cfg.Boundary.BaseURL, cfg.Boundary.FTPHost, cfg.Boundary.RatePerSec),
			cache,
			cfg.Cache.Dir,
		)

		table, err := src.Get(ctx, state, geography, year)
		if err != nil {
			return eris.Wrap(err, "boundary fetch")
		}

		if err := writeGeoJSON(table, args[0]); err != nil {
			return eris.Wrap(err, "boundary fetch")
		}
		fmt.Printf("%d %s boundaries written to %s\n", table.Len(), geography, args[0])
		return nil
	},
}

var boundaryPrefetchCmd = &cobra.Command{
	Use:   "prefetch",
	Short: "Warm the cache for several states in parallel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		states, _ := cmd.Flags().GetStringSlice("states")
		geography, _ := cmd.Flags().GetString("geography")
		year, _ := cmd.Flags().GetInt("year")
		all, _ := cmd.Flags().GetBool("all")
		if year == 0 {
			year = cfg.Boundary.Year
		}
		if all {
			states = boundary.AllStateAbbrs()
		}
		if len(states) == 0 {
			return eris.New("boundary prefetch: no states given; use --states or --all")
		}

		cache, err := openCache(ctx)
		if err != nil {
			return eris.Wrap(err, "boundary prefetch")
		}
		defer cache.Close()

		src := boundary.NewSource(
			boundary.NewDownloader(cfg.Boundary.BaseURL, cfg.Boundary.FTPHost, cfg.Boundary.RatePerSec),
			cache,
			cfg.Cache.Dir,
		)

		tables, err := src.Prefetch(ctx, states, geography, year, cfg.Boundary.Concurrency)
		if err != nil {
			return eris.Wrap(err, "boundary prefetch")
		}

		total := 0
		for _, t := range tables {
			total += t.Len()
		}
		fmt.Printf("cached %d states, %d boundaries total\n", len(tables), total)
		return nil
	},
}

var boundaryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List cached boundary layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cache, err := openCache(ctx)
		if err != nil {
			return eris.Wrap(err, "boundary status")
		}
		defer cache.Close()

		layers, err := cache.Status(ctx)
		if err != nil {
			return eris.Wrap(err, "boundary status")
		}
		if len(layers) == 0 {
			fmt.Println("cache is empty")
			return nil
		}

		fmt.Printf("%-6s %-10s %-6s %8s  %s\n", "STATE", "GEOGRAPHY", "YEAR", "ROWS", "FETCHED")
		for _, l := range layers {
			fmt.Printf("%-6s %-10s %-6d %8d  %s\n",
				l.State, l.Geography, l.Year, l.RowCount, l.FetchedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// openCache opens the SQLite boundary cache and ensures the schema exists.
func openCache(ctx context.Context) (*store.Store, error) {
	cache, err := store.Open(cfg.Cache.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := cache.Migrate(ctx); err != nil {
		cache.Close()
		return nil, err
	}
	return cache, nil
}

func init() {
	boundaryFetchCmd.Flags().String("state", "", "state abbreviation, e.g. MD")
	boundaryFetchCmd.Flags().String("geography", "tract", "boundary level: "+geographyNames())
	boundaryFetchCmd.Flags().Int("year", 0, "boundary vintage year (default from config)")

	boundaryPrefetchCmd.Flags().StringSlice("states", nil, "state abbreviations to prefetch")
	boundaryPrefetchCmd.Flags().String("geography", "tract", "boundary level: "+geographyNames())
	boundaryPrefetchCmd.Flags().Int("year", 0, "boundary vintage year (default from config)")
	boundaryPrefetchCmd.Flags().Bool("all", false, "prefetch all 50 states plus DC")

	boundaryCmd.AddCommand(boundaryFetchCmd, boundaryPrefetchCmd, boundaryStatusCmd)
	rootCmd.AddCommand(boundaryCmd)
}

func geographyNames() string {
	names := make([]string, 0, len(boundary.Geographies))
	for _, g := range boundary.Geographies {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}
