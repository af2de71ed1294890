package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chesapeake-analytics/geopipe/internal/render"
)

var serveCmd = &cobra.Command{
	Use:   "serve <name=path> [name=path ...]",
	Short: "Serve an interactive map of the given layers over HTTP",
	Long: `Serves the interactive map page at / and each layer's raw GeoJSON at
/layers/<name>.geojson. Layers are reprojected to lon/lat for the web map.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		epsg, _ := cmd.Flags().GetInt("epsg")
		styleFile, _ := cmd.Flags().GetString("style")
		title, _ := cmd.Flags().GetString("title")
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Server.Port
		}
		if styleFile == "" {
			styleFile = cfg.Render.StyleFile
		}

		layers, err := parseLayers(args, epsg, styleFile)
		if err != nil {
			return eris.Wrap(err, "serve")
		}
		layers, err = toWGS84(layers)
		if err != nil {
			return eris.Wrap(err, "serve")
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           render.NewServer(layers, title).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("map server listening", zap.Int("port", port), zap.Int("layers", len(layers)))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve")
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "serve: shutdown")
		}
		zap.L().Info("map server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	serveCmd.Flags().String("style", "", "YAML style file keyed by layer name (default from config)")
	serveCmd.Flags().String("title", "geopipe map", "interactive map title")
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
