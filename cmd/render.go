package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chesapeake-analytics/geopipe/internal/crs"
	"github.com/chesapeake-analytics/geopipe/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <name=path> [name=path ...]",
	Short: "Render layers as a static SVG plot or an interactive map page",
	Long: `Composites one or more layers, given as name=path pairs, in argument order
with later layers on top. --svg writes a static plot; --html writes a
self-contained interactive map page. Styles come from a YAML file keyed by
layer name; unstyled layers get defaults.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		epsg, _ := cmd.Flags().GetInt("epsg")
		svgOut, _ := cmd.Flags().GetString("svg")
		htmlOut, _ := cmd.Flags().GetString("html")
		styleFile, _ := cmd.Flags().GetString("style")
		title, _ := cmd.Flags().GetString("title")

		if svgOut == "" && htmlOut == "" {
			return eris.New("render: need --svg and/or --html")
		}
		if styleFile == "" {
			styleFile = cfg.Render.StyleFile
		}

		layers, err := parseLayers(args, epsg, styleFile)
		if err != nil {
			return eris.Wrap(err, "render")
		}

		if svgOut != "" {
			doc, err := render.SVG(layers, render.SVGOptions{
				Width:  cfg.Render.Width,
				Height: cfg.Render.Height,
			})
			if err != nil {
				return eris.Wrap(err, "render")
			}
			if err := os.WriteFile(svgOut, []byte(doc), 0o644); err != nil {
				return eris.Wrapf(err, "render: write %s", svgOut)
			}
			fmt.Printf("static plot written to %s\n", svgOut)
		}

		if htmlOut != "" {
			webLayers, err := toWGS84(layers)
			if err != nil {
				return eris.Wrap(err, "render")
			}
			doc, err := render.HTML(webLayers, render.HTMLOptions{Title: title})
			if err != nil {
				return eris.Wrap(err, "render")
			}
			if err := os.WriteFile(htmlOut, []byte(doc), 0o644); err != nil {
				return eris.Wrapf(err, "render: write %s", htmlOut)
			}
			fmt.Printf("interactive map written to %s\n", htmlOut)
		}
		return nil
	},
}

// parseLayers loads name=path layer arguments, applying the named style from
// the style file when one exists.
func parseLayers(args []string, epsg int, styleFile string) ([]render.Layer, error) {
	var styles map[string]render.Style
	if styleFile != "" {
		var err error
		styles, err = render.LoadStyles(styleFile)
		if err != nil {
			return nil, err
		}
	}

	layers := make([]render.Layer, 0, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, eris.Errorf("layer argument %q is not name=path", arg)
		}
		table, err := loadTable(path, loadOptions{epsg: epsg, lon: "longitude", lat: "latitude"})
		if err != nil {
			return nil, err
		}
		layers = append(layers, render.Layer{Name: name, Table: table, Style: styles[name]})
	}
	return layers, nil
}

// toWGS84 reprojects every layer to EPSG:4326 for web map output.
func toWGS84(layers []render.Layer) ([]render.Layer, error) {
	out := make([]render.Layer, len(layers))
	for i, l := range layers {
		t, err := crs.Transform(l.Table, 4326)
		if err != nil {
			return nil, eris.Wrapf(err, "layer %q", l.Name)
		}
		out[i] = render.Layer{Name: l.Name, Table: t, Style: l.Style}
	}
	return out, nil
}

func init() {
	renderCmd.Flags().Int("epsg", 0, "source EPSG for shapefile/CSV/XLSX input")
	renderCmd.Flags().String("svg", "", "write a static SVG plot to this path")
	renderCmd.Flags().String("html", "", "write an interactive map page to this path")
	renderCmd.Flags().String("style", "", "YAML style file keyed by layer name (default from config)")
	renderCmd.Flags().String("title", "geopipe map", "interactive map title")
	rootCmd.AddCommand(renderCmd)
}
