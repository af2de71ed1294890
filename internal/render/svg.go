package render

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SVGOptions configures the static plot viewport.
type SVGOptions struct {
	Width   int
	Height  int
	Padding int // pixels around the data extent
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 960
	}
	if o.Height <= 0 {
		o.Height = 720
	}
	if o.Padding <= 0 {
		o.Padding = 20
	}
	return o
}

// viewport maps table coordinates to SVG pixel space with a uniform scale
// and a flipped y axis.
type viewport struct {
	scale      float64
	minX, maxY float64
	padX, padY float64
}

func (v viewport) point(x, y float64) (float64, float64) {
	return v.padX + (x-v.minX)*v.scale, v.padY + (v.maxY-y)*v.scale
}

// SVG renders layers as a static layered plot. All layers must share one
// CRS; layers are drawn in slice order so later layers sit on top.
func SVG(layers []Layer, opts SVGOptions) (string, error) {
	if len(layers) == 0 {
		return "", eris.New("render: no layers")
	}
	opts = opts.withDefaults()

	epsg := layers[0].Table.EPSG()
	bounds := geom.NewBounds(geom.XY)
	var any bool
	for _, l := range layers {
		if l.Table.EPSG() != epsg {
			return "", eris.Errorf("render: layer %q EPSG:%d differs from EPSG:%d; reproject to a shared CRS first",
				l.Name, l.Table.EPSG(), epsg)
		}
		if b := l.Table.Bounds(); b != nil {
			bounds = extendBounds(bounds, b)
			any = true
		}
	}
	if !any {
		return "", eris.New("render: all layers are empty")
	}

	vp := fitViewport(bounds, opts)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)

	for _, l := range layers {
		if err := renderLayer(&sb, l, vp); err != nil {
			return "", eris.Wrapf(err, "render: layer %q", l.Name)
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

func extendBounds(dst, src *geom.Bounds) *geom.Bounds {
	return dst.Extend(geom.NewPointFlat(geom.XY, []float64{src.Min(0), src.Min(1)})).
		Extend(geom.NewPointFlat(geom.XY, []float64{src.Max(0), src.Max(1)}))
}

func fitViewport(b *geom.Bounds, opts SVGOptions) viewport {
	w := float64(opts.Width - 2*opts.Padding)
	h := float64(opts.Height - 2*opts.Padding)
	dx := b.Max(0) - b.Min(0)
	dy := b.Max(1) - b.Min(1)

	scale := 1.0
	switch {
	case dx == 0 && dy == 0:
	case dx == 0:
		scale = h / dy
	case dy == 0:
		scale = w / dx
	default:
		scale = w / dx
		if h/dy < scale {
			scale = h / dy
		}
	}

	// Center the extent in the viewport.
	padX := float64(opts.Padding) + (w-dx*scale)/2
	padY := float64(opts.Padding) + (h-dy*scale)/2
	return viewport{scale: scale, minX: b.Min(0), maxY: b.Max(1), padX: padX, padY: padY}
}

func renderLayer(sb *strings.Builder, l Layer, vp viewport) error {
	style := l.Style.merged()

	var min, max float64
	if style.Choropleth != nil {
		var err error
		min, max, err = columnRange(l, style.Choropleth.Column)
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(sb, `<g id=%q stroke=%q stroke-width="%g" fill-opacity="%g">`+"\n",
		l.Name, style.Stroke, style.StrokeWidth, style.FillOpacity)

	for i := 0; i < l.Table.Len(); i++ {
		fill := style.Fill
		if style.Choropleth != nil {
			v, err := l.Table.Float(i, style.Choropleth.Column)
			if err != nil {
				return err
			}
			fill, err = style.Choropleth.rampColor(v, min, max)
			if err != nil {
				return err
			}
		}
		if err := renderGeom(sb, l.Table.Row(i).Geom, vp, style, fill); err != nil {
			return err
		}
	}

	sb.WriteString("</g>\n")
	return nil
}

func columnRange(l Layer, col string) (float64, float64, error) {
	var min, max float64
	for i := 0; i < l.Table.Len(); i++ {
		v, err := l.Table.Float(i, col)
		if err != nil {
			return 0, 0, err
		}
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return min, max, nil
}

func renderGeom(sb *strings.Builder, g geom.T, vp viewport, style Style, fill string) error {
	switch s := g.(type) {
	case *geom.Point:
		x, y := vp.point(s.X(), s.Y())
		fmt.Fprintf(sb, `<circle cx="%.2f" cy="%.2f" r="%g" fill=%q/>`+"\n", x, y, style.Radius, fill)
		return nil

	case *geom.MultiPoint:
		coords := s.FlatCoords()
		for i := 0; i+1 < len(coords); i += s.Stride() {
			x, y := vp.point(coords[i], coords[i+1])
			fmt.Fprintf(sb, `<circle cx="%.2f" cy="%.2f" r="%g" fill=%q/>`+"\n", x, y, style.Radius, fill)
		}
		return nil

	case *geom.Polygon:
		fmt.Fprintf(sb, `<path d=%q fill=%q/>`+"\n", polygonPath(s, vp), fill)
		return nil

	case *geom.MultiPolygon:
		var d strings.Builder
		for i := 0; i < s.NumPolygons(); i++ {
			d.WriteString(polygonPath(s.Polygon(i), vp))
		}
		fmt.Fprintf(sb, `<path d=%q fill=%q/>`+"\n", d.String(), fill)
		return nil

	default:
		return eris.Errorf("render: unsupported geometry %T", g)
	}
}

// polygonPath builds an SVG path with one subpath per ring; holes render via
// the default even-odd-compatible nonzero winding from the source data.
func polygonPath(p *geom.Polygon, vp viewport) string {
	var d strings.Builder
	for r := 0; r < p.NumLinearRings(); r++ {
		flat := p.LinearRing(r).FlatCoords()
		for i := 0; i+1 < len(flat); i += 2 {
			x, y := vp.point(flat[i], flat[i+1])
			if i == 0 {
				fmt.Fprintf(&d, "M%.2f %.2f", x, y)
			} else {
				fmt.Fprintf(&d, "L%.2f %.2f", x, y)
			}
		}
		d.WriteString("Z")
	}
	return d.String()
}
