// Package render draws geometry-aware tables as static layered SVG plots or
// interactive Leaflet map documents. It is a pure visualization sink: layers
// are composited in call order with no computation beyond viewport scaling.
package render

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/chesapeake-analytics/geopipe/internal/geotable"
)

// Choropleth shades polygon fills from a numeric attribute column.
type Choropleth struct {
	Column   string `yaml:"column"`
	MinColor string `yaml:"min_color"`
	MaxColor string `yaml:"max_color"`
	Classes  int    `yaml:"classes"` // 0 = continuous ramp
}

// Style is the symbology of one layer.
type Style struct {
	Stroke      string      `yaml:"stroke"`
	StrokeWidth float64     `yaml:"stroke_width"`
	Fill        string      `yaml:"fill"`
	FillOpacity float64     `yaml:"fill_opacity"`
	Radius      float64     `yaml:"radius"` // point marker radius in pixels
	Choropleth  *Choropleth `yaml:"choropleth,omitempty"`
}

// DefaultStyle is applied where a layer style leaves fields zero.
var DefaultStyle = Style{
	Stroke:      "#333333",
	StrokeWidth: 1,
	Fill:        "#5b8cb8",
	FillOpacity: 0.6,
	Radius:      4,
}

// Layer pairs a table with its symbology. Layers render in slice order,
// later layers on top.
type Layer struct {
	Name  string
	Table *geotable.Table
	Style Style
}

// LoadStyles reads named styles from a YAML file.
func LoadStyles(path string) (map[string]Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "render: read style file %s", path)
	}
	var styles map[string]Style
	if err := yaml.Unmarshal(data, &styles); err != nil {
		return nil, eris.Wrapf(err, "render: parse style file %s", path)
	}
	return styles, nil
}

// merged fills zero-valued style fields from DefaultStyle.
func (s Style) merged() Style {
	if s.Stroke == "" {
		s.Stroke = DefaultStyle.Stroke
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = DefaultStyle.StrokeWidth
	}
	if s.Fill == "" {
		s.Fill = DefaultStyle.Fill
	}
	if s.FillOpacity == 0 {
		s.FillOpacity = DefaultStyle.FillOpacity
	}
	if s.Radius == 0 {
		s.Radius = DefaultStyle.Radius
	}
	return s
}

// rampColor interpolates between the choropleth colors for v in [min, max],
// quantizing into classes when configured.
func (c *Choropleth) rampColor(v, min, max float64) (string, error) {
	r0, g0, b0, err := parseHex(c.MinColor)
	if err != nil {
		return "", err
	}
	r1, g1, b1, err := parseHex(c.MaxColor)
	if err != nil {
		return "", err
	}

	t := 0.0
	if max > min {
		t = (v - min) / (max - min)
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if c.Classes > 1 {
		step := 1.0 / float64(c.Classes-1)
		idx := int(t*float64(c.Classes-1) + 0.5)
		t = float64(idx) * step
	}

	lerp := func(a, b int) int { return a + int(t*float64(b-a)+0.5) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(r0, r1), lerp(g0, g1), lerp(b0, b1)), nil
}

func parseHex(s string) (int, int, int, error) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, eris.Errorf("render: invalid hex color %q", s)
	}
	r, err1 := strconv.ParseInt(s[1:3], 16, 0)
	g, err2 := strconv.ParseInt(s[3:5], 16, 0)
	b, err3 := strconv.ParseInt(s[5:7], 16, 0)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, eris.Errorf("render: invalid hex color %q", s)
	}
	return int(r), int(g), int(b), nil
}
