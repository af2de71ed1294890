package render

import (
	"html/template"
	"strings"

	"github.com/rotisserie/eris"
)

// HTMLOptions configures the interactive map document.
type HTMLOptions struct {
	Title string
}

// htmlLayer is the template payload for one toggleable overlay.
type htmlLayer struct {
	Name    string
	GeoJSON template.JS
	Style   Style
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8"/>
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map');
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var overlays = {};
var group = L.featureGroup();
{{range .Layers}}
(function() {
  var data = {{.GeoJSON}};
  var layer = L.geoJSON(data, {
    style: function() {
      return {
        color: {{.Style.Stroke}},
        weight: {{.Style.StrokeWidth}},
        fillColor: {{.Style.Fill}},
        fillOpacity: {{.Style.FillOpacity}}
      };
    },
    pointToLayer: function(feature, latlng) {
      return L.circleMarker(latlng, {
        radius: {{.Style.Radius}},
        color: {{.Style.Stroke}},
        fillColor: {{.Style.Fill}},
        fillOpacity: {{.Style.FillOpacity}}
      });
    }
  });
  layer.addTo(map);
  layer.addTo(group);
  overlays[{{.Name}}] = layer;
})();
{{end}}
L.control.layers(null, overlays).addTo(map);
map.fitBounds(group.getBounds().pad(0.1));
</script>
</body>
</html>
`))

// HTML renders layers as a self-contained interactive Leaflet document with
// a layer-toggle control. Layers are added in call order, later on top, and
// must all be EPSG:4326.
func HTML(layers []Layer, opts HTMLOptions) (string, error) {
	if len(layers) == 0 {
		return "", eris.New("render: no layers")
	}
	if opts.Title == "" {
		opts.Title = "geopipe map"
	}

	payload := struct {
		Title  string
		Layers []htmlLayer
	}{Title: opts.Title}

	for _, l := range layers {
		data, err := MarshalGeoJSON(l.Table)
		if err != nil {
			return "", eris.Wrapf(err, "render: layer %q", l.Name)
		}
		payload.Layers = append(payload.Layers, htmlLayer{
			Name:    l.Name,
			GeoJSON: template.JS(data), //nolint:gosec // marshalled from our own structs
			Style:   l.Style.merged(),
		})
	}

	var sb strings.Builder
	if err := mapTemplate.Execute(&sb, payload); err != nil {
		return "", eris.Wrap(err, "render: execute map template")
	}
	return sb.String(), nil
}
