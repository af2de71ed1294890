package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *Server {
	return NewServer([]Layer{
		{Name: "regions", Table: testRegions(4326)},
		{Name: "points", Table: testPoints(4326)},
	}, "test map")
}

func TestServerIndex(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestServerLayerGeoJSON(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/layers/regions.geojson")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
}

func TestServerUnknownLayer(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/layers/nope.geojson")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerHealth(t *testing.T) {
	srv := httptest.NewServer(testServer().Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTMLDocument(t *testing.T) {
	doc, err := HTML([]Layer{
		{Name: "regions", Table: testRegions(4326)},
		{Name: "points", Table: testPoints(4326), Style: Style{Fill: "#d94801"}},
	}, HTMLOptions{Title: "branch map"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, "<title>branch map</title>")
	assert.Contains(t, doc, "leaflet")
	assert.Contains(t, doc, "L.geoJSON")
	assert.Contains(t, doc, "L.control.layers")
	assert.Contains(t, doc, "FeatureCollection")
}

func TestHTMLRejectsProjectedLayers(t *testing.T) {
	_, err := HTML([]Layer{{Name: "regions", Table: testRegions(2248)}}, HTMLOptions{})
	assert.Error(t, err)
}

func TestFeatureCollectionRequiresGeographic(t *testing.T) {
	_, err := FeatureCollection(testRegions(2248))
	assert.Error(t, err)

	fc, err := FeatureCollection(testRegions(4326))
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
	assert.Equal(t, "A", fc.Features[0].Properties["geoid"])
}
