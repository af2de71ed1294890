package render

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server serves the interactive map page plus raw GeoJSON per layer so the
// widget (or any external client) can fetch layers individually.
type Server struct {
	layers []Layer
	title  string
}

// NewServer creates a map server over the given layers.
func NewServer(layers []Layer, title string) *Server {
	return &Server{layers: layers, title: title}
}

// Router builds the chi router for the map server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/layers/{name}.geojson", s.handleLayer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := HTML(s.layers, HTMLOptions{Title: s.title})
	if err != nil {
		zap.L().Error("render: map page failed", zap.Error(err))
		http.Error(w, "map rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	for _, l := range s.layers {
		if l.Name != name {
			continue
		}
		data, err := MarshalGeoJSON(l.Table)
		if err != nil {
			zap.L().Error("render: layer geojson failed",
				zap.String("layer", name),
				zap.Error(err),
			)
			http.Error(w, "layer encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write(data)
		return
	}
	http.Error(w, "unknown layer", http.StatusNotFound)
}
