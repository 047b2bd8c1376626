package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/infrastructure/metrics"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.metrics != nil {
		r.Use(metrics.RequestMiddleware(s.metrics))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	if s.metrics != nil && s.metricsCfg.Enabled {
		path := s.metricsCfg.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, s.metrics.Handler(s.updateGauges))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/system", s.handleSystem)

		r.Route("/displays", func(r chi.Router) {
			r.Get("/", s.handleListDisplays)
			r.Post("/refresh", s.handleRefreshDisplays)
		})
		r.Get("/templates", s.handleListTemplates)

		r.Post("/transport/{action}", s.handleTransport)

		r.Route("/playlists", func(r chi.Router) {
			r.Post("/play", s.handlePlay)
			r.Post("/sync", s.handleSync)
			r.Delete("/{name}", s.handleDeletePlaylist)
			r.Put("/{name}/items/{index}/{param}", s.handleUpdateParameter)
		})

		r.Get("/journal", s.handleJournal)

		wsPath := s.wsCfg.Path
		if wsPath == "" {
			wsPath = "/ws"
		}
		r.Get(wsPath, s.handleWebSocket)
	})

	return r
}

// updateGauges refreshes scrape-time gauges from the registry snapshot.
func (s *Server) updateGauges() {
	displays := s.engine.Displays()
	s.metrics.SetDisplays(len(displays), countHolographic(displays))
}

func countHolographic(displays []device.Display) int {
	n := 0
	for _, d := range displays {
		if d.IsHolographic() {
			n++
		}
	}
	return n
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":           "ok",
		"version":          s.version,
		"bridge_connected": s.engine.Connection().Connected(),
	}
	if session, ok := s.engine.Session(); ok {
		resp["orchestration"] = session.Name
	}
	if name := s.engine.InstalledPlaylist(); name != "" {
		resp["playlist"] = name
	}
	writeJSON(w, http.StatusOK, resp)
}
