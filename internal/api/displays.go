package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/holobridge/internal/device"
)

// transportActions are the accepted {action} path values.
var transportActions = map[string]struct{}{
	"play":     {},
	"pause":    {},
	"next":     {},
	"previous": {},
}

// displaysResponse is the body for display listings.
type displaysResponse struct {
	Displays    []device.Display `json:"displays"`
	Count       int              `json:"count"`
	Holographic int              `json:"holographic"`
}

func newDisplaysResponse(displays []device.Display) displaysResponse {
	if displays == nil {
		displays = []device.Display{}
	}
	return displaysResponse{
		Displays:    displays,
		Count:       len(displays),
		Holographic: countHolographic(displays),
	}
}

// handleListDisplays returns the last registry snapshot without contacting
// the daemon.
func (s *Server) handleListDisplays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newDisplaysResponse(s.engine.Displays()))
}

// handleRefreshDisplays asks the daemon for attached displays and returns
// the new snapshot.
func (s *Server) handleRefreshDisplays(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RefreshDevices(r.Context()); err != nil {
		s.logger.Warn("display refresh failed", "error", err)
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDisplaysResponse(s.engine.Displays()))
}

// handleListTemplates returns the hardware templates the daemon knows about.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.engine.HardwareTemplates(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if templates == nil {
		templates = []device.HardwareInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": templates,
		"count":     len(templates),
	})
}

// handleTransport sends play, pause, next or previous.
func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	if _, ok := transportActions[action]; !ok {
		writeNotFound(w, "unknown transport action: "+action)
		return
	}

	if err := s.engine.TransportAction(r.Context(), action); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"action": action,
	})
}
