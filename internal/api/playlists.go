package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// defaultHead is the head index sent when the request names none.
const defaultHead = -1

// formatFromContentType picks the playlist encoding for a request body.
// Anything that is not YAML or TOML is treated as JSON with comments.
func formatFromContentType(contentType string) playlist.Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return playlist.FormatJSONC
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return playlist.FormatYAML
	case "application/toml", "text/toml":
		return playlist.FormatTOML
	default:
		return playlist.FormatJSONC
	}
}

// headParam reads the optional ?head= query value.
func headParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("head")
	if v == "" {
		return defaultHead, nil
	}
	head, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("head must be an integer")
	}
	return head, nil
}

// handlePlay parses a playlist document from the body and plays it.
//
// The body encoding follows Content-Type (JSON, YAML or TOML). The optional
// ?name= query value names a document that carries no name of its own.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	head, err := headParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body: "+err.Error())
		return
	}

	p, err := playlist.Parse(data, formatFromContentType(r.Header.Get("Content-Type")), r.URL.Query().Get("name"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if p.Len() == 0 {
		writeBadRequest(w, "playlist has no items")
		return
	}

	if err := s.engine.Play(r.Context(), p, head); err != nil {
		s.logger.Warn("play failed", "playlist", p.Name, "error", err)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "playing",
		"playlist": p.Name,
		"items":    p.Len(),
		"head":     head,
	})
}

// handleSync re-plays the installed playlist after an overwrite.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	head, err := headParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.engine.SyncOverwrite(r.Context(), head); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "synced",
		"playlist": s.engine.InstalledPlaylist(),
	})
}

// handleDeletePlaylist removes a playlist from the daemon by name.
// ?loop=true must match how the playlist was created.
func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	loop := false
	if v := r.URL.Query().Get("loop"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "loop must be a boolean")
			return
		}
		loop = b
	}

	if err := s.engine.DeleteByName(r.Context(), name, loop); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parameterRequest is the body for live parameter updates.
type parameterRequest struct {
	Value *float64 `json:"value"`
}

// handleUpdateParameter queues a live parameter change.
//
// {index} is an item index, or "current" for whatever is showing. Updates
// are coalesced, so the response is 202 and carries no daemon result.
func (s *Server) handleUpdateParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	index := -1
	if raw := chi.URLParam(r, "index"); raw != "current" {
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 {
			writeBadRequest(w, `index must be a non-negative integer or "current"`)
			return
		}
		index = i
	}

	param, err := playlist.ParseParameter(chi.URLParam(r, "param"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var req parameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	if err := s.params.RequestUpdate(name, index, param, *req.Value); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "queued",
		"playlist":  name,
		"index":     index,
		"parameter": string(param),
		"value":     *req.Value,
	})
}
