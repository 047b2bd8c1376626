package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/playlist"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
	ErrCodeBadGateway     = "bad_gateway"
	ErrCodeUnavailable    = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeUnavailable writes a 503 error response.
func writeUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// writeEngineError maps an engine error onto an HTTP status.
//
// The mapping is:
//   - bridge.ErrInvalidArgument, playlist.ErrUnknownParameter,
//     playlist.ErrInvalidName: 400
//   - bridge.ErrNoSession, bridge.ErrNoPlaylist: 409
//   - bridge.ErrTransport, bridge.ErrProtocol: 502
//   - bridge.ErrNotConnected, bridge.ErrClosed: 503
//   - anything else: 500
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bridge.ErrInvalidArgument),
		errors.Is(err, playlist.ErrUnknownParameter),
		errors.Is(err, playlist.ErrInvalidName):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, bridge.ErrNoSession), errors.Is(err, bridge.ErrNoPlaylist):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, bridge.ErrTransport), errors.Is(err, bridge.ErrProtocol):
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	case errors.Is(err, bridge.ErrNotConnected), errors.Is(err, bridge.ErrClosed):
		writeUnavailable(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
