package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the GET /api/v1/system response.
type SystemMetrics struct {
	Timestamp     string         `json:"timestamp"`
	Version       string         `json:"version"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Runtime       RuntimeMetrics `json:"runtime"`
	WebSocket     WSMetrics      `json:"websocket"`
	Bridge        BridgeMetrics  `json:"bridge"`
	Displays      DisplayMetrics `json:"displays"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// BridgeMetrics describes the engine's view of the daemon.
type BridgeMetrics struct {
	Connected     bool   `json:"connected"`
	Orchestration string `json:"orchestration,omitempty"`
	Playlist      string `json:"playlist,omitempty"`
}

// DisplayMetrics summarises the device registry.
type DisplayMetrics struct {
	Total       int `json:"total"`
	Holographic int `json:"holographic"`
}

// handleSystem returns runtime and engine statistics.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	displays := s.engine.Displays()

	m := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Bridge: BridgeMetrics{
			Connected: s.engine.Connection().Connected(),
			Playlist:  s.engine.InstalledPlaylist(),
		},
		Displays: DisplayMetrics{
			Total:       len(displays),
			Holographic: countHolographic(displays),
		},
	}
	if session, ok := s.engine.Session(); ok {
		m.Bridge.Orchestration = session.Name
	}
	if s.hub != nil {
		m.WebSocket.ConnectedClients = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, m)
}
