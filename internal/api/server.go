// Package api provides the local HTTP control API and WebSocket event hub.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/infrastructure/config"
	"github.com/nerrad567/holobridge/internal/infrastructure/logging"
	"github.com/nerrad567/holobridge/internal/infrastructure/metrics"
	"github.com/nerrad567/holobridge/internal/journal"
	"github.com/nerrad567/holobridge/internal/playlist"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Engine is the part of the bridge client the API drives. *bridge.Client
// implements it.
type Engine interface {
	Displays() []device.Display
	RefreshDevices(ctx context.Context) error
	HardwareTemplates(ctx context.Context) ([]device.HardwareInfo, error)
	TransportAction(ctx context.Context, action string) error
	Play(ctx context.Context, p *playlist.Playlist, head int) error
	SyncOverwrite(ctx context.Context, head int) error
	DeleteByName(ctx context.Context, name string, loop bool) error
	Session() (bridge.Orchestration, bool)
	InstalledPlaylist() string
	Events() *bridge.EventRouter
	Connection() *bridge.ConnectionMonitor
}

// ParameterQueue accepts live parameter changes. *bridge.Debouncer
// implements it.
type ParameterQueue interface {
	RequestUpdate(name string, index int, param playlist.Parameter, value float64) error
}

// JournalReader lists journal entries. *journal.Recorder implements it.
type JournalReader interface {
	List(ctx context.Context, filter journal.Filter) (*journal.ListResult, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	MetricsCfg config.MetricsConfig
	Logger     *logging.Logger
	Engine     Engine
	Params     ParameterQueue
	Journal    JournalReader    // optional
	Metrics    *metrics.Metrics // optional
	Version    string
}

// Server is the HTTP control API.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	metricsCfg config.MetricsConfig
	logger     *logging.Logger
	engine     Engine
	params     ParameterQueue
	journal    JournalReader
	metrics    *metrics.Metrics
	version    string
	startTime  time.Time

	mu            sync.Mutex
	server        *http.Server
	listener      net.Listener
	hub           *Hub
	cancel        context.CancelFunc
	eventListener bridge.ListenerID
	connListener  bridge.ListenerID
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, engine, parameter queue)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("bridge engine is required")
	}
	if deps.Params == nil {
		return nil, fmt.Errorf("parameter queue is required")
	}

	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		metricsCfg: deps.MetricsCfg,
		logger:     deps.Logger,
		engine:     deps.Engine,
		params:     deps.Params,
		journal:    deps.Journal,
		metrics:    deps.Metrics,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, attaches the hub to the engine's event router
// and connection monitor, binds the listener and serves in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Parent context for the hub; the listener lives until Close()
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)
	s.attachHub()

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// attachHub forwards engine events and connection changes to the hub.
func (s *Server) attachHub() {
	hub := s.hub
	s.eventListener = s.engine.Events().AddListener(bridge.AllEvents, func(ev bridge.Event) {
		hub.Broadcast(ChannelEvents, eventPayload(ev))
	})
	s.connListener = s.engine.Connection().AddListener(func(connected bool) {
		hub.Broadcast(ChannelConnection, map[string]bool{"connected": connected})
	})
}

// Close gracefully shuts down the API server.
//
// It detaches from the engine, then waits up to 10 seconds for in-flight
// requests to complete before forcefully closing remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	if srv == nil {
		s.mu.Unlock()
		return nil
	}
	s.server = nil
	s.engine.Events().RemoveListener(bridge.AllEvents, s.eventListener)
	s.engine.Connection().RemoveListener(s.connListener)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
