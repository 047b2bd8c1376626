package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/holobridge/internal/device"
)

// requestMethod is the single HTTP verb Bridge accepts for every endpoint.
const requestMethod = http.MethodPut

// monitorRefreshTimeout bounds device refreshes triggered by push events.
const monitorRefreshTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	// BaseURL is the daemon's request root, e.g. "http://localhost:33334".
	BaseURL string

	// EventURL is the push channel URL, e.g. "ws://localhost:9724/event_source".
	EventURL string

	// Sender delivers requests. Required.
	Sender Sender

	// NewPush builds the push channel. Optional; without it Connect and
	// SubscribeEvents return ErrNotConnected.
	NewPush PushFactory

	// Registry receives device refreshes. A new one is created if nil.
	Registry *device.Registry

	// TrackMonitors refreshes the registry when the daemon reports a
	// display being connected or disconnected.
	TrackMonitors bool

	// QueueSize bounds the asynchronous send queue. Defaults to 64.
	QueueSize int

	Logger   Logger
	Observer Observer
}

// Orchestration is an active session with the daemon.
type Orchestration struct {
	Name  string `json:"name"`
	Token string `json:"-"`
}

// Client drives the Bridge protocol.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//     Playlist sequences are serialised so their requests never interleave.
type Client struct {
	baseURL  string
	eventURL string
	sender   Sender
	newPush  PushFactory
	logger   Logger
	observer Observer

	registry *device.Registry
	router   *EventRouter
	monitor  *ConnectionMonitor
	queue    *Queue

	// mu guards session and installed.
	mu        sync.RWMutex
	session   *Orchestration
	installed string

	// playMu serialises multi-request playlist sequences.
	playMu sync.Mutex

	pushMu sync.Mutex
	push   PushChannel

	closeOnce sync.Once
}

// New creates a Client.
//
// Parameters:
//   - opts: Transport and collaborators; Sender and BaseURL are required
//
// Returns:
//   - *Client: Ready to use; no request has been sent yet
//   - error: If required options are missing
func New(opts Options) (*Client, error) {
	if opts.Sender == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidArgument)
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Registry == nil {
		opts.Registry = device.NewRegistry()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		eventURL: opts.EventURL,
		sender:   opts.Sender,
		newPush:  opts.NewPush,
		logger:   opts.Logger,
		observer: opts.Observer,
		registry: opts.Registry,
		router:   NewEventRouter(),
		monitor:  NewConnectionMonitor(),
	}
	c.router.SetLogger(opts.Logger)
	c.monitor.SetLogger(opts.Logger)
	c.queue = NewQueue(opts.QueueSize, c.logger)

	// The monitor calls this once immediately with the initial state; the
	// observer only cares about transitions after that.
	first := true
	c.monitor.AddListener(func(connected bool) {
		if first {
			first = false
			return
		}
		c.observer.ConnectionChanged(connected)
	})

	if opts.TrackMonitors {
		c.router.AddListener(EventMonitorConnect, c.onMonitorChange)
		c.router.AddListener(EventMonitorDisconnect, c.onMonitorChange)
	}

	return c, nil
}

// Registry returns the display registry updated by RefreshDevices.
func (c *Client) Registry() *device.Registry {
	return c.registry
}

// Events returns the router that pushed messages are dispatched to.
func (c *Client) Events() *EventRouter {
	return c.router
}

// Connection returns the connection state monitor.
func (c *Client) Connection() *ConnectionMonitor {
	return c.monitor
}

// Session returns the active orchestration, if any.
func (c *Client) Session() (Orchestration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Orchestration{}, false
	}
	return *c.session, true
}

// InstalledPlaylist returns the name of the playlist the engine believes
// is instanced on the daemon, or "".
func (c *Client) InstalledPlaylist() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.installed
}

// token returns the current session token or ErrNoSession.
func (c *Client) token() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return "", ErrNoSession
	}
	return c.session.Token, nil
}

// endpointURL joins the base URL and an endpoint name.
func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + "/" + endpoint
}

// roundTrip marshals body, sends it and feeds the outcome into the
// connection monitor. Cancellation by the caller leaves the monitor alone.
func (c *Client) roundTrip(ctx context.Context, endpoint string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s body: %w", ErrInvalidArgument, endpoint, err)
	}

	resp, err := c.sender.Send(ctx, requestMethod, c.endpointURL(endpoint), data)
	if err != nil {
		// A caller that gave up says nothing about the daemon.
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			c.logger.Debug("bridge request cancelled", "endpoint", endpoint)
			return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
		}
		c.monitor.UpdateState(false)
		c.logger.Warn("bridge request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, endpoint, err)
	}
	c.monitor.UpdateState(true)
	return resp, nil
}

// do performs one request. decode, when set, parses the response; its
// failure is reported as ErrProtocol and does not change connection state.
func (c *Client) do(ctx context.Context, endpoint string, body any, decode func(resp []byte) error) error {
	start := time.Now()
	resp, err := c.roundTrip(ctx, endpoint, body)

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeTransport
	case decode != nil:
		if derr := decode(resp); derr != nil {
			outcome = OutcomeProtocol
			err = fmt.Errorf("%w: %s: %w", ErrProtocol, endpoint, derr)
			c.logger.Warn("unparseable bridge response", "endpoint", endpoint, "error", derr)
		}
	}

	c.observer.RequestCompleted(endpoint, outcome, time.Since(start))
	return err
}

// Close exits the orchestration if one is active, then stops the queue and
// closes the push channel. It is safe to call more than once.
func (c *Client) Close() error {
	var firstErr error
	c.closeOnce.Do(func() {
		if _, ok := c.Session(); ok {
			ctx, cancel := context.WithTimeout(context.Background(), monitorRefreshTimeout)
			if err := c.ExitOrchestration(ctx); err != nil {
				c.logger.Warn("exit orchestration on close failed", "error", err)
			}
			cancel()
		}

		c.queue.Close()

		c.pushMu.Lock()
		defer c.pushMu.Unlock()
		if c.push != nil {
			if err := c.push.Close(); err != nil {
				firstErr = fmt.Errorf("closing push channel: %w", err)
			}
			c.push = nil
		}
	})
	return firstErr
}
