package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/infrastructure/mqtt"
)

// DefaultCommandTimeout bounds a single inbound command.
const DefaultCommandTimeout = 10 * time.Second

// errStopped answers commands that arrive while the relay shuts down.
var errStopped = errors.New("relay: stopped")

// Publisher is the subset of *mqtt.Client the relay uses.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
	PublishBridgeState(connected bool) error
	HandleCommands(handler mqtt.CommandHandler) error
	StopCommands() error
}

// Engine is the subset of *bridge.Client the relay drives.
type Engine interface {
	Events() *bridge.EventRouter
	Connection() *bridge.ConnectionMonitor
	TransportAction(ctx context.Context, action string) error
	RefreshDevices(ctx context.Context) error
	Displays() []device.Display
}

// Logger is the logging interface used by the relay.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds the relay dependencies.
type Options struct {
	// Publisher is the MQTT client. Required.
	Publisher Publisher

	// Engine is the Bridge client. Required.
	Engine Engine

	// Topics builds the topic hierarchy. The zero value uses the default prefix.
	Topics mqtt.Topics

	// CommandTimeout bounds each inbound command. Defaults to DefaultCommandTimeout.
	CommandTimeout time.Duration

	// Logger is optional.
	Logger Logger
}

// Relay connects a Bridge engine to an MQTT broker.
//
// Thread Safety:
//   - Start and Stop may be called from any goroutine.
//   - Event and state callbacks arrive on engine goroutines; commands arrive
//     on MQTT goroutines. All publishing is safe for concurrent use.
type Relay struct {
	pub     Publisher
	engine  Engine
	topics  mqtt.Topics
	timeout time.Duration
	logger  Logger

	mu      sync.Mutex
	running bool
	eventID bridge.ListenerID
	stateID bridge.ListenerID
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a relay. Call Start to begin relaying.
func New(opts Options) (*Relay, error) {
	if opts.Publisher == nil {
		return nil, fmt.Errorf("relay: publisher is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("relay: engine is required")
	}
	timeout := opts.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	var logger Logger = noopLogger{}
	if opts.Logger != nil {
		logger = opts.Logger
	}
	return &Relay{
		pub:     opts.Publisher,
		engine:  opts.Engine,
		topics:  opts.Topics,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Start takes over the command topics and begins publishing events and
// connection state. The current connection state is published immediately.
//
// Parameters:
//   - ctx: Parent context for command execution; cancelling it aborts in-flight commands
//
// Returns:
//   - error: If the relay is already running or the command subscription fails
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("relay: already running")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	if err := r.pub.HandleCommands(r.handleCommand); err != nil {
		r.cancel()
		return fmt.Errorf("handling commands: %w", err)
	}

	r.eventID = r.engine.Events().AddListener(bridge.AllEvents, r.handleEvent)
	r.stateID = r.engine.Connection().AddListener(r.handleState)
	r.running = true

	r.logger.Info("mqtt relay started", "commands", r.topics.AllCommands())
	return nil
}

// Stop unregisters the engine listeners, unsubscribes from commands and
// waits for in-flight commands. Safe to call when not running.
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.engine.Events().RemoveListener(bridge.AllEvents, r.eventID)
	r.engine.Connection().RemoveListener(r.stateID)
	cancel := r.cancel
	r.mu.Unlock()

	if err := r.pub.StopCommands(); err != nil {
		r.logger.Debug("dropping command subscription failed", "error", err)
	}
	cancel()
	r.wg.Wait()

	r.logger.Info("mqtt relay stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// PublishDisplays publishes a retained display snapshot. Its signature
// matches bridge.SnapshotListener so it can be attached to a Poller.
func (r *Relay) PublishDisplays(displays []device.Display) {
	msg := DisplaysMessage{
		Count:     len(displays),
		Displays:  displays,
		Timestamp: time.Now().UTC(),
	}
	for _, d := range displays {
		if d.IsHolographic() {
			msg.Holographic++
		}
	}
	if msg.Displays == nil {
		msg.Displays = []device.Display{}
	}
	r.publish(r.topics.Displays(), msg, true)
}

func (r *Relay) handleEvent(ev bridge.Event) {
	r.publish(r.topics.Event(ev.Name), EventMessage{
		Event:     ev.Name,
		Payload:   rawPayload(ev.Payload),
		Timestamp: time.Now().UTC(),
	}, false)
}

func (r *Relay) handleState(connected bool) {
	r.report(r.topics.Status(), r.pub.PublishBridgeState(connected))
}

// handleCommand runs one inbound command against the engine. The MQTT
// client acknowledges it with the returned error.
func (r *Relay) handleCommand(action string, _ []byte) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return errStopped
	}
	r.wg.Add(1)
	parent := r.ctx
	r.mu.Unlock()
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	r.logger.Debug("mqtt command received", "action", action)
	return r.execute(ctx, action)
}

func (r *Relay) execute(ctx context.Context, action string) error {
	switch action {
	case mqtt.CommandPlay, mqtt.CommandPause, mqtt.CommandNext, mqtt.CommandPrevious:
		return r.engine.TransportAction(ctx, action)
	case mqtt.CommandRefresh:
		if err := r.engine.RefreshDevices(ctx); err != nil {
			return err
		}
		r.PublishDisplays(r.engine.Displays())
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", bridge.ErrInvalidArgument, action)
}

func (r *Relay) publish(topic string, v any, retained bool) {
	r.report(topic, r.pub.PublishJSON(topic, v, retained))
}

// report logs a publish failure. A broker outage is expected and only
// logged at debug level.
func (r *Relay) report(topic string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, mqtt.ErrNotConnected):
		r.logger.Debug("mqtt publish skipped, broker not connected", "topic", topic)
	default:
		r.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}
