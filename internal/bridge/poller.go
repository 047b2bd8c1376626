package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/holobridge/internal/device"
)

// DefaultPollInterval is how often the poller checks the daemon.
const DefaultPollInterval = 2 * time.Second

// PollTarget is what the poller drives. *Client implements it.
type PollTarget interface {
	BridgeVersion(ctx context.Context) (string, error)
	Session() (Orchestration, bool)
	RefreshDevices(ctx context.Context) error
	Displays() []device.Display
}

// SnapshotListener receives the display list after each successful poll.
type SnapshotListener func(displays []device.Display)

type snapshotListener struct {
	id ListenerID
	fn SnapshotListener
}

// Poller periodically checks the daemon for setups without a push channel.
//
// Each tick sends bridge_version, which feeds the connection monitor. When
// the daemon answered and a session is active, the device registry is
// refreshed and listeners receive the new display list.
//
// Thread Safety:
//   - Start and Stop may be called from any goroutine. Stop blocks until
//     the polling goroutine has exited.
type Poller struct {
	target   PollTarget
	interval time.Duration
	timeout  time.Duration
	logger   Logger

	mu        sync.Mutex
	listeners []snapshotListener
	nextID    ListenerID
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(target PollTarget, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		target:   target,
		interval: interval,
		timeout:  interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets the poller's logger.
func (p *Poller) SetLogger(logger Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = logger
}

// AddListener registers a snapshot listener.
func (p *Poller) AddListener(fn SnapshotListener) ListenerID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.listeners = append(p.listeners, snapshotListener{id: p.nextID, fn: fn})
	return p.nextID
}

// RemoveListener unregisters a snapshot listener.
func (p *Poller) RemoveListener(id ListenerID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range p.listeners {
		if l.id == id {
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Start launches the polling goroutine. The first poll happens one
// interval after Start. Cancelling ctx stops polling just like Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return errors.New("poller already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)

	p.logger.Info("bridge poller started", "interval", p.interval)
	return nil
}

// Stop cancels polling and waits for the goroutine to exit. It is a no-op
// when the poller is not running.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	logger := p.logger
	p.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
	logger.Info("bridge poller stopped")
}

// Running reports whether the polling goroutine is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single reachability check and refresh. It reports whether the daemon
// answered the check.
func (p *Poller) PollOnce(ctx context.Context) bool {
	p.mu.Lock()
	logger := p.logger
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if _, err := p.target.BridgeVersion(ctx); err != nil {
		logger.Debug("bridge reachability check failed", "error", err)
		return false
	}
	if _, ok := p.target.Session(); !ok {
		return true
	}
	if err := p.target.RefreshDevices(ctx); err != nil {
		logger.Debug("poll device refresh failed", "error", err)
		return true
	}

	displays := p.target.Displays()

	p.mu.Lock()
	listeners := append([]snapshotListener(nil), p.listeners...)
	p.mu.Unlock()

	for _, l := range listeners {
		p.notify(logger, l, displays)
	}
	return true
}

func (p *Poller) notify(logger Logger, l snapshotListener, displays []device.Display) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in poll listener", "listener", l.id, "panic", r)
		}
	}()
	// Each listener gets its own copy.
	snapshot := make([]device.Display, len(displays))
	for i, d := range displays {
		snapshot[i] = d.DeepCopy()
	}
	l.fn(snapshot)
}
