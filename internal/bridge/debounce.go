package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// DefaultDebounceWindow is the coalescing window used when none is given.
const DefaultDebounceWindow = 250 * time.Millisecond

// ParameterUpdater sends live parameter changes. *Client implements it.
type ParameterUpdater interface {
	UpdatePlaylistEntry(ctx context.Context, name string, index int, param playlist.Parameter, value float64) error
	UpdateCurrentEntry(ctx context.Context, name string, param playlist.Parameter, value float64) error
}

// ParameterUpdate is one requested change. Index -1 targets the item
// currently showing.
type ParameterUpdate struct {
	Playlist  string
	Index     int
	Parameter playlist.Parameter
	Value     float64
}

// Debouncer coalesces rapid parameter changes into one request.
//
// Only the most recent update is kept. Every call restarts the window; when
// it expires without a newer call, that update is sent exactly once.
// Intermediate values are dropped. Send failures are logged, not retried.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Sends happen on a timer
//     goroutine and never overlap.
type Debouncer struct {
	updater ParameterUpdater
	window  time.Duration
	timeout time.Duration
	logger  Logger

	mu      sync.Mutex
	pending *ParameterUpdate
	timer   *time.Timer
	gen     uint64
	closed  bool

	// sendMu keeps sends in the order their windows expired.
	sendMu sync.Mutex
	wg     sync.WaitGroup
}

// NewDebouncer creates a debouncer that sends through updater.
//
// Parameters:
//   - updater: Destination for coalesced updates
//   - window: Quiet period before sending; DefaultDebounceWindow if <= 0
//   - timeout: Bound for each send; 5s if <= 0
func NewDebouncer(updater ParameterUpdater, window, timeout time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Debouncer{
		updater: updater,
		window:  window,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger used for send failures.
func (d *Debouncer) SetLogger(logger Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// RequestUpdate records a change and restarts the window. It returns
// ErrClosed after Close.
func (d *Debouncer) RequestUpdate(name string, index int, param playlist.Parameter, value float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	d.pending = &ParameterUpdate{Playlist: name, Index: index, Parameter: param, Value: value}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
	return nil
}

// Pending returns the update waiting for its window to expire.
func (d *Debouncer) Pending() (ParameterUpdate, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return ParameterUpdate{}, false
	}
	return *d.pending, true
}

// Flush sends the pending update now, if there is one.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	update := d.take()
	d.mu.Unlock()

	if update == nil {
		return nil
	}
	return d.send(ctx, *update)
}

// Close sends any pending update and stops the debouncer. Later calls to
// RequestUpdate return ErrClosed.
func (d *Debouncer) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	update := d.take()
	d.mu.Unlock()

	var err error
	if update != nil {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err = d.send(ctx, *update)
		cancel()
	}
	d.wg.Wait()
	return err
}

// take removes the pending update and disarms the timer. Caller holds mu.
func (d *Debouncer) take() *ParameterUpdate {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	update := d.pending
	d.pending = nil
	return update
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		// Superseded by a newer call or already flushed.
		d.mu.Unlock()
		return
	}
	update := *d.pending
	d.pending = nil
	d.timer = nil
	d.wg.Add(1)
	logger := d.logger
	d.mu.Unlock()
	defer d.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.send(ctx, update); err != nil {
		logger.Warn("debounced parameter update failed",
			"playlist", update.Playlist,
			"index", update.Index,
			"parameter", update.Parameter,
			"error", err,
		)
	}
}

func (d *Debouncer) send(ctx context.Context, u ParameterUpdate) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if u.Index < 0 {
		return d.updater.UpdateCurrentEntry(ctx, u.Playlist, u.Parameter, u.Value)
	}
	return d.updater.UpdatePlaylistEntry(ctx, u.Playlist, u.Index, u.Parameter, u.Value)
}
