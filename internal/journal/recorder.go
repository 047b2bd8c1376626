package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/holobridge/internal/bridge"
)

// DefaultBufferSize is the number of entries queued before new ones are dropped.
const DefaultBufferSize = 256

// writeTimeout bounds a single insert.
const writeTimeout = 5 * time.Second

// Logger is the logging interface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder is a bridge.Observer that journals engine activity.
//
// Thread Safety:
//   - Observer methods are safe for concurrent use and never block.
//   - Close waits for queued entries to be written.
type Recorder struct {
	repo   Repository
	logger Logger

	entries chan Entry
	done    chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	failed  atomic.Int64
}

var _ bridge.Observer = (*Recorder)(nil)

// NewRecorder starts a recorder writing to repo.
//
// Parameters:
//   - repo: Destination repository
//   - bufferSize: Queue depth; <= 0 uses DefaultBufferSize
//   - logger: Optional; nil discards write failures
func NewRecorder(repo Repository, bufferSize int, logger Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	r := &Recorder{
		repo:    repo,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RequestCompleted implements bridge.Observer.
func (r *Recorder) RequestCompleted(endpoint string, outcome bridge.Outcome, elapsed time.Duration) {
	r.enqueue(Entry{
		Kind:       KindRequest,
		Endpoint:   endpoint,
		Outcome:    string(outcome),
		DurationMS: float64(elapsed) / float64(time.Millisecond),
	})
}

// ConnectionChanged implements bridge.Observer.
func (r *Recorder) ConnectionChanged(connected bool) {
	r.enqueue(Entry{Kind: KindConnection, Connected: &connected})
}

// EventDispatched implements bridge.Observer.
func (r *Recorder) EventDispatched(event string) {
	r.enqueue(Entry{Kind: KindEvent, Event: event})
}

// List proxies to the repository.
func (r *Recorder) List(ctx context.Context, filter Filter) (*ListResult, error) {
	return r.repo.List(ctx, filter)
}

// Dropped returns how many entries were discarded because the queue was
// full or the recorder was closed.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns how many inserts returned an error.
func (r *Recorder) Failed() int64 {
	return r.failed.Load()
}

// Close stops accepting entries and waits until queued ones are written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.entries)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) enqueue(e Entry) {
	e.CreatedAt = time.Now().UTC()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.entries <- e:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("journal queue full, dropping entries", "kind", e.Kind)
		}
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, &e); err != nil {
			r.failed.Add(1)
			r.logger.Error("journal write failed", "kind", e.Kind, "error", err)
		}
		cancel()
	}
}
