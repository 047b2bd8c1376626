package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// Job is one unit of queued work. It receives a context that is cancelled
// when the queue closes.
type Job func(ctx context.Context) error

type queuedJob struct {
	run    Job
	result chan error
}

// Queue runs jobs one at a time on a single worker goroutine, in the order
// they were enqueued.
//
// Thread Safety:
//   - Enqueue may be called from any goroutine. Jobs enqueued by one
//     goroutine run in that goroutine's order.
type Queue struct {
	ch     chan queuedJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue with a fixed buffer and starts its worker.
func NewQueue(buffer int, logger Logger) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = noopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		ch:     make(chan queuedJob, buffer),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	q.wg.Add(1)
	go q.work()
	return q
}

// Enqueue schedules job. The returned channel receives the job's error
// exactly once, or ErrClosed if the queue shut down before it ran. Enqueue
// blocks while the buffer is full.
func (q *Queue) Enqueue(job Job) (<-chan error, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", ErrInvalidArgument)
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrClosed
	}

	item := queuedJob{run: job, result: make(chan error, 1)}
	select {
	case q.ch <- item:
		return item.result, nil
	case <-q.ctx.Done():
		return nil, ErrClosed
	}
}

// Len returns the number of jobs waiting to run.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops accepting jobs, cancels the running one and waits for the
// worker to exit. Jobs still waiting receive ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case item := <-q.ch:
			if q.ctx.Err() != nil {
				item.result <- ErrClosed
				continue
			}
			item.result <- q.runJob(item.run)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case item := <-q.ch:
			item.result <- ErrClosed
		default:
			return
		}
	}
}

func (q *Queue) runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in queued job", "panic", r)
			err = fmt.Errorf("queued job panicked: %v", r)
		}
	}()
	return job(q.ctx)
}

// Enqueue schedules fn on the client's ordered send queue.
func (c *Client) Enqueue(fn Job) (<-chan error, error) {
	return c.queue.Enqueue(fn)
}

// PlayAsync queues Play. The playlist is copied, so the caller may keep
// editing p.
func (c *Client) PlayAsync(p *playlist.Playlist, head int) (<-chan error, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil playlist", ErrInvalidArgument)
	}
	snapshot, err := playlist.New(p.Name, p.Loop)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	snapshot.Add(p.Items()...)
	return c.queue.Enqueue(func(ctx context.Context) error {
		return c.Play(ctx, snapshot, head)
	})
}

// SyncOverwriteAsync queues SyncOverwrite.
func (c *Client) SyncOverwriteAsync(head int) (<-chan error, error) {
	return c.queue.Enqueue(func(ctx context.Context) error {
		return c.SyncOverwrite(ctx, head)
	})
}
