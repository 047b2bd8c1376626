package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second

	// serviceTag is attached to every point so holobridge data can be told
	// apart in a shared bucket.
	serviceTag = "holobridge"
)

// server is the part of influxdb2.Client used after the write API exists.
type server interface {
	Ping(ctx context.Context) (bool, error)
	Close()
}

// pointWriter is the part of api.WriteAPI the client writes through.
type pointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Client records bridge engine telemetry in InfluxDB. It implements
// bridge.Observer.
//
// Writes are batched and never block the caller. Once Close has been
// called every write is dropped.
type Client struct {
	server server
	points pointWriter

	mu      sync.RWMutex
	closed  bool
	onError func(err error)
}

// Connect pings the configured server and opens a batching write API on
// cfg.Bucket. It returns ErrDisabled when influxdb.enabled is false.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	raw := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, clientOptions(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, raw); err != nil {
		raw.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	writeAPI := raw.WriteAPI(cfg.Org, cfg.Bucket)
	c := newClient(raw, writeAPI)
	go c.forwardErrors(writeAPI.Errors())
	return c, nil
}

func newClient(s server, w pointWriter) *Client {
	return &Client{server: s, points: w}
}

// clientOptions maps the config section onto write options. Non-positive
// batch settings fall back to the defaults.
func clientOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize) // #nosec G115 -- checked positive
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds())). // #nosec G115 -- positive duration
		SetPrecision(time.Millisecond).
		AddDefaultTag("service", serviceTag)
}

func ping(ctx context.Context, s server) error {
	healthy, err := s.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if !healthy {
		return fmt.Errorf("server reports unhealthy")
	}
	return nil
}

// forwardErrors hands async write failures to the error callback until
// the write API closes the channel.
func (c *Client) forwardErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()
		if callback != nil {
			callback(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// SetOnError sets the callback for failed batch writes. Failures arrive
// wrapped in ErrWriteFailed on a background goroutine.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.isClosed() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.server); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// Close flushes buffered points and releases the connection. Calling it
// again is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.points.Flush()
	c.server.Close()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// write queues one point stamped now.
func (c *Client) write(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	c.points.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
