package bridge

import (
	"context"
	"time"
)

// Sender delivers one request to the daemon and returns the response body.
// Implementations return an error for unreachable hosts, timeouts and
// non-2xx statuses. Retries are not expected.
type Sender interface {
	Send(ctx context.Context, method, url string, body []byte) ([]byte, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, method, url string, body []byte) ([]byte, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	return f(ctx, method, url, body)
}

// PushChannel is a duplex connection carrying pushed events. Inbound
// messages are delivered to the callback given to the PushFactory.
type PushChannel interface {
	Connect(ctx context.Context, url string) error
	Send(message []byte) error
	IsAlive() bool
	Close() error
}

// PushFactory builds a PushChannel that delivers every inbound message to
// onMessage, on the channel's own goroutine.
type PushFactory func(onMessage func(message []byte)) PushChannel

// Outcome classifies a completed request.
type Outcome string

// Request outcomes.
const (
	OutcomeOK        Outcome = "ok"
	OutcomeTransport Outcome = "transport_error"
	OutcomeProtocol  Outcome = "protocol_error"
)

// Observer receives engine telemetry. Implementations must be fast and
// safe for concurrent use; they run inline with requests and push delivery.
type Observer interface {
	RequestCompleted(endpoint string, outcome Outcome, elapsed time.Duration)
	ConnectionChanged(connected bool)
	EventDispatched(event string)
}

// MultiObserver fans telemetry out to several observers in order.
type MultiObserver []Observer

// RequestCompleted implements Observer.
func (m MultiObserver) RequestCompleted(endpoint string, outcome Outcome, elapsed time.Duration) {
	for _, o := range m {
		o.RequestCompleted(endpoint, outcome, elapsed)
	}
}

// ConnectionChanged implements Observer.
func (m MultiObserver) ConnectionChanged(connected bool) {
	for _, o := range m {
		o.ConnectionChanged(connected)
	}
}

// EventDispatched implements Observer.
func (m MultiObserver) EventDispatched(event string) {
	for _, o := range m {
		o.EventDispatched(event)
	}
}

type noopObserver struct{}

func (noopObserver) RequestCompleted(string, Outcome, time.Duration) {}
func (noopObserver) ConnectionChanged(bool)                          {}
func (noopObserver) EventDispatched(string)                          {}

// Logger defines the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
