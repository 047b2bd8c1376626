package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

const testBaseURL = "http://bridge.test:33334"

var errRefused = errors.New("connection refused")

// sentRequest is one request captured by fakeSender.
type sentRequest struct {
	Method   string
	Endpoint string
	Body     map[string]any
}

// fakeSender answers requests from canned responses keyed by endpoint.
// Endpoints without a canned response get a bare acknowledgement.
type fakeSender struct {
	mu        sync.Mutex
	requests  []sentRequest
	responses map[string]string
	failing   map[string]error
	failAfter int // fail every call after this many; 0 disables
	calls     int
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		responses: make(map[string]string),
		failing:   make(map[string]error),
	}
}

func (f *fakeSender) Send(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	endpoint := strings.TrimPrefix(url, testBaseURL+"/")
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("fake sender got invalid JSON: %w", err)
	}
	f.requests = append(f.requests, sentRequest{Method: method, Endpoint: endpoint, Body: decoded})
	f.calls++

	if f.failAfter > 0 && f.calls > f.failAfter {
		return nil, errRefused
	}
	if err := f.failing[endpoint]; err != nil {
		return nil, err
	}
	if resp, ok := f.responses[endpoint]; ok {
		return []byte(resp), nil
	}
	return []byte(`{"name":{"value":"` + endpoint + `"},"payload":{"value":"ok"}}`), nil
}

func (f *fakeSender) respond(endpoint, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[endpoint] = body
}

func (f *fakeSender) fail(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, endpoint)
		return
	}
	f.failing[endpoint] = err
}

func (f *fakeSender) endpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Endpoint
	}
	return out
}

func (f *fakeSender) sent() []sentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentRequest(nil), f.requests...)
}

func (f *fakeSender) count(endpoint string) int {
	n := 0
	for _, e := range f.endpoints() {
		if e == endpoint {
			n++
		}
	}
	return n
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
	f.calls = 0
}

// fakePush is an in-memory push channel. deliver simulates the daemon
// pushing a message.
type fakePush struct {
	mu        sync.Mutex
	onMessage func([]byte)
	url       string
	alive     bool
	sent      []string
	connErr   error
}

func (p *fakePush) Connect(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connErr != nil {
		return p.connErr
	}
	p.url = url
	p.alive = true
	return nil
}

func (p *fakePush) Send(message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.alive {
		return errors.New("not connected")
	}
	p.sent = append(p.sent, string(message))
	return nil
}

func (p *fakePush) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive
}

func (p *fakePush) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alive = false
	return nil
}

func (p *fakePush) deliver(message string) {
	p.onMessage([]byte(message))
}

// recordingObserver captures telemetry for assertions.
type recordingObserver struct {
	mu          sync.Mutex
	outcomes    map[Outcome]int
	transitions []bool
	events      []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: make(map[Outcome]int)}
}

func (o *recordingObserver) RequestCompleted(endpoint string, outcome Outcome, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *recordingObserver) ConnectionChanged(connected bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, connected)
}

func (o *recordingObserver) EventDispatched(event string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) outcome(kind Outcome) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[kind]
}

// newTestClient returns a client wired to fakes, with no session.
func newTestClient(t *testing.T) (*Client, *fakeSender, *fakePush) {
	t.Helper()
	sender := newFakeSender()
	push := &fakePush{}
	c, err := New(Options{
		BaseURL:  testBaseURL,
		EventURL: "ws://bridge.test:9724/event_source",
		Sender:   sender,
		NewPush: func(onMessage func([]byte)) PushChannel {
			push.onMessage = onMessage
			return push
		},
		TrackMonitors: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.queue.Close() })
	return c, sender, push
}

// newSessionClient returns a client with an active "default" session
// whose token is "tok-123", and a sender with the enter request cleared.
func newSessionClient(t *testing.T) (*Client, *fakeSender, *fakePush) {
	t.Helper()
	c, sender, push := newTestClient(t)
	sender.respond(endpointEnterOrchestration, `{"orchestration":{"value":"default"},"payload":{"value":"tok-123"}}`)
	if err := c.EnterOrchestration(context.Background(), "default"); err != nil {
		t.Fatalf("EnterOrchestration() error = %v", err)
	}
	sender.reset()
	return c, sender, push
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
