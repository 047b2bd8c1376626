package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type mockPublisher struct {
	mu        sync.Mutex
	messages  []published
	states    []bool
	handler   mqtt.CommandHandler
	subErr    error
	stopCalls int
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{}
}

func (m *mockPublisher) PublishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{topic: topic, payload: payload, retained: retained})
	return nil
}

func (m *mockPublisher) PublishBridgeState(connected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, connected)
	return nil
}

func (m *mockPublisher) HandleCommands(handler mqtt.CommandHandler) error {
	if m.subErr != nil {
		return m.subErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	return nil
}

func (m *mockPublisher) StopCommands() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = nil
	m.stopCalls++
	return nil
}

// deliver runs action through the registered command handler, the way
// the mqtt client does for a message on the command topic.
func (m *mockPublisher) deliver(t *testing.T, action string) error {
	t.Helper()
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		t.Fatal("no command handler registered")
	}
	return h(action, nil)
}

func (m *mockPublisher) bridgeStates() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.states...)
}

func (m *mockPublisher) on(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.messages {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type mockEngine struct {
	router     *bridge.EventRouter
	monitor    *bridge.ConnectionMonitor
	mu         sync.Mutex
	actions    []string
	actionErr  error
	refreshErr error
	refreshes  int
	displays   []device.Display
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		router:  bridge.NewEventRouter(),
		monitor: bridge.NewConnectionMonitor(),
	}
}

func (e *mockEngine) Events() *bridge.EventRouter           { return e.router }
func (e *mockEngine) Connection() *bridge.ConnectionMonitor { return e.monitor }

func (e *mockEngine) TransportAction(_ context.Context, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions = append(e.actions, action)
	return e.actionErr
}

func (e *mockEngine) RefreshDevices(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshes++
	return e.refreshErr
}

func (e *mockEngine) Displays() []device.Display {
	return e.displays
}

var testTopics = mqtt.Topics{Prefix: "lkg"}

func startRelay(t *testing.T) (*Relay, *mockPublisher, *mockEngine) {
	t.Helper()
	pub := newMockPublisher()
	eng := newMockEngine()
	r, err := New(Options{Publisher: pub, Engine: eng, Topics: testTopics})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(r.Stop)
	return r, pub, eng
}

func TestNew_RequiresDependencies(t *testing.T) {
	if _, err := New(Options{Engine: newMockEngine()}); err == nil {
		t.Error("New() without publisher should fail")
	}
	if _, err := New(Options{Publisher: newMockPublisher()}); err == nil {
		t.Error("New() without engine should fail")
	}
}

func TestStart_PublishesInitialStatus(t *testing.T) {
	_, pub, _ := startRelay(t)

	states := pub.bridgeStates()
	if len(states) != 1 || states[0] {
		t.Fatalf("bridge states = %v, want [false]", states)
	}
}

func TestStart_Twice(t *testing.T) {
	r, _, _ := startRelay(t)
	if err := r.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}
}

func TestStart_SubscribeFails(t *testing.T) {
	pub := newMockPublisher()
	pub.subErr = errors.New("broker gone")
	r, _ := New(Options{Publisher: pub, Engine: newMockEngine(), Topics: testTopics})

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when subscribe fails")
	}
	if r.Running() {
		t.Error("Running() = true after failed Start")
	}
}

func TestStatusTransitions(t *testing.T) {
	_, pub, eng := startRelay(t)

	eng.monitor.UpdateState(true)
	eng.monitor.UpdateState(true)
	eng.monitor.UpdateState(false)

	states := pub.bridgeStates()
	want := []bool{false, true, false}
	if len(states) != len(want) {
		t.Fatalf("bridge states = %v, want %v", states, want)
	}
	for i, w := range want {
		if states[i] != w {
			t.Errorf("states[%d] = %v, want %v", i, states[i], w)
		}
	}
}

func TestEventsPublished(t *testing.T) {
	_, pub, eng := startRelay(t)

	msg := []byte(`{"name":{"value":"Event"},"payload":{"value":{"event":{"value":"Monitor Connect"},"head_index":{"value":0}}}}`)
	if _, ok := eng.router.Dispatch(msg); !ok {
		t.Fatal("Dispatch() did not route the message")
	}

	msgs := pub.on("lkg/event/monitor_connect")
	if len(msgs) != 1 {
		t.Fatalf("event messages = %d, want 1", len(msgs))
	}
	if msgs[0].retained {
		t.Error("events should not be retained")
	}
	var ev EventMessage
	if err := json.Unmarshal(msgs[0].payload, &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.Event != "Monitor Connect" {
		t.Errorf("Event = %q, want %q", ev.Event, "Monitor Connect")
	}
	var payload map[string]any
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		t.Fatalf("payload is not an object: %v", err)
	}
	if _, ok := payload["head_index"]; !ok {
		t.Error("payload lost head_index field")
	}
}

func TestTransportCommands(t *testing.T) {
	tests := []struct {
		name      string
		action    string
		actionErr error
	}{
		{name: "play", action: "play"},
		{name: "pause", action: "pause"},
		{name: "next", action: "next"},
		{name: "previous", action: "previous"},
		{name: "no session", action: "play", actionErr: bridge.ErrNoSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, pub, eng := startRelay(t)
			eng.actionErr = tt.actionErr

			err := pub.deliver(t, tt.action)
			if !errors.Is(err, tt.actionErr) {
				t.Errorf("handler error = %v, want %v", err, tt.actionErr)
			}
			if len(eng.actions) != 1 || eng.actions[0] != tt.action {
				t.Errorf("engine actions = %v, want [%s]", eng.actions, tt.action)
			}
		})
	}
}

func TestRefreshCommand(t *testing.T) {
	_, pub, eng := startRelay(t)
	eng.displays = []device.Display{
		{Index: 0, HardwareID: "LKG-2K-00001"},
		{Index: 1, HardwareID: "DELL-U2720Q"},
	}

	if err := pub.deliver(t, "refresh"); err != nil {
		t.Fatalf("refresh error = %v", err)
	}
	if eng.refreshes != 1 {
		t.Errorf("refreshes = %d, want 1", eng.refreshes)
	}

	msgs := pub.on("lkg/displays")
	if len(msgs) != 1 {
		t.Fatalf("displays messages = %d, want 1", len(msgs))
	}
	if !msgs[0].retained {
		t.Error("displays should be retained")
	}
	var snap DisplaysMessage
	if err := json.Unmarshal(msgs[0].payload, &snap); err != nil {
		t.Fatalf("decoding displays: %v", err)
	}
	if snap.Count != 2 {
		t.Errorf("Count = %d, want 2", snap.Count)
	}
}

func TestRefreshCommand_Failure(t *testing.T) {
	_, pub, eng := startRelay(t)
	eng.refreshErr = bridge.ErrTransport

	if err := pub.deliver(t, "refresh"); !errors.Is(err, bridge.ErrTransport) {
		t.Errorf("refresh error = %v, want ErrTransport", err)
	}
	if got := pub.on("lkg/displays"); len(got) != 0 {
		t.Errorf("displays published after failed refresh: %d", len(got))
	}
}

func TestUnknownCommand(t *testing.T) {
	_, pub, eng := startRelay(t)

	err := pub.deliver(t, "rewind")
	if !errors.Is(err, bridge.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
	if len(eng.actions) != 0 {
		t.Errorf("engine actions = %v, want none", eng.actions)
	}
}

func TestPublishDisplays_Empty(t *testing.T) {
	r, pub, _ := startRelay(t)

	r.PublishDisplays(nil)

	msgs := pub.on("lkg/displays")
	if len(msgs) != 1 {
		t.Fatalf("displays messages = %d, want 1", len(msgs))
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msgs[0].payload, &raw); err != nil {
		t.Fatalf("decoding displays: %v", err)
	}
	if string(raw["displays"]) != "[]" {
		t.Errorf("displays = %s, want []", raw["displays"])
	}
}

func TestStop_DetachesListeners(t *testing.T) {
	r, pub, eng := startRelay(t)

	handler := pub.handler

	r.Stop()
	r.Stop()

	if r.Running() {
		t.Error("Running() = true after Stop")
	}
	if pub.stopCalls != 1 {
		t.Errorf("StopCommands calls = %d, want 1", pub.stopCalls)
	}
	if n := eng.router.ListenerCount(bridge.AllEvents); n != 0 {
		t.Errorf("router listeners = %d, want 0", n)
	}

	before := len(pub.bridgeStates())
	eng.monitor.UpdateState(true)
	if after := len(pub.bridgeStates()); after != before {
		t.Error("status published after Stop")
	}

	// A command already in flight when the subscription dropped.
	if err := handler("play", nil); !errors.Is(err, errStopped) {
		t.Errorf("late command error = %v, want errStopped", err)
	}
	if len(eng.actions) != 0 {
		t.Errorf("engine actions after Stop = %v", eng.actions)
	}
}

func TestRawPayload(t *testing.T) {
	if got := string(rawPayload(`{"a":1}`)); got != `{"a":1}` {
		t.Errorf("rawPayload(object) = %s", got)
	}
	if got := string(rawPayload(`not json`)); got != `"not json"` {
		t.Errorf("rawPayload(text) = %s", got)
	}
}
