package bridge

import "sync"

// ListenerID identifies a registered listener so it can be removed later.
type ListenerID uint64

// StateListener is told about connection state. It receives true when the
// daemon is reachable.
type StateListener func(connected bool)

type stateListener struct {
	id ListenerID
	fn StateListener
}

// ConnectionMonitor tracks whether the daemon was reachable on the last
// request. Every request outcome goes through UpdateState; listeners hear
// about transitions only, never about repeated identical outcomes.
//
// Listeners run synchronously on the goroutine that reported the
// transition. They must not call UpdateState or AddListener themselves.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type ConnectionMonitor struct {
	// notifyMu serialises transitions with their notifications so
	// listeners observe transitions in the order they happened.
	notifyMu sync.Mutex

	mu        sync.Mutex
	connected bool
	listeners []stateListener
	nextID    ListenerID
	logger    Logger
}

// NewConnectionMonitor creates a monitor that starts out disconnected.
func NewConnectionMonitor() *ConnectionMonitor {
	return &ConnectionMonitor{logger: noopLogger{}}
}

// SetLogger sets the logger used to report listener panics.
func (m *ConnectionMonitor) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// UpdateState records the outcome of a request and returns the new state.
// Listeners are notified only when the state changes.
func (m *ConnectionMonitor) UpdateState(success bool) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	changed := m.connected != success
	m.connected = success
	var listeners []stateListener
	if changed {
		listeners = append(listeners, m.listeners...)
	}
	logger := m.logger
	m.mu.Unlock()

	if changed {
		logger.Info("bridge connection state changed", "connected", success)
		for _, l := range listeners {
			m.invoke(logger, l, success)
		}
	}
	return success
}

// Connected returns the last recorded state.
func (m *ConnectionMonitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// AddListener registers fn and immediately calls it once with the current
// state.
func (m *ConnectionMonitor) AddListener(fn StateListener) ListenerID {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.nextID++
	l := stateListener{id: m.nextID, fn: fn}
	m.listeners = append(m.listeners, l)
	current := m.connected
	logger := m.logger
	m.mu.Unlock()

	m.invoke(logger, l, current)
	return l.id
}

// RemoveListener unregisters a listener. Returns false if id is unknown.
func (m *ConnectionMonitor) RemoveListener(id ListenerID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (m *ConnectionMonitor) invoke(logger Logger, l stateListener, connected bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in connection state listener", "listener", l.id, "panic", r)
		}
	}()
	l.fn(connected)
}
