package bridge

import (
	"sync"

	"github.com/nerrad567/holobridge/internal/wire"
)

// AllEvents is the reserved listener name that receives every event.
const AllEvents = ""

// Event is one pushed message. Payload is the unwrapped payload document
// exactly as the daemon sent it, including the "event" field.
type Event struct {
	Name    string
	Payload string
}

// EventListener handles a pushed event.
type EventListener func(Event)

type eventListener struct {
	id ListenerID
	fn EventListener
}

// EventRouter multicasts pushed messages by event name.
//
// Listeners registered under the exact event name fire first, in
// registration order, followed by every AllEvents listener. A listener
// registered under both receives the event twice. Messages without an
// extractable event name are dropped.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Listeners run without the
//     router's lock held, so they may add or remove listeners.
type EventRouter struct {
	mu        sync.RWMutex
	listeners map[string][]eventListener
	nextID    ListenerID
	logger    Logger
}

// NewEventRouter creates an empty router.
func NewEventRouter() *EventRouter {
	return &EventRouter{
		listeners: make(map[string][]eventListener),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger used for dropped messages and listener panics.
func (r *EventRouter) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// AddListener registers fn under name. Use AllEvents to receive everything.
func (r *EventRouter) AddListener(name string, fn EventListener) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.listeners[name] = append(r.listeners[name], eventListener{id: r.nextID, fn: fn})
	return r.nextID
}

// RemoveListener unregisters the listener id from name. Returns false if
// it was not registered there.
func (r *EventRouter) RemoveListener(name string, id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.listeners[name]
	for i, l := range list {
		if l.id != id {
			continue
		}
		if len(list) == 1 {
			delete(r.listeners, name)
		} else {
			r.listeners[name] = append(list[:i:i], list[i+1:]...)
		}
		return true
	}
	return false
}

// ListenerCount returns how many listeners are registered under name.
func (r *EventRouter) ListenerCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[name])
}

// Dispatch decodes a raw push message and delivers it. It returns the event
// name and whether the message was routable.
func (r *EventRouter) Dispatch(message []byte) (string, bool) {
	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()

	ev, ok := decodeEvent(message)
	if !ok {
		logger.Debug("dropping push message without event name", "size", len(message))
		return "", false
	}

	r.mu.RLock()
	targets := make([]eventListener, 0, len(r.listeners[ev.Name])+len(r.listeners[AllEvents]))
	targets = append(targets, r.listeners[ev.Name]...)
	targets = append(targets, r.listeners[AllEvents]...)
	r.mu.RUnlock()

	for _, l := range targets {
		r.invoke(logger, l, ev)
	}
	return ev.Name, true
}

func (r *EventRouter) invoke(logger Logger, l eventListener, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("panic in event listener", "event", ev.Name, "listener", l.id, "panic", p)
		}
	}()
	l.fn(ev)
}

// decodeEvent extracts the event name from payload.value.event.value.
func decodeEvent(message []byte) (Event, bool) {
	payload, err := wire.Payload(message)
	if err != nil {
		return Event{}, false
	}
	obj, err := wire.Object(payload)
	if err != nil {
		return Event{}, false
	}
	raw, ok := wire.Field(obj, "event")
	if !ok {
		return Event{}, false
	}
	name, err := wire.String(raw)
	if err != nil || name == "" {
		return Event{}, false
	}
	return Event{Name: name, Payload: string(payload)}, true
}
