package device

import (
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the device package.
// This allows different logging implementations to be used.
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

// Registry holds the displays from the most recent successful refresh.
//
// The map is swapped as a whole by Replace and never edited entry by entry.
// Readers get deep copies and can never observe or mutate live state.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	displays  map[int]Display
	updatedAt time.Time
	logger    Logger
}

// NewRegistry creates an empty display registry.
func NewRegistry() *Registry {
	return &Registry{
		displays: make(map[int]Display),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Replace discards every known display and installs displays in their
// place. Returns the number of displays now known.
func (r *Registry) Replace(displays []Display) int {
	next := make(map[int]Display, len(displays))
	for _, d := range displays {
		next[d.Index] = d.DeepCopy()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.displays = next
	r.updatedAt = time.Now()
	r.logger.Info("display registry replaced", "count", len(next))
	return len(next)
}

// All returns every known display sorted by index.
// The returned displays are deep copies; callers can safely modify them.
func (r *Registry) All() []Display {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Display, 0, len(r.displays))
	for _, d := range r.displays {
		out = append(out, d.DeepCopy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Holographic returns every valid Looking Glass display sorted by index.
func (r *Registry) Holographic() []Display {
	all := r.All()
	out := all[:0]
	for _, d := range all {
		if d.IsHolographic() {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the display with the given index.
// Returns ErrDisplayNotFound if no such display is known.
func (r *Registry) Get(index int) (Display, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.displays[index]
	if !ok {
		return Display{}, ErrDisplayNotFound
	}
	return d.DeepCopy(), nil
}

// FirstHolographic returns the holographic display with the lowest index.
func (r *Registry) FirstHolographic() (Display, bool) {
	holo := r.Holographic()
	if len(holo) == 0 {
		return Display{}, false
	}
	return holo[0], true
}

// Resolve returns the display targeted by index, treating AnyDisplay as
// "first available holographic display".
func (r *Registry) Resolve(index int) (Display, error) {
	if index == AnyDisplay {
		d, ok := r.FirstHolographic()
		if !ok {
			return Display{}, ErrDisplayNotFound
		}
		return d, nil
	}
	return r.Get(index)
}

// Count returns the number of known displays.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.displays)
}

// UpdatedAt returns when the registry was last replaced, or the zero time.
func (r *Registry) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// Stats summarises the registry contents.
type Stats struct {
	Total       int       `json:"total"`
	Holographic int       `json:"holographic"`
	Invalid     int       `json:"invalid"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetStats returns counts of known, holographic and invalid displays.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{Total: len(r.displays), UpdatedAt: r.updatedAt}
	for _, d := range r.displays {
		if d.IsHolographic() {
			s.Holographic++
		}
		if !d.Valid() {
			s.Invalid++
		}
	}
	return s
}
