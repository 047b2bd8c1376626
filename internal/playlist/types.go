package playlist

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by playlist operations.
var (
	// ErrInvalidName is returned for an empty playlist name.
	ErrInvalidName = errors.New("playlist: invalid name")

	// ErrIndexOutOfRange is returned when an item index does not exist.
	ErrIndexOutOfRange = errors.New("playlist: index out of range")

	// ErrUnknownParameter is returned for a parameter name Bridge does not accept.
	ErrUnknownParameter = errors.New("playlist: unknown parameter")

	// ErrUnsupportedFormat is returned by LoadFile for unknown extensions.
	ErrUnsupportedFormat = errors.New("playlist: unsupported file format")
)

// DepthLocation says where the depth map sits relative to the color image
// in an RGBD source.
type DepthLocation int

// Depth map placements, in Bridge's wire order.
const (
	DepthBottom DepthLocation = iota
	DepthTop
	DepthLeft
	DepthRight
)

var depthLocationNames = [...]string{"bottom", "top", "left", "right"}

// String returns the lower-case placement name.
func (l DepthLocation) String() string {
	if l < 0 || int(l) >= len(depthLocationNames) {
		return fmt.Sprintf("DepthLocation(%d)", int(l))
	}
	return depthLocationNames[l]
}

// ParseDepthLocation converts a placement name into a DepthLocation.
func ParseDepthLocation(s string) (DepthLocation, error) {
	for i, name := range depthLocationNames {
		if strings.EqualFold(s, name) {
			return DepthLocation(i), nil
		}
	}
	return 0, fmt.Errorf("playlist: unknown depth location %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l DepthLocation) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *DepthLocation) UnmarshalText(text []byte) error {
	v, err := ParseDepthLocation(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Item defaults.
const (
	DefaultRows        = 5
	DefaultCols        = 9
	DefaultAspect      = 1.77
	DefaultViewCount   = 45
	DefaultDurationMS  = 20000
	DefaultDepthiness  = 1.0
	DefaultDepthCutoff = 0.9
	DefaultFocus       = -0.04
	DefaultZoom        = 1.0
	DefaultDepthLoc    = DepthLeft
)

// Item is one playable entry.
type Item struct {
	URI       string  `json:"uri"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	Aspect    float64 `json:"aspect"`
	ViewCount int     `json:"view_count"`

	IsRGBD         bool          `json:"is_rgbd"`
	Depthiness     float64       `json:"depthiness"`
	DepthCutoff    float64       `json:"depth_cutoff"`
	Focus          float64       `json:"focus"`
	DepthLocation  DepthLocation `json:"depth_location"`
	DepthInversion bool          `json:"depth_inversion"`
	ChromaDepth    bool          `json:"chroma_depth"`
	CropPosX       float64       `json:"crop_pos_x"`
	CropPosY       float64       `json:"crop_pos_y"`
	Zoom           float64       `json:"zoom"`

	// DurationMS is how long a still item stays on screen. Videos play to
	// their end and ignore it.
	DurationMS int `json:"duration_ms"`
}

// NewItem returns a quilt item with default tiling.
func NewItem(uri string) Item {
	return Item{
		URI:           uri,
		Rows:          DefaultRows,
		Cols:          DefaultCols,
		Aspect:        DefaultAspect,
		ViewCount:     DefaultViewCount,
		Depthiness:    DefaultDepthiness,
		DepthCutoff:   DefaultDepthCutoff,
		Focus:         DefaultFocus,
		DepthLocation: DefaultDepthLoc,
		Zoom:          DefaultZoom,
		DurationMS:    DefaultDurationMS,
	}
}

// NewRGBDItem returns an RGBD item with default depth parameters.
func NewRGBDItem(uri string) Item {
	it := NewItem(uri)
	it.IsRGBD = true
	return it
}

// Playlist is a named, ordered sequence of items.
//
// Thread Safety:
//   - Playlist is a plain value holder; callers serialise mutation.
type Playlist struct {
	Name  string
	Loop  bool
	items []Item
}

// New creates an empty playlist.
func New(name string, loop bool) (*Playlist, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	return &Playlist{Name: name, Loop: loop}, nil
}

// Add appends items in order.
func (p *Playlist) Add(items ...Item) {
	p.items = append(p.items, items...)
}

// Len returns the number of items.
func (p *Playlist) Len() int {
	return len(p.items)
}

// Items returns a copy of the items in playback order.
func (p *Playlist) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// Item returns the item at index i.
func (p *Playlist) Item(i int) (Item, error) {
	if i < 0 || i >= len(p.items) {
		return Item{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return p.items[i], nil
}

// Update replaces the item at index i.
func (p *Playlist) Update(i int, item Item) error {
	if i < 0 || i >= len(p.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	p.items[i] = item
	return nil
}

// RemoveAt deletes the item at index i. Later items shift down by one.
func (p *Playlist) RemoveAt(i int) error {
	if i < 0 || i >= len(p.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	p.items = append(p.items[:i], p.items[i+1:]...)
	return nil
}

// Move relocates the item at from so it ends up at index to.
func (p *Playlist) Move(from, to int) error {
	if from < 0 || from >= len(p.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, from)
	}
	if to < 0 || to >= len(p.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, to)
	}
	it := p.items[from]
	p.items = append(p.items[:from], p.items[from+1:]...)
	p.items = append(p.items[:to], append([]Item{it}, p.items[to:]...)...)
	return nil
}
