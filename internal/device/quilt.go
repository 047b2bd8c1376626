package device

// Quilt dimension limits.
const (
	MinQuiltSize  = 256
	MaxQuiltSize  = 16384
	MinQuiltTiles = 1
	MaxQuiltTiles = 32
)

// QuiltSettings describes a tiled multi-view image layout.
//
// Columns and Rows count tiles along x and y. Aspect is the aspect of the
// source image and is not necessarily the aspect of a single tile.
type QuiltSettings struct {
	Aspect  float64 `json:"aspect"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Columns int     `json:"columns"`
	Rows    int     `json:"rows"`
}

// NewQuiltSettings returns settings with sizes and tile counts clamped to
// the supported range.
func NewQuiltSettings(width, height, columns, rows int, aspect float64) QuiltSettings {
	return QuiltSettings{
		Aspect:  aspect,
		Width:   clamp(width, MinQuiltSize, MaxQuiltSize),
		Height:  clamp(height, MinQuiltSize, MaxQuiltSize),
		Columns: clamp(columns, MinQuiltTiles, MaxQuiltTiles),
		Rows:    clamp(rows, MinQuiltTiles, MaxQuiltTiles),
	}
}

// FallbackQuilt is used when nothing better is known about a display.
func FallbackQuilt() QuiltSettings {
	return NewQuiltSettings(3360, 3360, 8, 6, 0.75)
}

// BlankQuilt is the smallest valid layout. Its aspect is 1 so projection
// math never divides by zero.
func BlankQuilt() QuiltSettings {
	return NewQuiltSettings(MinQuiltSize, MinQuiltSize, 1, 1, 1)
}

// IsZeroOrBlank reports whether q carries no device-specific information.
func (q QuiltSettings) IsZeroOrBlank() bool {
	return q == (QuiltSettings{}) || q == BlankQuilt()
}

// TileCount returns Columns * Rows.
func (q QuiltSettings) TileCount() int {
	return q.Columns * q.Rows
}

// TileWidth returns the width of one tile in pixels.
func (q QuiltSettings) TileWidth() int {
	if q.Columns <= 0 {
		return q.Width
	}
	return q.Width / q.Columns
}

// TileHeight returns the height of one tile in pixels.
func (q QuiltSettings) TileHeight() int {
	if q.Rows <= 0 {
		return q.Height
	}
	return q.Height / q.Rows
}

// TileAspect returns the width/height ratio of a single tile.
func (q QuiltSettings) TileAspect() float64 {
	h := q.TileHeight()
	if h == 0 {
		return 0
	}
	return float64(q.TileWidth()) / float64(h)
}

// Padding returns the unused pixels to the right of and above the tiles.
func (q QuiltSettings) Padding() (horizontal, vertical int) {
	return q.Width - q.Columns*q.TileWidth(), q.Height - q.Rows*q.TileHeight()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
