package device

import (
	"encoding/json"
	"strings"
)

// HolographicMarker is the substring Bridge puts in the hardware id of
// every Looking Glass display.
const HolographicMarker = "LKG"

// AnyDisplay targets the first available holographic display wherever a
// display index is expected.
const AnyDisplay = -1

// Point is an OS-level screen position in pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Display is one output reported by Bridge. Identity is by Index.
type Display struct {
	Index           int           `json:"index"`
	HardwareID      string        `json:"hwid"`
	HardwareVersion string        `json:"hardware_version"`
	State           string        `json:"state"`
	WindowCoords    Point         `json:"window_coords"`
	Calibration     Calibration   `json:"calibration"`
	DefaultQuilt    QuiltSettings `json:"default_quilt"`
}

// Valid reports whether the display's calibration carries a native
// resolution. Displays without one cannot be rendered to.
func (d Display) Valid() bool {
	return d.Calibration.Valid()
}

// IsHolographic reports whether the display is a valid Looking Glass display.
func (d Display) IsHolographic() bool {
	return strings.Contains(d.HardwareID, HolographicMarker) && d.Valid()
}

// DeepCopy returns a copy that shares no memory with d.
func (d Display) DeepCopy() Display {
	c := d
	if d.Calibration.Raw != nil {
		c.Calibration.Raw = append(json.RawMessage(nil), d.Calibration.Raw...)
	}
	return c
}

// Calibration holds the optical parameters Bridge measured for a display.
// The engine only checks validity; renderers consume the rest.
type Calibration struct {
	ConfigVersion string  `json:"config_version"`
	Serial        string  `json:"serial"`
	Pitch         float64 `json:"pitch"`
	Slope         float64 `json:"slope"`
	Center        float64 `json:"center"`
	Fringe        int     `json:"fringe"`
	ViewCone      int     `json:"view_cone"`
	InvView       int     `json:"inv_view"`
	VerticalAngle float64 `json:"vertical_angle"`
	DPI           int     `json:"dpi"`
	ScreenW       int     `json:"screen_w"`
	ScreenH       int     `json:"screen_h"`
	FlipImageX    float64 `json:"flip_image_x"`
	FlipImageY    float64 `json:"flip_image_y"`
	FlipSubpixel  float64 `json:"flip_subpixel"`

	// Raw is the calibration document as Bridge sent it.
	Raw json.RawMessage `json:"-"`
}

// Valid reports whether both screen dimensions are nonzero.
func (c Calibration) Valid() bool {
	return c.ScreenW != 0 && c.ScreenH != 0
}

// AspectRatio returns the native screen aspect, or 0 for an invalid calibration.
func (c Calibration) AspectRatio() float64 {
	if !c.Valid() {
		return 0
	}
	return float64(c.ScreenW) / float64(c.ScreenH)
}
