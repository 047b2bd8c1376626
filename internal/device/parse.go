package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/nerrad567/holobridge/internal/wire"
)

// ParseCalibration decodes a calibration blob. The blob may be a JSON
// document or a JSON string holding one. A missing "fringe" defaults to 0;
// any other missing or malformed field is an error.
func ParseCalibration(raw json.RawMessage) (Calibration, error) {
	doc, err := wire.Embedded(raw)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}
	obj, err := wire.Object(doc)
	if err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrInvalidCalibration, err)
	}

	p := fieldParser{obj: obj}
	c := Calibration{
		ConfigVersion: p.text("configVersion"),
		Serial:        p.text("serial"),
		Pitch:         p.number("pitch"),
		Slope:         p.number("slope"),
		Center:        p.number("center"),
		ViewCone:      int(p.number("viewCone")),
		InvView:       int(p.number("invView")),
		VerticalAngle: p.number("verticalAngle"),
		DPI:           int(p.number("DPI")),
		ScreenW:       int(p.number("screenW")),
		ScreenH:       int(p.number("screenH")),
		FlipImageX:    p.number("flipImageX"),
		FlipImageY:    p.number("flipImageY"),
		FlipSubpixel:  p.number("flipSubp"),
		Raw:           append(json.RawMessage(nil), doc...),
	}
	if p.err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrInvalidCalibration, p.err)
	}

	// Older calibrations predate fringe.
	if raw, ok := wire.Field(obj, "fringe"); ok {
		if f, err := wire.Float(raw); err == nil {
			c.Fringe = int(f)
		}
	}

	return c, nil
}

// ParseDefaultQuilt decodes a default quilt blob. Values are clamped into
// the supported range.
func ParseDefaultQuilt(raw json.RawMessage) (QuiltSettings, error) {
	doc, err := wire.Embedded(raw)
	if err != nil {
		return QuiltSettings{}, fmt.Errorf("%w: %v", ErrInvalidQuilt, err)
	}
	obj, err := wire.Object(doc)
	if err != nil {
		return QuiltSettings{}, fmt.Errorf("%w: %v", ErrInvalidQuilt, err)
	}

	p := fieldParser{obj: obj}
	aspect := p.number("quiltAspect")
	width := p.integer("quiltX")
	height := p.integer("quiltY")
	columns := p.integer("tileX")
	rows := p.integer("tileY")
	if p.err != nil {
		return QuiltSettings{}, fmt.Errorf("%w: %v", ErrInvalidQuilt, p.err)
	}
	return NewQuiltSettings(width, height, columns, rows, aspect), nil
}

// ParseDisplay decodes one entry of the device list.
//
// Calibration and quilt failures are not fatal: the display is kept with a
// zero calibration (and therefore reported invalid) or a fallback quilt,
// and problems lists what was recovered. An entry that is not an object or
// whose hardware info cannot be parsed has no usable identity; it is
// rejected with an error wrapping ErrInvalidHardwareInfo.
func ParseDisplay(raw json.RawMessage) (Display, []error, error) {
	obj, err := wire.Object(raw)
	if err != nil {
		return Display{}, nil, fmt.Errorf("%w: %v", ErrInvalidHardwareInfo, err)
	}

	p := fieldParser{obj: obj}
	hwVersion := p.text("hardwareVersion")
	hwid := p.text("hwid")
	index := p.integer("index")
	state := p.text("state")
	var coords Point
	if rawCoords, ok := wire.Field(obj, "windowCoords"); ok {
		if c, err := wire.Object(rawCoords); err == nil {
			cp := fieldParser{obj: c}
			coords = Point{X: cp.integer("x"), Y: cp.integer("y")}
			if cp.err != nil && p.err == nil {
				p.err = cp.err
			}
		} else if p.err == nil {
			p.err = err
		}
	} else if p.err == nil {
		p.err = errors.New("missing windowCoords")
	}
	if p.err != nil {
		return Display{}, nil, fmt.Errorf("%w: %v", ErrInvalidHardwareInfo, p.err)
	}

	d := Display{
		Index:           index,
		HardwareID:      hwid,
		HardwareVersion: hwVersion,
		State:           state,
		WindowCoords:    coords,
		DefaultQuilt:    FallbackQuilt(),
	}

	var problems []error
	if blob, ok := obj["calibration"]; ok {
		if c, err := ParseCalibration(blob); err == nil {
			d.Calibration = c
		} else {
			problems = append(problems, err)
		}
	} else {
		problems = append(problems, fmt.Errorf("%w: missing", ErrInvalidCalibration))
	}

	if blob, ok := obj["defaultQuilt"]; ok {
		if q, err := ParseDefaultQuilt(blob); err == nil {
			d.DefaultQuilt = q
		} else {
			problems = append(problems, err)
		}
	}

	return d, problems, nil
}

// ParseDisplays decodes the payload of a device listing into displays
// sorted by index. The payload must be an object keyed by position; a
// payload that is not an object is an error so callers can keep their
// previous state.
//
// Entries without usable hardware info are logged and skipped. Entries
// are visited in key order, so when two entries report the same index the
// one under the lower key wins on every refresh.
func ParseDisplays(payload json.RawMessage, logger Logger) ([]Display, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	entries, err := wire.Object(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceList, err)
	}

	byIndex := make(map[int]Display, len(entries))
	for _, key := range sortedKeys(entries) {
		d, problems, err := ParseDisplay(entries[key])
		if err != nil {
			logger.Warn("skipping display entry", "key", key, "error", err)
			continue
		}
		for _, problem := range problems {
			logger.Warn("display entry partially parsed", "key", key, "error", problem)
		}
		if prev, dup := byIndex[d.Index]; dup {
			logger.Warn("duplicate display index", "index", d.Index, "kept", prev.HardwareID, "dropped", d.HardwareID)
			continue
		}
		byIndex[d.Index] = d
	}

	displays := make([]Display, 0, len(byIndex))
	for _, d := range byIndex {
		displays = append(displays, d)
	}
	sort.Slice(displays, func(i, j int) bool { return displays[i].Index < displays[j].Index })
	return displays, nil
}

// sortedKeys orders positional keys numerically, with non-numeric keys
// after them in lexical order.
func sortedKeys(entries map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil && a != b:
			return a < b
		case errA == nil && errB == nil:
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// fieldParser reads required fields from an object and remembers the
// first failure, so a block of reads can be checked once.
type fieldParser struct {
	obj map[string]json.RawMessage
	err error
}

func (p *fieldParser) field(key string) (json.RawMessage, bool) {
	if p.err != nil {
		return nil, false
	}
	raw, ok := wire.Field(p.obj, key)
	if !ok {
		p.err = fmt.Errorf("missing %s", key)
		return nil, false
	}
	return raw, true
}

func (p *fieldParser) text(key string) string {
	raw, ok := p.field(key)
	if !ok {
		return ""
	}
	s, err := wire.String(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return s
}

func (p *fieldParser) number(key string) float64 {
	raw, ok := p.field(key)
	if !ok {
		return 0
	}
	f, err := wire.Float(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return f
}

func (p *fieldParser) integer(key string) int {
	raw, ok := p.field(key)
	if !ok {
		return 0
	}
	n, err := wire.Int(raw)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return n
}
