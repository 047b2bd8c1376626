package device

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nerrad567/holobridge/internal/wire"
)

// HardwareInfo is a template describing one supported hardware type, as
// listed by Bridge regardless of what is attached.
type HardwareInfo struct {
	Index               int           `json:"index"`
	HardwareVersion     string        `json:"hardware_version"`
	HardwareVersionLong string        `json:"hardware_version_long"`
	HasEDIDCalibration  bool          `json:"has_edid_calibration"`
	HFOV                float64       `json:"hfov"`
	VFOV                float64       `json:"vfov"`
	ViewCone            float64       `json:"view_cone"`
	ResolutionWidth     int           `json:"resolution_width"`
	ResolutionHeight    int           `json:"resolution_height"`
	DefaultQuilt        QuiltSettings `json:"default_quilt"`
	Calibration         Calibration   `json:"calibration"`
}

// DeviceType maps the template index onto the known hardware generations.
func (h HardwareInfo) DeviceType() DeviceType {
	t := DeviceType(h.Index)
	if !t.Known() {
		return DefaultDeviceType
	}
	return t
}

// ParseHardwareTemplates decodes the payload of a hardware template listing.
// Entries that are not objects are skipped. Missing fields are left zero.
func ParseHardwareTemplates(payload json.RawMessage, logger Logger) ([]HardwareInfo, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	entries, err := wire.Object(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceList, err)
	}

	templates := make([]HardwareInfo, 0, len(entries))
	for key, raw := range entries {
		obj, err := wire.Object(raw)
		if err != nil {
			logger.Debug("skipping hardware template", "key", key, "error", err)
			continue
		}

		var h HardwareInfo
		h.Index = intField(obj, "index")
		h.HardwareVersion = stringField(obj, "hardwareVersion")
		h.HardwareVersionLong = stringField(obj, "hardwareVersionLong")
		h.HasEDIDCalibration = boolField(obj, "hasEdidCalibration")
		h.HFOV = floatField(obj, "hfov")
		h.VFOV = floatField(obj, "vfov")
		h.ViewCone = floatField(obj, "viewCone")
		h.ResolutionWidth = intField(obj, "resolutionWidth")
		h.ResolutionHeight = intField(obj, "resolutionHeight")

		if raw, ok := obj["defaultQuilt"]; ok {
			if q, err := ParseDefaultQuilt(raw); err == nil {
				h.DefaultQuilt = q
			} else {
				logger.Debug("template default quilt unparseable", "key", key, "error", err)
			}
		}
		if raw, ok := obj["calibration"]; ok {
			if c, err := ParseCalibration(raw); err == nil {
				h.Calibration = c
			} else {
				logger.Debug("template calibration unparseable", "key", key, "error", err)
			}
		}

		templates = append(templates, h)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].Index < templates[j].Index })
	return templates, nil
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := wire.Field(obj, key)
	if !ok {
		return ""
	}
	s, _ := wire.String(raw)
	return s
}

func intField(obj map[string]json.RawMessage, key string) int {
	raw, ok := wire.Field(obj, key)
	if !ok {
		return 0
	}
	n, _ := wire.Int(raw)
	return n
}

func floatField(obj map[string]json.RawMessage, key string) float64 {
	raw, ok := wire.Field(obj, key)
	if !ok {
		return 0
	}
	f, _ := wire.Float(raw)
	return f
}

func boolField(obj map[string]json.RawMessage, key string) bool {
	raw, ok := wire.Field(obj, key)
	if !ok {
		return false
	}
	b, _ := wire.Bool(raw)
	return b
}
