package device

import "fmt"

// DeviceType identifies a Looking Glass hardware generation. Values follow
// the order of Bridge's hardware template indices.
type DeviceType int

// Known hardware generations.
const (
	DeviceType8_9inGen1 DeviceType = iota
	DeviceType15_6inGen1
	DeviceTypeProGen1
	DeviceType8KGen1
	DeviceTypePortraitGen2
	DeviceType16inGen2
	DeviceType32inGen2
	DeviceTypeThirdParty
	DeviceType65inLandscapeGen2
	DeviceTypePrototype
	DeviceTypeGoPortrait
	DeviceTypeGoLandscape
	DeviceTypeKiosk
	DeviceType16inPortraitGen3
	DeviceType16inLandscapeGen3
	DeviceType32inPortraitGen3
	DeviceType32inLandscapeGen3
	DeviceType65inPortraitGen3
)

var deviceTypeNames = [...]string{
	DeviceType8_9inGen1:         `Looking Glass 8.9"`,
	DeviceType15_6inGen1:        `Looking Glass 15.6"`,
	DeviceTypeProGen1:           "Looking Glass Pro",
	DeviceType8KGen1:            "Looking Glass 8K",
	DeviceTypePortraitGen2:      "Looking Glass Portrait",
	DeviceType16inGen2:          `Looking Glass 16"`,
	DeviceType32inGen2:          `Looking Glass 32"`,
	DeviceTypeThirdParty:        "Third-Party Non-Looking Glass",
	DeviceType65inLandscapeGen2: `Looking Glass 65" (Landscape)`,
	DeviceTypePrototype:         "Looking Glass Prototype",
	DeviceTypeGoPortrait:        "Looking Glass Go (Portrait)",
	DeviceTypeGoLandscape:       "Looking Glass Go (Landscape)",
	DeviceTypeKiosk:             "Looking Glass Kiosk",
	DeviceType16inPortraitGen3:  `Looking Glass 16" Spatial Display (Portrait)`,
	DeviceType16inLandscapeGen3: `Looking Glass 16" Spatial Display (Landscape)`,
	DeviceType32inPortraitGen3:  `Looking Glass 32" Spatial Display (Portrait)`,
	DeviceType32inLandscapeGen3: `Looking Glass 32" Spatial Display (Landscape)`,
	DeviceType65inPortraitGen3:  `Looking Glass 65" (Portrait)`,
}

// DefaultDeviceType is assumed when a display's type is unknown.
const DefaultDeviceType = DeviceTypeThirdParty

// Known reports whether t is one of the defined device types.
func (t DeviceType) Known() bool {
	return t >= 0 && int(t) < len(deviceTypeNames)
}

// String returns the human-readable product name. Several types share a
// name, so it is not an identifier.
func (t DeviceType) String() string {
	if !t.Known() {
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
	return deviceTypeNames[t]
}

// AllDeviceTypes returns every known device type in index order.
func AllDeviceTypes() []DeviceType {
	types := make([]DeviceType, len(deviceTypeNames))
	for i := range types {
		types[i] = DeviceType(i)
	}
	return types
}
