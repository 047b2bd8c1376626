// Package device models the displays reported by the Bridge daemon.
//
// Bridge reports every attached output through "available_output_devices".
// Each entry carries hardware info, a calibration blob and a recommended
// default quilt layout. This package parses those entries into Display
// values and keeps them in a Registry.
//
// # Key Types
//
//   - Display: one attached output, identified by Index
//   - Calibration: device-intrinsic optical parameters
//   - QuiltSettings: recommended tiling for a display
//   - HardwareInfo: a supported hardware template
//   - DeviceType: the known Looking Glass hardware generations
//
// # Registry semantics
//
// The Registry is replaced wholesale on every refresh. It is never patched
// in place, so a display that disappeared from the daemon's report cannot
// survive as a stale entry. All reads return copies.
//
// # Holographic displays
//
// A display is holographic when its hardware id contains "LKG" and its
// calibration reports a nonzero native resolution.
//
// # Usage
//
//	displays, err := device.ParseDisplays(payload, logger)
//	if err != nil {
//	    return err
//	}
//	registry.Replace(displays)
//	first, ok := registry.FirstHolographic()
package device
