package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDisplayNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDisplayNotFound is returned when no display has the requested index.
	ErrDisplayNotFound = errors.New("device: display not found")

	// ErrInvalidCalibration is returned when a calibration blob is missing a required field.
	ErrInvalidCalibration = errors.New("device: invalid calibration")

	// ErrInvalidQuilt is returned when a default quilt blob cannot be parsed.
	ErrInvalidQuilt = errors.New("device: invalid default quilt")

	// ErrInvalidHardwareInfo is returned when an entry's hardware fields cannot be parsed.
	ErrInvalidHardwareInfo = errors.New("device: invalid hardware info")

	// ErrInvalidDeviceList is returned when the device list payload is not an object.
	ErrInvalidDeviceList = errors.New("device: invalid device list")
)
