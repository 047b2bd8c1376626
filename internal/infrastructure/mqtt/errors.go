package mqtt

import "errors"

var (
	// ErrDisabled is returned by Connect when mqtt.enabled is false.
	ErrDisabled = errors.New("mqtt: disabled in configuration")

	// ErrConnectionFailed is returned when the broker cannot be reached at startup.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected is returned while the broker connection is down.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrPublishFailed is returned when a message cannot be published.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when the command subscription fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when the command subscription cannot be dropped.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")

	// ErrTimeout is wrapped when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
