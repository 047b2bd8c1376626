package bridge

import "errors"

// Errors returned by the engine. Check with errors.Is.
var (
	// ErrNoSession is returned by session-dependent operations when no
	// orchestration is active. No request is sent.
	ErrNoSession = errors.New("bridge: no active orchestration")

	// ErrTransport is returned when a request could not be delivered or the
	// daemon answered with a non-2xx status.
	ErrTransport = errors.New("bridge: transport failure")

	// ErrProtocol is returned when a response is missing expected fields.
	ErrProtocol = errors.New("bridge: malformed response")

	// ErrNoPlaylist is returned by SyncOverwrite when no playlist is installed.
	ErrNoPlaylist = errors.New("bridge: no playlist installed")

	// ErrNotConnected is returned when the push channel is required but closed.
	ErrNotConnected = errors.New("bridge: push channel not connected")

	// ErrInvalidArgument is returned for caller mistakes such as a nil playlist.
	ErrInvalidArgument = errors.New("bridge: invalid argument")

	// ErrClosed is returned by components used after Close or Stop.
	ErrClosed = errors.New("bridge: closed")
)
