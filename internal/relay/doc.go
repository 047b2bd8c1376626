// Package relay mirrors the Bridge protocol engine onto MQTT.
//
// Outbound, every pushed Bridge event is published to {prefix}/event/{slug},
// the connection state is published retained to {prefix}/status, and display
// snapshots (from the poller or a refresh command) go retained to
// {prefix}/displays.
//
// Inbound, messages on {prefix}/command/{action} drive the engine:
//
//	play | pause | next | previous   transport control on the active orchestration
//	refresh                           device refresh followed by a displays publish
//
// The message body of a command is ignored. The mqtt client acknowledges
// each command on {prefix}/ack/{action} with the error the relay returns.
package relay
