// Package api implements the local HTTP control API and WebSocket event
// hub for holobridge.
//
// This package provides:
//   - REST endpoints for displays, hardware templates, transport control and
//     playlist playback
//   - Debounced live parameter updates for the playing playlist
//   - Read access to the request journal
//   - A WebSocket hub that fans Bridge events and connection changes out to
//     subscribed clients
//   - Middleware stack (request ID, logging, recovery, body size limit,
//     Prometheus request counters)
//
// # Architecture
//
// The API sits in front of the bridge engine. Requests are translated into
// engine calls and engine errors are mapped onto HTTP status codes: caller
// mistakes become 400, missing session or playlist 409, daemon trouble 502,
// and a closed push channel 503.
//
// # Graceful Degradation
//
// The journal and metrics are optional. When the journal is disabled its
// endpoint answers 503; everything else keeps working.
package api
