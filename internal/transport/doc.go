// Package transport provides the network adapters the bridge engine runs on.
//
// HTTPSender delivers protocol requests with net/http. PushConn is the
// WebSocket push channel built on gorilla/websocket; NewPushFactory hands
// the engine a constructor for it.
//
// Neither adapter retries. Failures are returned to the engine, which
// records them in its connection state monitor.
package transport
