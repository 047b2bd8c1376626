// Package bridge is the client-side protocol engine for the Looking Glass
// Bridge daemon.
//
// Bridge runs as a separate process. Requests go to it as HTTP PUTs on
// http://host:33334/<endpoint>; it pushes events back over a WebSocket at
// ws://host:9724/event_source. This package speaks that protocol through
// two narrow interfaces (Sender and PushChannel) and owns the state that
// sits on top of it:
//
//   - the orchestration session and its token
//   - the display registry, replaced wholesale on every refresh
//   - the event router for pushed messages
//   - the playlist protocol driver and its installed-playlist tracker
//   - the connection state monitor
//
// # Architecture
//
//	caller ──▶ Client ──▶ Sender ──▶ Bridge (HTTP)
//	             │  ▲
//	             │  └── ConnectionMonitor (every request outcome)
//	             ▼
//	        EventRouter ◀── PushChannel ◀── Bridge (WebSocket)
//
// # Failure model
//
// Operations return errors instead of panicking. Match them with errors.Is:
//
//   - ErrNoSession: no orchestration; no network call was made
//   - ErrTransport: the daemon was unreachable; connection state flips
//   - ErrProtocol: the daemon answered with something unparseable;
//     connection state is left alone
//   - ErrNoPlaylist: sync requested with nothing installed
//
// # Concurrency
//
// Client methods block for the round trip and are safe to call from
// several goroutines. Event listeners run on the push channel's goroutine.
// Poller, Queue and Debouncer each own one goroutine or timer and are
// stopped deterministically by their Close/Stop methods.
//
// # Usage
//
//	client, err := bridge.New(bridge.Options{
//	    BaseURL:  cfg.Bridge.BaseURL(),
//	    EventURL: cfg.Bridge.EventURL(),
//	    Sender:   transport.NewHTTPSender(cfg.Bridge.RequestTimeout),
//	    NewPush:  transport.NewPushFactory(logger),
//	})
//	if err := client.EnterOrchestration(ctx, "default"); err != nil {
//	    return err
//	}
//	defer client.Close()
package bridge
