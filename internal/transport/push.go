package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/holobridge/internal/bridge"
)

// Push channel tuning.
const (
	pushWriteWait    = 5 * time.Second
	pushPingInterval = 30 * time.Second
	pushReadLimit    = 1 << 20
)

// ErrPushClosed is returned by Send on a closed connection.
var ErrPushClosed = errors.New("push channel closed")

// PushConn is a WebSocket push channel. Every inbound text message is handed
// to the onMessage callback on the connection's read goroutine.
//
// Thread Safety:
//   - Send, IsAlive and Close are safe for concurrent use. onMessage is
//     never called concurrently with itself.
type PushConn struct {
	onMessage func([]byte)
	dialer    *websocket.Dialer
	logger    bridge.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	conn    *websocket.Conn
	alive   atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

var (
	_ bridge.PushChannel = (*PushConn)(nil)
	_ bridge.Sender      = (*HTTPSender)(nil)
)

// NewPushConn creates an unconnected push channel. A nil logger discards
// output.
func NewPushConn(onMessage func([]byte), logger bridge.Logger) *PushConn {
	if logger == nil {
		logger = discardLogger{}
	}
	return &PushConn{
		onMessage: onMessage,
		dialer:    websocket.DefaultDialer,
		logger:    logger,
	}
}

// NewPushFactory returns a bridge.PushFactory producing PushConns.
func NewPushFactory(logger bridge.Logger) bridge.PushFactory {
	return func(onMessage func([]byte)) bridge.PushChannel {
		return NewPushConn(onMessage, logger)
	}
}

// Connect dials url and starts the read and keepalive goroutines.
func (p *PushConn) Connect(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return errors.New("push channel already connected")
	}

	conn, resp, err := p.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dialing %s: %w", url, err)
	}
	conn.SetReadLimit(pushReadLimit)

	p.conn = conn
	p.done = make(chan struct{})
	p.alive.Store(true)

	p.wg.Add(2)
	go p.readLoop(conn)
	go p.keepalive(conn, p.done)
	return nil
}

// Send writes a text message.
func (p *PushConn) Send(message []byte) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil || !p.alive.Load() {
		return ErrPushClosed
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	//nolint:errcheck // Best-effort deadline; write error caught below
	conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("writing push message: %w", err)
	}
	return nil
}

// IsAlive reports whether the connection is open and reading.
func (p *PushConn) IsAlive() bool {
	return p.alive.Load()
}

// Close sends a close frame, closes the connection and waits for the
// goroutines to exit.
func (p *PushConn) Close() error {
	p.mu.Lock()
	conn, done := p.conn, p.done
	p.conn, p.done = nil, nil
	p.mu.Unlock()

	if conn == nil {
		return nil
	}
	p.alive.Store(false)
	close(done)

	p.writeMu.Lock()
	//nolint:errcheck // Best-effort close frame
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	p.writeMu.Unlock()

	err := conn.Close()
	p.wg.Wait()
	return err
}

func (p *PushConn) readLoop(conn *websocket.Conn) {
	defer p.wg.Done()
	defer p.alive.Store(false)

	for {
		kind, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Warn("push channel read error", "error", err)
			} else {
				p.logger.Debug("push channel closed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		p.deliver(message)
	}
}

func (p *PushConn) deliver(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("panic in push message handler", "panic", r)
		}
	}()
	p.onMessage(message)
}

func (p *PushConn) keepalive(conn *websocket.Conn, done chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(pushPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pushWriteWait))
			p.writeMu.Unlock()
			if err != nil {
				p.logger.Debug("push channel ping failed", "error", err)
				return
			}
		}
	}
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
