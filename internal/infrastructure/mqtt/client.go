package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
)

// broker is the part of pahomqtt.Client the wrapper drives after connect.
type broker interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Logger is the logging interface used by the client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client is the holobridge broker connection. It owns the topic layout
// under mqtt.topic_prefix: the service liveness record, the retained
// Bridge status, and the command/ack pair.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Command handlers run on paho goroutines.
type Client struct {
	conn     broker
	topics   Topics
	qos      byte
	clientID string

	mu           sync.RWMutex
	connected    bool
	commands     CommandHandler
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Connect dials the broker, announces this process as online and returns
// the client. It returns ErrDisabled when mqtt.enabled is false.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	c := newClient(nil, cfg)
	opts := clientOptions(cfg, c.topics).
		SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleConnectionLost(err) }).
		SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
			c.log().Warn("MQTT reconnecting", "broker", brokerURL(cfg))
		})

	raw := pahomqtt.NewClient(opts)
	c.conn = raw
	token := raw.Connect()
	if !token.WaitTimeout(connectTimeout) {
		raw.Disconnect(0)
		return nil, fmt.Errorf("%w: %s: no answer after %v", ErrConnectionFailed, brokerURL(cfg), connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, brokerURL(cfg), err)
	}

	// The connect handler runs asynchronously; mark the state now so the
	// caller can publish straight away.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return c, nil
}

func newClient(conn broker, cfg config.MQTTConfig) *Client {
	return &Client{
		conn:     conn,
		topics:   Topics{Prefix: cfg.TopicPrefix},
		qos:      byte(cfg.QoS), // #nosec G115 -- validated to 0..2 by config
		clientID: cfg.Broker.ClientID,
		logger:   noopLogger{},
	}
}

// handleConnect runs on the first connect and on every reconnect. The
// session is clean, so the command subscription is re-established here.
func (c *Client) handleConnect() {
	c.mu.Lock()
	c.connected = true
	handler := c.commands
	callback := c.onConnect
	c.mu.Unlock()

	if handler != nil {
		if err := c.subscribeCommands(); err != nil {
			c.log().Error("restoring MQTT command subscription failed", "error", err)
		}
	}
	if err := c.publish(c.topics.Service(), serviceStatus(c.clientID, ServiceOnline, ""), true); err != nil {
		c.log().Warn("publishing MQTT service status failed", "error", err)
	}
	if callback != nil {
		callback()
	}
}

func (c *Client) handleConnectionLost(err error) {
	c.mu.Lock()
	c.connected = false
	callback := c.onDisconnect
	c.mu.Unlock()

	if callback != nil {
		callback(err)
	}
}

// Close stops command handling, publishes a retained offline status and
// disconnects. The status replaces the last will, so subscribers can tell
// a shutdown from a crash.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	c.mu.Lock()
	c.commands = nil
	c.mu.Unlock()

	if c.IsConnected() {
		if err := c.publish(c.topics.Service(), serviceStatus(c.clientID, ServiceOffline, ReasonShutdown), true); err != nil {
			c.log().Warn("publishing MQTT offline status failed", "error", err)
		}
	}
	c.conn.Disconnect(disconnectQuiesce)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// HealthCheck reports ErrNotConnected while the broker connection is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.conn.IsConnected()
}

// Topics returns the topic layout in use.
func (c *Client) Topics() Topics {
	return c.topics
}

// SetOnConnect sets a callback run after every (re)connect, once the
// command subscription and service status are restored.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = callback
}

// SetOnDisconnect sets a callback run when the connection drops.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = callback
}

// SetLogger sets the logger. A nil logger discards output.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
