package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// CommandHandler runs one inbound command. action is the last level of
// the command topic. The returned error is reported on the ack topic.
type CommandHandler func(action string, payload []byte) error

// HandleCommands subscribes to {prefix}/command/+ and routes every message
// to handler. Each command is answered on {prefix}/ack/{action}. The
// subscription survives reconnects until StopCommands or Close.
func (c *Client) HandleCommands(handler CommandHandler) error {
	if handler == nil {
		return fmt.Errorf("%w: nil command handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.commands = handler
	c.mu.Unlock()

	if err := c.subscribeCommands(); err != nil {
		c.mu.Lock()
		c.commands = nil
		c.mu.Unlock()
		return err
	}
	return nil
}

// StopCommands drops the command subscription. Messages already in
// flight are ignored.
func (c *Client) StopCommands() error {
	c.mu.Lock()
	had := c.commands != nil
	c.commands = nil
	c.mu.Unlock()

	if !had || !c.IsConnected() {
		return nil
	}
	token := c.conn.Unsubscribe(c.topics.AllCommands())
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}
	return nil
}

func (c *Client) subscribeCommands() error {
	token := c.conn.Subscribe(c.topics.AllCommands(), c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.dispatchCommand(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, c.topics.AllCommands(), ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, c.topics.AllCommands(), err)
	}
	return nil
}

// dispatchCommand runs the handler for one message and publishes its ack.
func (c *Client) dispatchCommand(topic string, payload []byte) {
	action, ok := c.topics.CommandAction(topic)
	if !ok {
		c.log().Warn("ignoring message on unexpected command topic", "topic", topic)
		return
	}

	c.mu.RLock()
	handler := c.commands
	c.mu.RUnlock()
	if handler == nil {
		return
	}

	err := runCommand(handler, action, payload)
	if err != nil {
		c.log().Warn("MQTT command failed", "action", action, "error", err)
	}
	if perr := c.PublishJSON(c.topics.Ack(action), newAck(action, err), false); perr != nil {
		c.log().Debug("MQTT ack not published", "action", action, "error", perr)
	}
}

// runCommand calls handler, turning a panic into an error so the command
// still gets an ack.
func runCommand(handler CommandHandler, action string, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", action, r)
		}
	}()
	return handler(action, payload)
}
