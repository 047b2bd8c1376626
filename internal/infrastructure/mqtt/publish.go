package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// maxPayloadSize keeps display snapshots under common broker limits.
const maxPayloadSize = 1 << 20

// PublishJSON encodes v and publishes it at the configured QoS.
func (c *Client) PublishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrPublishFailed, topic, err)
	}
	return c.publish(topic, payload, retained)
}

// PublishBridgeState publishes the retained Bridge reachability record on
// Topics.Status.
func (c *Client) PublishBridgeState(connected bool) error {
	return c.PublishJSON(c.topics.Status(), BridgeStatus{
		Connected: connected,
		Timestamp: time.Now().UTC(),
	}, true)
}

func (c *Client) publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %s: %d bytes exceeds %d", ErrPublishFailed, topic, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.conn.Publish(topic, c.qos, retained, payload)
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}
