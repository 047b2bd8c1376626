package influxdb

import (
	"time"

	"github.com/nerrad567/holobridge/internal/bridge"
)

// Measurement names written by the client.
const (
	MeasurementRequest    = "bridge_request"
	MeasurementConnection = "bridge_connection"
	MeasurementEvent      = "bridge_event"
	MeasurementDisplays   = "bridge_displays"
)

var _ bridge.Observer = (*Client)(nil)

// RequestCompleted writes a bridge_request point tagged with the endpoint
// and outcome.
func (c *Client) RequestCompleted(endpoint string, outcome bridge.Outcome, elapsed time.Duration) {
	c.write(MeasurementRequest,
		map[string]string{
			"endpoint": endpoint,
			"outcome":  string(outcome),
		},
		map[string]interface{}{
			"duration_ms": float64(elapsed) / float64(time.Millisecond),
			"ok":          outcome == bridge.OutcomeOK,
		},
	)
}

// ConnectionChanged writes a bridge_connection point.
func (c *Client) ConnectionChanged(connected bool) {
	c.write(MeasurementConnection, nil, map[string]interface{}{
		"connected": connected,
	})
}

// EventDispatched writes a bridge_event point tagged with the event name.
func (c *Client) EventDispatched(event string) {
	c.write(MeasurementEvent,
		map[string]string{"event": event},
		map[string]interface{}{"count": 1},
	)
}

// WriteDisplays records the registry size after a refresh.
func (c *Client) WriteDisplays(total, holographic int) {
	c.write(MeasurementDisplays, nil, map[string]interface{}{
		"total":       total,
		"holographic": holographic,
	})
}
