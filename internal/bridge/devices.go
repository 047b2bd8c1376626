package bridge

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/wire"
)

// Push events that announce a change in attached displays.
const (
	EventMonitorConnect    = "Monitor Connect"
	EventMonitorDisconnect = "Monitor Disconnect"
)

const (
	endpointOutputDevices     = "available_output_devices"
	endpointHardwareTemplates = "available_hardware_templates"
)

// RefreshDevices asks the daemon for its displays and replaces the
// registry with the result.
//
// A response that cannot be parsed leaves the registry untouched and
// returns ErrProtocol. Individual entries with damaged fields are kept
// with defaults and logged.
func (c *Client) RefreshDevices(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}

	var displays []device.Display
	err = c.do(ctx, endpointOutputDevices, tokenBody{Orchestration: token}, func(resp []byte) error {
		payload, err := wire.Payload(resp)
		if err != nil {
			return err
		}
		displays, err = device.ParseDisplays(payload, c.logger)
		return err
	})
	if err != nil {
		return err
	}

	n := c.registry.Replace(displays)
	c.logger.Debug("display registry refreshed", "displays", n)
	return nil
}

// Displays returns a snapshot of the registry.
func (c *Client) Displays() []device.Display {
	return c.registry.All()
}

// HardwareTemplates lists the hardware definitions the daemon knows about.
func (c *Client) HardwareTemplates(ctx context.Context) ([]device.HardwareInfo, error) {
	token, err := c.token()
	if err != nil {
		return nil, err
	}

	var templates []device.HardwareInfo
	err = c.do(ctx, endpointHardwareTemplates, tokenBody{Orchestration: token}, func(resp []byte) error {
		payload, err := wire.Payload(resp)
		if err != nil {
			return err
		}
		templates, err = device.ParseHardwareTemplates(payload, c.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// onMonitorChange refreshes the registry when a display comes or goes.
// It runs on the push goroutine, so the refresh gets its own deadline.
func (c *Client) onMonitorChange(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), monitorRefreshTimeout)
	defer cancel()

	if err := c.RefreshDevices(ctx); err != nil {
		c.logger.Warn("display refresh after monitor event failed", "event", ev.Name, "error", err)
		return
	}
	c.logger.Info("displays changed", "event", ev.Name, "count", c.registry.Count())
}

// decodeMap unwraps every value of a flat payload object.
func decodeMap(payload json.RawMessage) (map[string]any, error) {
	obj, err := wire.Object(payload)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(obj))
	for key := range obj {
		raw, _ := wire.Field(obj, key)
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
