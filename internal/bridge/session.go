package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/holobridge/internal/wire"
)

// Endpoint names for session and transport control requests.
const (
	endpointEnterOrchestration = "enter_orchestration"
	endpointExitOrchestration  = "exit_orchestration"
	endpointPlay               = "transport_control_play"
	endpointPause              = "transport_control_pause"
	endpointNext               = "transport_control_next"
	endpointPrevious           = "transport_control_previous"
	endpointBridgeVersion      = "bridge_version"
)

// tokenBody is the body shared by every request keyed only by the session.
type tokenBody struct {
	Orchestration string `json:"orchestration"`
}

// EnterOrchestration opens a session named name.
//
// If a session is already active it is replaced: the old session is
// cleared first and a best-effort exit is sent for its token. A failure
// of that exit is logged and does not stop the new enter. On failure no
// session is active afterwards.
//
// Parameters:
//   - ctx: Bounds the round trips
//   - name: Orchestration name, e.g. "default"
//
// Returns:
//   - error: ErrTransport or ErrProtocol wrapped with detail, nil on success
func (c *Client) EnterOrchestration(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: orchestration name is empty", ErrInvalidArgument)
	}

	c.mu.Lock()
	previous := c.session
	c.session = nil
	c.installed = ""
	c.mu.Unlock()

	if previous != nil {
		c.logger.Info("replacing orchestration", "previous", previous.Name, "next", name)
		err := c.do(ctx, endpointExitOrchestration, tokenBody{Orchestration: previous.Token}, nil)
		if err != nil {
			c.logger.Warn("implicit exit of previous orchestration failed", "name", previous.Name, "error", err)
		}
	}

	var session Orchestration
	err := c.do(ctx, endpointEnterOrchestration, map[string]string{"name": name}, func(resp []byte) error {
		var err error
		session, err = parseOrchestration(resp, name)
		return err
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()

	c.logger.Info("entered orchestration", "name", session.Name)
	return nil
}

// parseOrchestration reads the session from an enter response. The token
// is required; the name falls back to the requested one.
func parseOrchestration(resp []byte, requested string) (Orchestration, error) {
	obj, err := wire.Object(resp)
	if err != nil {
		return Orchestration{}, err
	}

	raw, ok := wire.Field(obj, "payload")
	if !ok {
		return Orchestration{}, fmt.Errorf("%w: missing payload", wire.ErrMalformed)
	}
	token, err := wire.String(raw)
	if err != nil {
		return Orchestration{}, err
	}
	if token == "" {
		return Orchestration{}, fmt.Errorf("%w: empty orchestration token", wire.ErrMalformed)
	}

	session := Orchestration{Name: requested, Token: token}
	if raw, ok := wire.Field(obj, "orchestration"); ok {
		if name, err := wire.String(raw); err == nil && name != "" {
			session.Name = name
		}
	}
	return session, nil
}

// ExitOrchestration closes the active session. The session and the
// installed playlist tracker are cleared only when the daemon acknowledges.
func (c *Client) ExitOrchestration(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	if err := c.do(ctx, endpointExitOrchestration, tokenBody{Orchestration: token}, nil); err != nil {
		return err
	}

	c.mu.Lock()
	// A concurrent EnterOrchestration may already have replaced it.
	if c.session != nil && c.session.Token == token {
		c.session = nil
		c.installed = ""
	}
	c.mu.Unlock()

	c.logger.Info("exited orchestration")
	return nil
}

// TransportPlay resumes playback.
func (c *Client) TransportPlay(ctx context.Context) error {
	return c.transportControl(ctx, endpointPlay)
}

// TransportPause pauses playback.
func (c *Client) TransportPause(ctx context.Context) error {
	return c.transportControl(ctx, endpointPause)
}

// TransportNext skips to the next playlist item.
func (c *Client) TransportNext(ctx context.Context) error {
	return c.transportControl(ctx, endpointNext)
}

// TransportPrevious goes back to the previous playlist item.
func (c *Client) TransportPrevious(ctx context.Context) error {
	return c.transportControl(ctx, endpointPrevious)
}

// TransportAction runs a transport control by name: "play", "pause",
// "next" or "previous".
func (c *Client) TransportAction(ctx context.Context, action string) error {
	switch action {
	case "play":
		return c.TransportPlay(ctx)
	case "pause":
		return c.TransportPause(ctx)
	case "next":
		return c.TransportNext(ctx)
	case "previous":
		return c.TransportPrevious(ctx)
	}
	return fmt.Errorf("%w: unknown transport action %q", ErrInvalidArgument, action)
}

func (c *Client) transportControl(ctx context.Context, endpoint string) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	return c.do(ctx, endpoint, tokenBody{Orchestration: token}, nil)
}

// BridgeVersion asks the daemon for its version. It needs no session and
// doubles as a reachability check.
func (c *Client) BridgeVersion(ctx context.Context) (string, error) {
	var version string
	err := c.do(ctx, endpointBridgeVersion, struct{}{}, func(resp []byte) error {
		payload, err := wire.Payload(resp)
		if err != nil {
			return err
		}
		version, err = wire.String(payload)
		return err
	})
	return version, err
}

// Connect opens the push channel. Messages start flowing to the event
// router immediately; call SubscribeEvents once a session exists.
func (c *Client) Connect(ctx context.Context) error {
	if c.newPush == nil || c.eventURL == "" {
		return fmt.Errorf("%w: no push transport configured", ErrNotConnected)
	}

	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	if c.push != nil && c.push.IsAlive() {
		return nil
	}
	if c.push != nil {
		_ = c.push.Close()
	}

	push := c.newPush(c.handlePush)
	if err := push.Connect(ctx, c.eventURL); err != nil {
		c.monitor.UpdateState(false)
		return fmt.Errorf("%w: connecting push channel: %w", ErrTransport, err)
	}
	c.push = push
	c.monitor.UpdateState(true)
	c.logger.Info("push channel connected", "url", c.eventURL)
	return nil
}

// SubscribeEvents asks the daemon to push the active orchestration's
// events over the connected push channel.
func (c *Client) SubscribeEvents(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message, err := json.Marshal(map[string]string{"subscribe_orchestration_events": token})
	if err != nil {
		return fmt.Errorf("encoding subscribe message: %w", err)
	}

	c.pushMu.Lock()
	defer c.pushMu.Unlock()
	if c.push == nil || !c.push.IsAlive() {
		return ErrNotConnected
	}
	if err := c.push.Send(message); err != nil {
		return fmt.Errorf("%w: subscribing to events: %w", ErrTransport, err)
	}
	return nil
}

// PushAlive reports whether the push channel is connected.
func (c *Client) PushAlive() bool {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()
	return c.push != nil && c.push.IsAlive()
}

// handlePush runs on the push channel's goroutine for every message.
func (c *Client) handlePush(message []byte) {
	if name, ok := c.router.Dispatch(message); ok {
		c.observer.EventDispatched(name)
	}
}
