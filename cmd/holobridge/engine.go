package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/infrastructure/config"
	"github.com/nerrad567/holobridge/internal/infrastructure/logging"
	"github.com/nerrad567/holobridge/internal/transport"
)

// eventSourcePath is the push channel path on the daemon's WebSocket port.
const eventSourcePath = "/event_source"

// bridgeURLs returns the request root and push channel URL for cfg.
func bridgeURLs(cfg config.BridgeConfig) (base, events string) {
	base = "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.HTTPPort))
	events = "ws://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.WSPort)) + eventSourcePath
	return base, events
}

// newEngine builds a bridge client over HTTP and WebSocket transports.
func newEngine(cfg *config.Config, log *logging.Logger, observer bridge.Observer) (*bridge.Client, error) {
	base, events := bridgeURLs(cfg.Bridge)
	client, err := bridge.New(bridge.Options{
		BaseURL:       base,
		EventURL:      events,
		Sender:        transport.NewHTTPSender(cfg.Bridge.RequestTimeout),
		NewPush:       transport.NewPushFactory(log),
		TrackMonitors: cfg.Bridge.TrackMonitors,
		QueueSize:     cfg.Bridge.Queue.Size,
		Logger:        log,
		Observer:      observer,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridge client: %w", err)
	}
	return client, nil
}

// openSession connects the push channel, enters the configured
// orchestration and subscribes to its events.
//
// When requireEvents is false a push channel failure is logged and the
// session is still usable for requests.
func openSession(ctx context.Context, c *bridge.Client, cfg *config.Config, log *logging.Logger, requireEvents bool) error {
	pushErr := c.Connect(ctx)
	if pushErr != nil {
		if requireEvents {
			return fmt.Errorf("connecting to bridge events: %w", pushErr)
		}
		log.Warn("bridge push channel unavailable, continuing without events", "error", pushErr)
	}

	if err := c.EnterOrchestration(ctx, cfg.Bridge.Orchestration); err != nil {
		return fmt.Errorf("entering orchestration %q: %w", cfg.Bridge.Orchestration, err)
	}

	if pushErr == nil {
		if err := c.SubscribeEvents(ctx); err != nil {
			if requireEvents {
				return fmt.Errorf("subscribing to bridge events: %w", err)
			}
			log.Warn("bridge event subscription failed", "error", err)
		}
	}
	return nil
}

// closeEngine closes c, logging rather than returning the error.
func closeEngine(c *bridge.Client, log *logging.Logger) {
	if err := c.Close(); err != nil {
		log.Error("error closing bridge client", "error", err)
	}
}
