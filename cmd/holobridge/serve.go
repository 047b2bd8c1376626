package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/holobridge/internal/api"
	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/device"
	"github.com/nerrad567/holobridge/internal/infrastructure/config"
	"github.com/nerrad567/holobridge/internal/infrastructure/database"
	"github.com/nerrad567/holobridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/holobridge/internal/infrastructure/logging"
	"github.com/nerrad567/holobridge/internal/infrastructure/metrics"
	"github.com/nerrad567/holobridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/holobridge/internal/journal"
	"github.com/nerrad567/holobridge/internal/relay"
	"github.com/nerrad567/holobridge/migrations"
)

const (
	// journalRetention is how long journal rows are kept.
	journalRetention = 30 * 24 * time.Hour

	// journalPruneInterval is how often old journal rows are removed.
	journalPruneInterval = 24 * time.Hour

	// journalBuffer bounds the recorder's write queue.
	journalBuffer = 256

	// defaultSessionRetry is used when polling is not configured.
	defaultSessionRetry = 5 * time.Second
)

// runServe keeps a session open on the configured orchestration and
// exposes it over the enabled surfaces until ctx is cancelled.
//
// Startup order:
//  1. Metrics, journal and InfluxDB observers
//  2. Bridge engine and session keeper
//  3. Debouncer and liveness poller
//  4. MQTT relay
//  5. HTTP API
//
// Deferred cleanup runs in reverse, so the session is exited before the
// journal and database close.
func runServe(ctx context.Context, env *taskEnv) error {
	cfg, log := env.cfg, env.log
	log.Info("starting holobridge", "version", version, "commit", commit, "build_date", date)

	var observers bridge.MultiObserver

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observers = append(observers, m)
	}

	recorder, closeJournal, err := openJournal(ctx, cfg, log)
	if err != nil {
		return err
	}
	if recorder != nil {
		defer closeJournal()
		observers = append(observers, recorder)
	}

	influxClient, err := influxdb.Connect(cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		observers = append(observers, influxClient)
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "org", cfg.InfluxDB.Org, "bucket", cfg.InfluxDB.Bucket)
	}

	var observer bridge.Observer
	if len(observers) > 0 {
		observer = observers
	}
	client, err := newEngine(cfg, log, observer)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("leaving orchestration")
		closeEngine(client, log)
	}()

	if err := openSession(ctx, client, cfg, log, false); err != nil {
		// The keeper retries; the daemon may simply not be running yet.
		log.Warn("bridge session not established, retrying in background", "error", err)
	} else if s, ok := client.Session(); ok {
		log.Info("orchestration entered", "name", s.Name)
	}
	go keepSession(ctx, client, cfg, log)

	debouncer := bridge.NewDebouncer(client, cfg.Bridge.Debounce, cfg.Bridge.RequestTimeout)
	debouncer.SetLogger(log)
	defer func() {
		if closeErr := debouncer.Close(); closeErr != nil {
			log.Warn("flushing pending parameter update failed", "error", closeErr)
		}
	}()

	var listeners []bridge.SnapshotListener
	if m != nil {
		listeners = append(listeners, func(displays []device.Display) {
			total, holo := countDisplays(displays)
			m.SetDisplays(total, holo)
		})
	}
	if influxClient != nil {
		listeners = append(listeners, func(displays []device.Display) {
			influxClient.WriteDisplays(countDisplays(displays))
		})
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	switch {
	case errors.Is(err, mqtt.ErrDisabled):
		log.Info("MQTT disabled")
	case err != nil:
		return fmt.Errorf("connecting to MQTT: %w", err)
	default:
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		r, relayErr := relay.New(relay.Options{
			Publisher:      mqttClient,
			Engine:         client,
			Topics:         mqttClient.Topics(),
			CommandTimeout: cfg.Bridge.RequestTimeout,
			Logger:         log,
		})
		if relayErr != nil {
			return fmt.Errorf("creating MQTT relay: %w", relayErr)
		}
		if startErr := r.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT relay: %w", startErr)
		}
		defer r.Stop()
		listeners = append(listeners, r.PublishDisplays)
	}

	if cfg.Bridge.Poll.Enabled {
		poller := bridge.NewPoller(client, cfg.Bridge.Poll.Interval)
		poller.SetLogger(log)
		for _, l := range listeners {
			poller.AddListener(l)
		}
		if startErr := poller.Start(ctx); startErr != nil {
			return fmt.Errorf("starting poller: %w", startErr)
		}
		defer poller.Stop()
		log.Info("liveness poller started", "interval", cfg.Bridge.Poll.Interval)
	}

	var server *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			MetricsCfg: cfg.Metrics,
			Logger:     log,
			Engine:     client,
			Params:     debouncer,
			Metrics:    m,
			Version:    version,
		}
		if recorder != nil {
			deps.Journal = recorder
		}
		server, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
		log.Info("API server listening", "addr", server.Addr())
	} else {
		log.Info("API server disabled")
	}

	if err := healthCheck(ctx, mqttClient, influxClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// openJournal opens the database, applies migrations and starts a
// recorder with a background prune loop. It returns a nil recorder when
// the database is disabled.
//
// The returned close function drains the recorder before closing the
// database.
func openJournal(ctx context.Context, cfg *config.Config, log *logging.Logger) (*journal.Recorder, func(), error) {
	if !cfg.Database.Enabled {
		log.Info("journal disabled")
		return nil, func() {}, nil
	}

	db, err := database.Open(database.FromConfig(cfg.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.Source()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database connected", "path", db.Path())

	repo := journal.NewSQLiteRepository(db.DB)
	rec := journal.NewRecorder(repo, journalBuffer, log)

	pruneCtx, stopPrune := context.WithCancel(ctx)
	pruneDone := make(chan struct{})
	go func() {
		defer close(pruneDone)
		pruneJournal(pruneCtx, repo, log)
		ticker := time.NewTicker(journalPruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				pruneJournal(pruneCtx, repo, log)
			}
		}
	}()

	closeFn := func() {
		stopPrune()
		<-pruneDone
		rec.Close()
		if dropped, failed := rec.Dropped(), rec.Failed(); dropped > 0 || failed > 0 {
			log.Warn("journal entries lost", "dropped", dropped, "failed", failed)
		}
		log.Info("closing database")
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}
	return rec, closeFn, nil
}

func pruneJournal(ctx context.Context, repo *journal.SQLiteRepository, log *logging.Logger) {
	n, err := repo.Prune(ctx, time.Now().Add(-journalRetention))
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("journal prune failed", "error", err)
		}
		return
	}
	if n > 0 {
		log.Info("journal pruned", "removed", n)
	}
}

// keepSession re-establishes the orchestration or the push channel
// whenever either is lost.
func keepSession(ctx context.Context, c *bridge.Client, cfg *config.Config, log *logging.Logger) {
	interval := cfg.Bridge.Poll.Interval
	if interval <= 0 {
		interval = defaultSessionRetry
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, ok := c.Session(); !ok {
			if err := openSession(ctx, c, cfg, log, false); err != nil {
				log.Debug("bridge session retry failed", "error", err)
				continue
			}
			log.Info("orchestration re-entered", "name", cfg.Bridge.Orchestration)
			continue
		}

		if !c.PushAlive() {
			if err := c.Connect(ctx); err != nil {
				log.Debug("bridge push channel retry failed", "error", err)
				continue
			}
			if err := c.SubscribeEvents(ctx); err != nil {
				log.Warn("bridge event subscription failed", "error", err)
				continue
			}
			log.Info("bridge push channel restored")
		}
	}
}

// countDisplays returns the number of displays and how many are holographic.
func countDisplays(displays []device.Display) (total, holographic int) {
	for _, d := range displays {
		if d.IsHolographic() {
			holographic++
		}
	}
	return len(displays), holographic
}

// healthCheck verifies the enabled surfaces are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - server: API server to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, server *api.Server) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	if server != nil {
		if err := server.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	// Bridge itself is not checked: the session keeper tolerates a daemon
	// that starts after holobridge.
	return nil
}
