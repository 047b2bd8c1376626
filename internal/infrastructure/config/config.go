package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix shared by every environment override.
const envPrefix = "HOLOBRIDGE_"

// Config is the root configuration structure for holobridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Bridge    BridgeConfig    `yaml:"bridge"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BridgeConfig describes how to reach the Bridge daemon and how the
// engine paces its traffic.
type BridgeConfig struct {
	Host           string        `yaml:"host"`
	HTTPPort       int           `yaml:"http_port"`
	WSPort         int           `yaml:"ws_port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Orchestration  string        `yaml:"orchestration"`
	Debounce       time.Duration `yaml:"debounce"`
	TrackMonitors  bool          `yaml:"track_monitors"`
	Poll           PollConfig    `yaml:"poll"`
	Queue          QueueConfig   `yaml:"queue"`
}

// PollConfig controls the optional liveness poller.
type PollConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// QueueConfig controls the asynchronous FIFO send queue.
type QueueConfig struct {
	Size int `yaml:"size"`
}

// DatabaseConfig contains SQLite settings for the request journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains the local control API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains settings for the event fan-out WebSocket.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load builds the configuration.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, when path is not empty
//  3. A .env file next to the working directory, when present
//  4. Environment variables (override everything above)
//
// Environment variables follow the pattern: HOLOBRIDGE_SECTION_KEY
// For example: HOLOBRIDGE_BRIDGE_HOST, HOLOBRIDGE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Missing .env is normal; variables already set in the process win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the default configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Host:           "localhost",
			HTTPPort:       33334,
			WSPort:         9724,
			RequestTimeout: 5 * time.Second,
			Orchestration:  "default",
			Debounce:       250 * time.Millisecond,
			TrackMonitors:  true,
			Poll: PollConfig{
				Interval: 2 * time.Second,
			},
			Queue: QueueConfig{
				Size: 64,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/holobridge.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "holobridge",
			},
			QoS:         1,
			TopicPrefix: "holobridge",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8088,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HOLOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	setString := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %q is not an integer", envPrefix, key, v))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %q is not a boolean", envPrefix, key, v))
			return
		}
		*dst = b
	}
	setDuration := func(key string, dst *time.Duration) {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %q is not a duration", envPrefix, key, v))
			return
		}
		*dst = d
	}

	// Bridge
	setString("BRIDGE_HOST", &cfg.Bridge.Host)
	setInt("BRIDGE_HTTP_PORT", &cfg.Bridge.HTTPPort)
	setInt("BRIDGE_WS_PORT", &cfg.Bridge.WSPort)
	setString("BRIDGE_ORCHESTRATION", &cfg.Bridge.Orchestration)
	setDuration("BRIDGE_REQUEST_TIMEOUT", &cfg.Bridge.RequestTimeout)
	setDuration("BRIDGE_DEBOUNCE", &cfg.Bridge.Debounce)
	setBool("BRIDGE_POLL_ENABLED", &cfg.Bridge.Poll.Enabled)
	setDuration("BRIDGE_POLL_INTERVAL", &cfg.Bridge.Poll.Interval)

	// Database
	setBool("DATABASE_ENABLED", &cfg.Database.Enabled)
	setString("DATABASE_PATH", &cfg.Database.Path)

	// MQTT
	setBool("MQTT_ENABLED", &cfg.MQTT.Enabled)
	setString("MQTT_HOST", &cfg.MQTT.Broker.Host)
	setInt("MQTT_PORT", &cfg.MQTT.Broker.Port)
	setString("MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	// API
	setBool("API_ENABLED", &cfg.API.Enabled)
	setString("API_HOST", &cfg.API.Host)
	setInt("API_PORT", &cfg.API.Port)

	// InfluxDB
	setBool("INFLUXDB_ENABLED", &cfg.InfluxDB.Enabled)
	setString("INFLUXDB_URL", &cfg.InfluxDB.URL)
	setString("INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	// Logging
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("LOG_FORMAT", &cfg.Logging.Format)

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Bridge.Host == "" {
		errs = append(errs, "bridge.host is required")
	}
	if !validPort(c.Bridge.HTTPPort) {
		errs = append(errs, "bridge.http_port must be between 1 and 65535")
	}
	if !validPort(c.Bridge.WSPort) {
		errs = append(errs, "bridge.ws_port must be between 1 and 65535")
	}
	if c.Bridge.Orchestration == "" {
		errs = append(errs, "bridge.orchestration is required")
	}
	if c.Bridge.RequestTimeout <= 0 {
		errs = append(errs, "bridge.request_timeout must be positive")
	}
	if c.Bridge.Debounce <= 0 {
		errs = append(errs, "bridge.debounce must be positive")
	}
	if c.Bridge.Poll.Enabled && c.Bridge.Poll.Interval <= 0 {
		errs = append(errs, "bridge.poll.interval must be positive when polling is enabled")
	}
	if c.Bridge.Queue.Size < 1 {
		errs = append(errs, "bridge.queue.size must be at least 1")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
	}

	if c.API.Enabled && !validPort(c.API.Port) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not recognised", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// BaseURL returns the root URL for Bridge request endpoints.
func (b BridgeConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", b.Host, b.HTTPPort)
}

// EventURL returns the push channel URL.
func (b BridgeConfig) EventURL() string {
	return fmt.Sprintf("ws://%s:%d/event_source", b.Host, b.WSPort)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
