package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
)

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 5 * time.Second
	keepAlive        = 60 * time.Second

	// disconnectQuiesce is how long Disconnect waits for in-flight work, in ms.
	disconnectQuiesce = 500
)

// brokerURL returns the paho broker address for cfg.
func brokerURL(cfg config.MQTTConfig) string {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)
}

// clientOptions builds paho options for cfg. The last will marks this
// process offline on {prefix}/service if the connection drops without a
// clean Close.
//
// The first connection attempt is not retried so a wrong broker address
// fails startup. Later drops reconnect with paho's doubling backoff,
// capped at reconnect.max_delay.
func clientOptions(cfg config.MQTTConfig, topics Topics) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetWill(topics.Service(), string(serviceStatus(cfg.Broker.ClientID, ServiceOffline, ReasonUnexpectedDisconnect)), 1, true)

	if cfg.Reconnect.MaxDelay > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	}
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}
