// Package config handles loading and validating holobridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading an optional .env file
//   - Overriding with HOLOBRIDGE_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - MQTT passwords and InfluxDB tokens should be set via environment variables
//   - The control API defaults to the loopback interface
//
// Usage:
//
//	cfg, err := config.Load("configs/holobridge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bridge.BaseURL())
package config
