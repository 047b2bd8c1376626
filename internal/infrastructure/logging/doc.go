// Package logging provides structured logging for holobridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the engine, the CLI and the
// relay service.
//
// # Features
//
//   - JSON output for the long-running service (machine-parsable)
//   - Text output for the CLI (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("bridge reachable", "host", cfg.Bridge.Host)
//
// Never log orchestration tokens in full.
package logging
