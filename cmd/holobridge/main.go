// holobridge drives the Looking Glass Bridge daemon.
//
// One-shot tasks (list, play, quiltify, ...) enter an orchestration, do
// their work and exit. The serve task runs until interrupted and exposes
// the engine over MQTT, a local HTTP API and Prometheus.
//
//	holobridge list
//	holobridge play -i https://example.com/quilt.png -r 6 -c 8 -q 0.75 -v 48
//	holobridge serve --config configs/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/holobridge/internal/infrastructure/config"
	"github.com/nerrad567/holobridge/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path, used only when it exists.
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//   - stdout: Destination for task output
//   - stderr: Destination for usage text
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	if opts.task == taskVersion {
		fmt.Fprintf(stdout, "holobridge %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	t, ok := tasks[opts.task]
	if !ok {
		return fmt.Errorf("unknown task %q (want one of %s)", opts.task, taskNames())
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging, version)
	log.Debug("configuration loaded", "task", opts.task, "bridge", cfg.Bridge.Host, "orchestration", cfg.Bridge.Orchestration)

	return t(ctx, &taskEnv{cfg: cfg, opts: opts, log: log, out: stdout})
}

// loadConfig resolves the configuration file and applies flag overrides.
//
// The file is taken from --config, then HOLOBRIDGE_CONFIG, then
// defaultConfigPath when it exists. Without any file the defaults and
// environment overrides apply.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("HOLOBRIDGE_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking %s: %w", defaultConfigPath, err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.address != "" {
		cfg.Bridge.Host = opts.address
	}
	if opts.orchestration != "" {
		cfg.Bridge.Orchestration = opts.orchestration
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
