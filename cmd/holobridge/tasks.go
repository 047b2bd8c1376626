package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/holobridge/internal/bridge"
	"github.com/nerrad567/holobridge/internal/infrastructure/config"
	"github.com/nerrad567/holobridge/internal/infrastructure/logging"
	"github.com/nerrad567/holobridge/internal/playlist"
)

// quiltifyDelay gives the daemon time to render an RGBD item before the
// quilt is read back.
const quiltifyDelay = 2500 * time.Millisecond

// taskEnv is what every task receives.
type taskEnv struct {
	cfg  *config.Config
	opts *options
	log  *logging.Logger
	out  io.Writer
}

type taskFunc func(ctx context.Context, env *taskEnv) error

// tasks maps task names to their implementation. version is handled
// before configuration is loaded.
var tasks = map[string]taskFunc{
	taskListen:    runListen,
	taskList:      withSession(false, runList),
	taskTemplates: withSession(false, runTemplates),
	taskPlay:      withSession(false, runPlay),
	taskPlaylist:  withSession(false, runPlaylist),
	taskSync:      withSession(false, runSync),
	taskHide:      withSession(false, runHide),
	taskQuiltify:  withSession(false, runQuiltify),
	taskServe:     runServe,
}

// withSession wraps fn with an engine that has entered the configured
// orchestration. The orchestration is exited when fn returns.
func withSession(requireEvents bool, fn func(ctx context.Context, env *taskEnv, c *bridge.Client) error) taskFunc {
	return func(ctx context.Context, env *taskEnv) error {
		c, err := newEngine(env.cfg, env.log, nil)
		if err != nil {
			return err
		}
		defer closeEngine(c, env.log)

		if err := openSession(ctx, c, env.cfg, env.log, requireEvents); err != nil {
			return err
		}
		return fn(ctx, env, c)
	}
}

// runListen prints every pushed event until interrupted.
func runListen(ctx context.Context, env *taskEnv) error {
	return withSession(true, func(ctx context.Context, env *taskEnv, c *bridge.Client) error {
		events := make(chan bridge.Event, 64)
		c.Events().AddListener(bridge.AllEvents, func(ev bridge.Event) {
			select {
			case events <- ev:
			default:
				env.log.Warn("listener falling behind, dropping event", "event", ev.Name)
			}
		})

		fmt.Fprintf(env.out, "listening for events on orchestration %q, press Ctrl+C to stop\n", env.cfg.Bridge.Orchestration)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				fmt.Fprintf(env.out, "%s %s: %s\n", time.Now().Format(time.TimeOnly), ev.Name, ev.Payload)
			}
		}
	})(ctx, env)
}

// runList refreshes and prints the attached displays.
func runList(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	if err := c.RefreshDevices(ctx); err != nil {
		return fmt.Errorf("listing displays: %w", err)
	}

	displays := c.Displays()
	if len(displays) == 0 {
		fmt.Fprintln(env.out, "no displays found")
		return nil
	}

	tw := tabwriter.NewWriter(env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tHWID\tHARDWARE\tSTATE\tRESOLUTION\tHOLOGRAPHIC")
	for _, d := range displays {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%dx%d\t%v\n",
			d.Index, d.HardwareID, d.HardwareVersion, d.State,
			d.Calibration.ScreenW, d.Calibration.ScreenH, d.IsHolographic())
	}
	return tw.Flush()
}

// runTemplates prints the hardware templates the daemon knows about.
func runTemplates(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	templates, err := c.HardwareTemplates(ctx)
	if err != nil {
		return fmt.Errorf("listing hardware templates: %w", err)
	}

	tw := tabwriter.NewWriter(env.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tTYPE\tVERSION\tRESOLUTION\tVIEW CONE\tDEFAULT QUILT")
	for _, h := range templates {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dx%d\t%g\t%dx%d\n",
			h.Index, h.DeviceType(), h.HardwareVersionLong,
			h.ResolutionWidth, h.ResolutionHeight, h.ViewCone,
			h.DefaultQuilt.Columns, h.DefaultQuilt.Rows)
	}
	return tw.Flush()
}

// singleItemPlaylist wraps one item from the flags in a fresh playlist.
func singleItemPlaylist(opts *options, rgbd bool) (*playlist.Playlist, error) {
	if opts.input == "" {
		return nil, fmt.Errorf("--input is required")
	}
	it, err := opts.item(opts.input, rgbd)
	if err != nil {
		return nil, err
	}
	p, err := playlist.New("default_"+uuid.NewString()[:8], opts.loop)
	if err != nil {
		return nil, err
	}
	p.Add(it)
	return p, nil
}

// runPlay plays a single quilt or RGBD item.
func runPlay(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	p, err := singleItemPlaylist(env.opts, env.opts.rgbd)
	if err != nil {
		return err
	}
	if err := c.Play(ctx, p, env.opts.head); err != nil {
		return fmt.Errorf("playing %s: %w", env.opts.input, err)
	}
	fmt.Fprintf(env.out, "playing %s as %s\n", env.opts.input, p.Name)
	return nil
}

// loadPlaylist reads --input as a playlist file. --loop overrides the file.
func loadPlaylist(opts *options) (*playlist.Playlist, error) {
	if opts.input == "" {
		return nil, fmt.Errorf("--input is required")
	}
	p, err := playlist.LoadFile(opts.input)
	if err != nil {
		return nil, err
	}
	if opts.loopSet {
		p.Loop = opts.loop
	}
	if p.Len() == 0 {
		return nil, fmt.Errorf("%s: playlist has no items", opts.input)
	}
	return p, nil
}

// runPlaylist plays a playlist file.
func runPlaylist(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	p, err := loadPlaylist(env.opts)
	if err != nil {
		return err
	}
	if err := c.Play(ctx, p, env.opts.head); err != nil {
		return fmt.Errorf("playing playlist %s: %w", p.Name, err)
	}
	fmt.Fprintf(env.out, "playing playlist %s (%d items)\n", p.Name, p.Len())
	return nil
}

// runSync plays a playlist file and then re-plays it with sync-overwrite.
func runSync(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	p, err := loadPlaylist(env.opts)
	if err != nil {
		return err
	}
	if err := c.Play(ctx, p, env.opts.head); err != nil {
		return fmt.Errorf("playing playlist %s: %w", p.Name, err)
	}
	if err := c.SyncOverwrite(ctx, env.opts.head); err != nil {
		return fmt.Errorf("syncing playlist %s: %w", p.Name, err)
	}
	fmt.Fprintf(env.out, "synced playlist %s\n", p.Name)
	return nil
}

// runHide closes the output window on --head.
func runHide(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	if err := c.HideWindow(ctx, env.opts.head); err != nil {
		return fmt.Errorf("hiding window: %w", err)
	}
	fmt.Fprintf(env.out, "window hidden on head %d\n", env.opts.head)
	return nil
}

// runQuiltify plays an RGBD item and saves the rendered quilt.
func runQuiltify(ctx context.Context, env *taskEnv, c *bridge.Client) error {
	p, err := singleItemPlaylist(env.opts, true)
	if err != nil {
		return err
	}
	out, err := quiltOutputPath(env.opts)
	if err != nil {
		return err
	}

	if err := c.Play(ctx, p, env.opts.head); err != nil {
		return fmt.Errorf("playing %s: %w", env.opts.input, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(quiltifyDelay):
	}

	if err := c.SaveOut(ctx, bridge.SourceQuiltView, out); err != nil {
		return fmt.Errorf("saving quilt: %w", err)
	}
	fmt.Fprintf(env.out, "quilt saved to %s\n", out)
	return nil
}

// quiltOutputPath returns --out, or a name describing the quilt layout in
// the working directory.
func quiltOutputPath(opts *options) (string, error) {
	if opts.output != "" {
		return opts.output, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	name := fmt.Sprintf("output_qs%dx%da%s.png", opts.cols, opts.rows, strconv.FormatFloat(opts.aspect, 'g', -1, 64))
	return filepath.Join(wd, name), nil
}
