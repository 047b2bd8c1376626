package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// errHelp is returned when --help was requested; usage has been printed.
var errHelp = errors.New("help requested")

// Task names.
const (
	taskListen    = "listen"
	taskList      = "list"
	taskTemplates = "templates"
	taskPlay      = "play"
	taskPlaylist  = "playlist"
	taskSync      = "sync"
	taskHide      = "hide"
	taskQuiltify  = "quiltify"
	taskServe     = "serve"
	taskVersion   = "version"
)

// options holds the parsed command line.
type options struct {
	task          string
	configPath    string
	orchestration string
	address       string
	head          int
	input         string
	output        string

	rows        int
	cols        int
	aspect      float64
	viewCount   int
	loop        bool
	loopSet     bool
	rgbd        bool
	depthiness  float64
	depthCutoff float64
	focus       float64
	depthLoc    string
	zoom        float64
	durationMS  int
}

// parseArgs parses args into options. The task is the first positional
// argument, or --task; it defaults to list.
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("holobridge", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: holobridge <task> [flags]\n\nTasks: %s, %s\n\nFlags:\n", taskNames(), taskVersion)
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.task, "task", "t", "", "Task to perform (alternative to the positional task)")
	fs.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file")
	fs.StringVarP(&opts.orchestration, "orchestration", "o", "", "Orchestration to enter (default from config)")
	fs.StringVarP(&opts.address, "address", "a", "", "Bridge host (default from config)")
	fs.IntVar(&opts.head, "head", -1, "Display index; -1 lets Bridge choose")
	fs.StringVarP(&opts.input, "input", "i", "", "Input URI or playlist file")
	fs.StringVar(&opts.output, "out", "", "Output path for quiltify")

	fs.IntVarP(&opts.rows, "rows", "r", playlist.DefaultRows, "Quilt row count")
	fs.IntVarP(&opts.cols, "cols", "c", playlist.DefaultCols, "Quilt column count")
	fs.Float64VarP(&opts.aspect, "aspect", "q", playlist.DefaultAspect, "Quilt aspect ratio")
	fs.IntVarP(&opts.viewCount, "view-count", "v", playlist.DefaultViewCount, "Quilt view count")
	fs.BoolVarP(&opts.loop, "loop", "l", false, "Loop playback")
	fs.BoolVar(&opts.rgbd, "rgbd", false, "Treat the input as RGBD media")
	fs.Float64Var(&opts.depthiness, "depthiness", playlist.DefaultDepthiness, "RGBD depth strength")
	fs.Float64Var(&opts.depthCutoff, "depth-cutoff", playlist.DefaultDepthCutoff, "RGBD depth cutoff")
	fs.Float64Var(&opts.focus, "focus", playlist.DefaultFocus, "RGBD focus plane")
	fs.StringVar(&opts.depthLoc, "depth-loc", playlist.DefaultDepthLoc.String(), "Where the depth map sits: top, bottom, right or left")
	fs.Float64Var(&opts.zoom, "zoom", playlist.DefaultZoom, "RGBD zoom")
	fs.IntVar(&opts.durationMS, "duration", playlist.DefaultDurationMS, "Milliseconds a still item stays on screen")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errHelp
		}
		return nil, err
	}
	opts.loopSet = fs.Changed("loop")

	switch positional := fs.Args(); {
	case len(positional) > 1:
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	case len(positional) == 1 && opts.task != "" && opts.task != positional[0]:
		return nil, fmt.Errorf("task given twice: %q and %q", opts.task, positional[0])
	case len(positional) == 1:
		opts.task = positional[0]
	}
	if opts.task == "" {
		opts.task = taskList
	}
	opts.task = strings.ToLower(opts.task)

	return opts, nil
}

// item builds a playlist item from the quilt and RGBD flags.
func (o *options) item(uri string, rgbd bool) (playlist.Item, error) {
	loc, err := playlist.ParseDepthLocation(o.depthLoc)
	if err != nil {
		return playlist.Item{}, err
	}
	if o.durationMS < 0 {
		return playlist.Item{}, fmt.Errorf("duration must not be negative")
	}

	it := playlist.NewItem(uri)
	if rgbd {
		it = playlist.NewRGBDItem(uri)
	}
	it.Rows = o.rows
	it.Cols = o.cols
	it.Aspect = o.aspect
	it.ViewCount = o.viewCount
	it.Depthiness = o.depthiness
	it.DepthCutoff = o.depthCutoff
	it.Focus = o.focus
	it.DepthLocation = loc
	it.Zoom = o.zoom
	it.DurationMS = o.durationMS
	return it, nil
}

// taskNames lists the tasks that need a configuration, sorted.
func taskNames() string {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
