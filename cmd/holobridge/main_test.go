package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// fakeBridge answers Bridge requests with canned responses keyed by
// endpoint. The push channel path is refused so tasks run without events.
type fakeBridge struct {
	mu        sync.Mutex
	endpoints []string
	bodies    map[string]map[string]any
	responses map[string]string
	srv       *httptest.Server
}

func newFakeBridge(t *testing.T) *fakeBridge {
	t.Helper()
	fb := &fakeBridge{bodies: make(map[string]map[string]any), responses: make(map[string]string)}
	fb.responses["enter_orchestration"] = `{"orchestration":{"value":"default"},"payload":{"value":"tok-1"}}`
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBridge) serve(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/")
	if endpoint == strings.TrimPrefix(eventSourcePath, "/") {
		http.NotFound(w, r)
		return
	}

	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	fb.mu.Lock()
	fb.endpoints = append(fb.endpoints, endpoint)
	fb.bodies[endpoint] = body
	resp, ok := fb.responses[endpoint]
	fb.mu.Unlock()

	if !ok {
		resp = `{"name":{"value":"` + endpoint + `"},"payload":{"value":"ok"}}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, resp)
}

func (fb *fakeBridge) respond(endpoint, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[endpoint] = body
}

func (fb *fakeBridge) calls() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.endpoints...)
}

func (fb *fakeBridge) body(endpoint string) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[endpoint]
}

// configFile writes a config pointing both Bridge ports at the fake.
func (fb *fakeBridge) configFile(t *testing.T) string {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(fb.srv.URL, "http://"))
	if err != nil {
		t.Fatalf("parsing fake bridge URL: %v", err)
	}
	content := fmt.Sprintf(`
bridge:
  host: %q
  http_port: %s
  ws_port: %s
  request_timeout: 2s
  orchestration: default

logging:
  level: error
  format: text
`, host, port, port)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// deviceEntry is one device-list entry with calibration embedded as a
// JSON string, the way the daemon sends it.
func deviceEntry(index int, hwid string) string {
	cal, _ := json.Marshal(`{"configVersion":"3.0","serial":"P-1","pitch":{"value":52.0},` +
		`"slope":{"value":-7.1},"center":{"value":0.5},"viewCone":{"value":40.0},` +
		`"invView":{"value":1.0},"verticalAngle":{"value":0.0},"DPI":{"value":324.0},` +
		`"screenW":{"value":1536},"screenH":{"value":2048},"flipImageX":{"value":0.0},` +
		`"flipImageY":{"value":0.0},"flipSubp":{"value":0.0}}`)
	return fmt.Sprintf(`{"value":{"calibration":{"value":%s},"hardwareVersion":{"value":"portrait"},`+
		`"hwid":{"value":%q},"index":{"value":%d},"state":{"value":"ok"},`+
		`"windowCoords":{"value":{"x":0,"y":0}}}}`, cal, hwid, index)
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(o *options) bool
		wantErr bool
	}{
		{
			name: "defaults to list",
			args: nil,
			want: func(o *options) bool { return o.task == taskList && o.head == -1 },
		},
		{
			name: "positional task",
			args: []string{"play", "-i", "q.png"},
			want: func(o *options) bool { return o.task == taskPlay && o.input == "q.png" },
		},
		{
			name: "task flag",
			args: []string{"--task", "HIDE", "--head", "2"},
			want: func(o *options) bool { return o.task == taskHide && o.head == 2 },
		},
		{
			name: "same task twice is fine",
			args: []string{"sync", "-t", "sync"},
			want: func(o *options) bool { return o.task == taskSync },
		},
		{
			name:    "conflicting tasks",
			args:    []string{"play", "-t", "list"},
			wantErr: true,
		},
		{
			name:    "extra positional",
			args:    []string{"play", "extra"},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: true,
		},
		{
			name: "quilt flags",
			args: []string{"-r", "6", "-c", "8", "-q", "0.75", "-v", "48"},
			want: func(o *options) bool {
				return o.rows == 6 && o.cols == 8 && o.aspect == 0.75 && o.viewCount == 48
			},
		},
		{
			name: "loop tracked only when given",
			args: []string{"playlist", "-l=false"},
			want: func(o *options) bool { return o.loopSet && !o.loop },
		},
		{
			name: "loop unset",
			args: []string{"playlist"},
			want: func(o *options) bool { return !o.loopSet },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseArgs() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs() error = %v", err)
			}
			if !tt.want(opts) {
				t.Errorf("parseArgs() = %+v", opts)
			}
		})
	}
}

func TestParseArgs_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"--help"}, &stderr)
	if err != errHelp {
		t.Fatalf("parseArgs(--help) error = %v, want errHelp", err)
	}
	if !strings.Contains(stderr.String(), "quiltify") {
		t.Errorf("usage should list tasks, got %q", stderr.String())
	}
}

func TestOptionsItem(t *testing.T) {
	opts, err := parseArgs([]string{"--depth-loc", "right", "--focus", "0.1", "--duration", "5000"}, io.Discard)
	if err != nil {
		t.Fatalf("parseArgs() error = %v", err)
	}

	it, err := opts.item("rgbd.png", true)
	if err != nil {
		t.Fatalf("item() error = %v", err)
	}
	if !it.IsRGBD || it.DepthLocation != playlist.DepthRight || it.Focus != 0.1 || it.DurationMS != 5000 {
		t.Errorf("item() = %+v", it)
	}

	opts.depthLoc = "diagonal"
	if _, err := opts.item("x.png", false); err == nil {
		t.Error("item() with an invalid depth location should fail")
	}

	opts.depthLoc = "top"
	opts.durationMS = -1
	if _, err := opts.item("x.png", false); err == nil {
		t.Error("item() with a negative duration should fail")
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"version"}, &out, io.Discard); err != nil {
		t.Fatalf("run(version) error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "holobridge "+version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_UnknownTask(t *testing.T) {
	err := run(context.Background(), []string{"teleport"}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown task") {
		t.Fatalf("run(teleport) error = %v, want unknown task", err)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("HOLOBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	err := run(testContext(t), []string{"list"}, io.Discard, io.Discard)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_EmptyOverrideKeepsConfig(t *testing.T) {
	fb := newFakeBridge(t)
	fb.respond("available_output_devices", `{"name":{"value":"available_output_devices"},"payload":{"value":{}}}`)

	err := run(testContext(t), []string{"list", "--config", fb.configFile(t), "-o", ""}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if got := fb.body("enter_orchestration")["name"]; got != "default" {
		t.Errorf("entered orchestration %v, want default", got)
	}
}

func TestRun_List(t *testing.T) {
	fb := newFakeBridge(t)
	fb.respond("available_output_devices", `{"name":{"value":"available_output_devices"},"payload":{"value":{`+
		`"0":`+deviceEntry(0, "LKG-P1234")+`,"1":`+deviceEntry(1, "DELL-U2719")+`}}}`)

	var out bytes.Buffer
	if err := run(testContext(t), []string{"list", "--config", fb.configFile(t)}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}

	text := out.String()
	for _, want := range []string{"LKG-P1234", "DELL-U2719", "1536x2048", "true", "false"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	got := fb.calls()
	want := []string{"enter_orchestration", "available_output_devices", "exit_orchestration"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestRun_ListEmpty(t *testing.T) {
	fb := newFakeBridge(t)
	fb.respond("available_output_devices", `{"name":{"value":"available_output_devices"},"payload":{"value":{}}}`)

	var out bytes.Buffer
	if err := run(testContext(t), []string{"list", "--config", fb.configFile(t)}, &out, io.Discard); err != nil {
		t.Fatalf("run(list) error = %v", err)
	}
	if !strings.Contains(out.String(), "no displays found") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_OrchestrationOverride(t *testing.T) {
	fb := newFakeBridge(t)
	if err := run(testContext(t), []string{"hide", "--config", fb.configFile(t), "-o", "studio"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run(hide) error = %v", err)
	}
	if got := fb.body("enter_orchestration")["name"]; got != "studio" {
		t.Errorf("entered orchestration %v, want studio", got)
	}
	if got := fb.body("show_window")["show_window"]; got != false {
		t.Errorf("show_window = %v, want false", got)
	}
}

func TestRun_Play(t *testing.T) {
	fb := newFakeBridge(t)

	var out bytes.Buffer
	args := []string{"play", "--config", fb.configFile(t), "-i", "https://media.test/quilt.png", "-r", "6", "-c", "8"}
	if err := run(testContext(t), args, &out, io.Discard); err != nil {
		t.Fatalf("run(play) error = %v", err)
	}

	got := strings.Join(fb.calls(), ",")
	want := "enter_orchestration,show_window,instance_playlist,insert_playlist_entry,play_playlist,exit_orchestration"
	if got != want {
		t.Errorf("calls = %s, want %s", got, want)
	}

	name, _ := fb.body("instance_playlist")["name"].(string)
	if !strings.HasPrefix(name, "default_") {
		t.Errorf("playlist name = %q, want default_ prefix", name)
	}
	entry := fb.body("insert_playlist_entry")
	if entry["uri"] != "https://media.test/quilt.png" || entry["rows"] != "6" || entry["cols"] != "8" {
		t.Errorf("insert body = %v", entry)
	}
}

func TestRun_PlayRequiresInput(t *testing.T) {
	fb := newFakeBridge(t)
	err := run(testContext(t), []string{"play", "--config", fb.configFile(t)}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "--input") {
		t.Fatalf("run(play) error = %v, want missing input", err)
	}
}

func TestRun_Playlist(t *testing.T) {
	fb := newFakeBridge(t)

	file := filepath.Join(t.TempDir(), "show.yaml")
	doc := `
name: show
loop: false
items:
  - uri: a.png
  - uri: b.png
    rgbd: true
`
	if err := os.WriteFile(file, []byte(doc), 0600); err != nil {
		t.Fatalf("failed to write playlist: %v", err)
	}

	var out bytes.Buffer
	if err := run(testContext(t), []string{"sync", "--config", fb.configFile(t), "-i", file, "--loop"}, &out, io.Discard); err != nil {
		t.Fatalf("run(sync) error = %v", err)
	}

	inserts := 0
	for _, c := range fb.calls() {
		if c == "insert_playlist_entry" {
			inserts++
		}
	}
	if inserts != 2 {
		t.Errorf("inserted %d items, want 2", inserts)
	}
	if got := fb.body("instance_playlist")["loop"]; got != "true" {
		t.Errorf("loop = %v, want --loop to override the file", got)
	}
	if got := fb.body("sync_overwrite_playlist")["name"]; got != "show" {
		t.Errorf("sync name = %v, want show", got)
	}
}

func TestRun_BridgeDown(t *testing.T) {
	fb := newFakeBridge(t)
	path := fb.configFile(t)
	fb.srv.Close()

	err := run(testContext(t), []string{"list", "--config", path}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "entering orchestration") {
		t.Fatalf("run(list) error = %v, want enter failure", err)
	}
}

func TestQuiltOutputPath(t *testing.T) {
	opts := &options{rows: 6, cols: 8, aspect: 0.75}
	path, err := quiltOutputPath(opts)
	if err != nil {
		t.Fatalf("quiltOutputPath() error = %v", err)
	}
	if !filepath.IsAbs(path) || filepath.Base(path) != "output_qs8x6a0.75.png" {
		t.Errorf("quiltOutputPath() = %q", path)
	}

	opts.output = "/tmp/q.png"
	if path, _ := quiltOutputPath(opts); path != "/tmp/q.png" {
		t.Errorf("quiltOutputPath() = %q, want --out", path)
	}
}

func TestBridgeURLs(t *testing.T) {
	fb := newFakeBridge(t)
	cfg, err := loadConfig(&options{configPath: fb.configFile(t), address: "10.0.0.5"})
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	base, events := bridgeURLs(cfg.Bridge)
	if !strings.HasPrefix(base, "http://10.0.0.5:") {
		t.Errorf("base = %q", base)
	}
	if !strings.HasPrefix(events, "ws://10.0.0.5:") || !strings.HasSuffix(events, "/event_source") {
		t.Errorf("events = %q", events)
	}
}

func TestCountDisplays(t *testing.T) {
	total, holo := countDisplays(nil)
	if total != 0 || holo != 0 {
		t.Errorf("countDisplays(nil) = %d, %d", total, holo)
	}
}
