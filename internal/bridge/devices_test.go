package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// displayEntry renders one device-list entry in the daemon's layout, with
// calibration and quilt embedded as JSON strings.
func displayEntry(index int, hwid string) string {
	cal := `{"configVersion":"3.0","serial":"LKG-A123","pitch":{"value":49.9},` +
		`"slope":{"value":-5.2},"center":{"value":0.1},"viewCone":{"value":40.0},` +
		`"invView":{"value":1.0},"verticalAngle":{"value":0.0},"DPI":{"value":283.0},` +
		`"screenW":{"value":3840},"screenH":{"value":2160},"flipImageX":{"value":0.0},` +
		`"flipImageY":{"value":0.0},"flipSubp":{"value":0.0}}`
	quilt := `{"quiltAspect":0.75,"quiltX":3360,"quiltY":3360,"tileX":8,"tileY":6}`
	calJSON, _ := json.Marshal(cal)
	quiltJSON, _ := json.Marshal(quilt)
	return fmt.Sprintf(`{"value":{"calibration":{"value":%s},"defaultQuilt":{"value":%s},`+
		`"hardwareVersion":{"value":"16in"},"hwid":{"value":%q},"index":{"value":%d},`+
		`"state":{"value":"ok"},"windowCoords":{"value":{"x":0,"y":0}}}}`,
		calJSON, quiltJSON, hwid, index)
}

func deviceList(entries ...string) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%q:%s", fmt.Sprint(i), e)
	}
	return `{"name":{"value":"available_output_devices"},"payload":{"value":{` + strings.Join(parts, ",") + `}}}`
}

func TestRefreshDevices_ClassifiesHolographic(t *testing.T) {
	c, sender, _ := newSessionClient(t)
	sender.respond(endpointOutputDevices, deviceList(
		displayEntry(0, "LKG-16in-0001"),
		displayEntry(1, "DELL-U2719"),
	))

	if err := c.RefreshDevices(context.Background()); err != nil {
		t.Fatalf("RefreshDevices() error = %v", err)
	}

	displays := c.Displays()
	if len(displays) != 2 {
		t.Fatalf("Displays() = %d entries, want 2", len(displays))
	}
	if !displays[0].IsHolographic() {
		t.Errorf("display %q should be holographic", displays[0].HardwareID)
	}
	if displays[1].IsHolographic() {
		t.Errorf("display %q should not be holographic", displays[1].HardwareID)
	}
	if reqs := sender.sent(); reqs[0].Body["orchestration"] != "tok-123" {
		t.Errorf("body = %v", reqs[0].Body)
	}
}

func TestRefreshDevices_ReplacesRegistry(t *testing.T) {
	c, sender, _ := newSessionClient(t)
	ctx := context.Background()

	sender.respond(endpointOutputDevices, deviceList(displayEntry(0, "LKG-A"), displayEntry(1, "LKG-B")))
	if err := c.RefreshDevices(ctx); err != nil {
		t.Fatalf("first refresh error = %v", err)
	}

	sender.respond(endpointOutputDevices, deviceList(displayEntry(1, "LKG-B")))
	if err := c.RefreshDevices(ctx); err != nil {
		t.Fatalf("second refresh error = %v", err)
	}

	displays := c.Displays()
	if len(displays) != 1 || displays[0].Index != 1 {
		t.Errorf("Displays() = %+v, want only display 1", displays)
	}
}

func TestRefreshDevices_DamagedEntryNeverHidesDisplay(t *testing.T) {
	c, sender, _ := newSessionClient(t)
	// The damaged entry sits under key "0" while the real display reports
	// index 0 from key "1".
	sender.respond(endpointOutputDevices, deviceList(
		`{"value":{"hwid":{"value":"broken"}}}`,
		displayEntry(0, "LKG-16in-0001"),
		`"junk"`,
	))

	for i := 0; i < 50; i++ {
		if err := c.RefreshDevices(context.Background()); err != nil {
			t.Fatalf("RefreshDevices() error = %v", err)
		}
		displays := c.Displays()
		if len(displays) != 1 || displays[0].HardwareID != "LKG-16in-0001" || !displays[0].IsHolographic() {
			t.Fatalf("refresh %d: Displays() = %+v, want only LKG-16in-0001", i, displays)
		}
	}
}

func TestRefreshDevices_MalformedKeepsRegistry(t *testing.T) {
	tests := []struct {
		name     string
		response string
		fail     error
		want     error
	}{
		{"transport", "", errRefused, ErrTransport},
		{"not json", `{{`, nil, ErrProtocol},
		{"payload not object", `{"payload":{"value":"none"}}`, nil, ErrProtocol},
		{"no payload", `{"name":{"value":"x"}}`, nil, ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sender, _ := newSessionClient(t)
			sender.respond(endpointOutputDevices, deviceList(displayEntry(0, "LKG-A")))
			if err := c.RefreshDevices(context.Background()); err != nil {
				t.Fatalf("seed refresh error = %v", err)
			}

			sender.respond(endpointOutputDevices, tt.response)
			sender.fail(endpointOutputDevices, tt.fail)
			if err := c.RefreshDevices(context.Background()); !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if got := c.Registry().Count(); got != 1 {
				t.Errorf("registry has %d displays, want the previous 1", got)
			}
		})
	}
}

func TestMonitorEventTriggersRefresh(t *testing.T) {
	c, sender, push := newSessionClient(t)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	sender.respond(endpointOutputDevices, deviceList(displayEntry(0, "LKG-A")))

	push.deliver(string(eventMessage(EventMonitorConnect)))

	if sender.count(endpointOutputDevices) != 1 {
		t.Errorf("requests = %v, want one device refresh", sender.endpoints())
	}
	if c.Registry().Count() != 1 {
		t.Errorf("registry count = %d, want 1", c.Registry().Count())
	}

	sender.respond(endpointOutputDevices, deviceList())
	push.deliver(string(eventMessage(EventMonitorDisconnect)))
	if c.Registry().Count() != 0 {
		t.Errorf("registry count = %d after disconnect, want 0", c.Registry().Count())
	}
}

func TestHardwareTemplates(t *testing.T) {
	c, sender, _ := newSessionClient(t)
	sender.respond(endpointHardwareTemplates, `{"payload":{"value":{`+
		`"1":{"value":{"index":{"value":1},"hardwareVersion":{"value":"portrait"}}},`+
		`"0":{"value":{"index":{"value":0},"hardwareVersion":{"value":"16in"}}}}}}`)

	templates, err := c.HardwareTemplates(context.Background())
	if err != nil {
		t.Fatalf("HardwareTemplates() error = %v", err)
	}
	if len(templates) != 2 || templates[0].HardwareVersion != "16in" || templates[1].HardwareVersion != "portrait" {
		t.Errorf("templates = %+v", templates)
	}
}

func TestCameraParametersAndReadBack(t *testing.T) {
	c, sender, _ := newSessionClient(t)
	ctx := context.Background()

	sender.respond(endpointCameraParameters, `{"payload":{"value":{"fov":{"value":14.0},"distance":{"value":2.5},"mode":"ortho"}}}`)
	params, err := c.CameraParameters(ctx, 0)
	if err != nil {
		t.Fatalf("CameraParameters() error = %v", err)
	}
	if params["fov"] != 14.0 || params["distance"] != 2.5 || params["mode"] != "ortho" {
		t.Errorf("params = %v", params)
	}

	sender.respond(endpointReadBack, `{"payload":{"value":"C:/out.png"}}`)
	got, err := c.ReadBack(ctx, SourceQuiltView)
	if err != nil {
		t.Fatalf("ReadBack() error = %v", err)
	}
	if got != `"C:/out.png"` {
		t.Errorf("ReadBack() = %s", got)
	}

	if err := c.SaveOut(ctx, SourceQuiltView, "/tmp/quilt.png"); err != nil {
		t.Fatalf("SaveOut() error = %v", err)
	}
	last := sender.sent()[len(sender.sent())-1]
	if last.Endpoint != endpointSaveOut || last.Body["source"] != SourceQuiltView || last.Body["filename"] != "/tmp/quilt.png" {
		t.Errorf("saveout request = %+v", last)
	}
}
