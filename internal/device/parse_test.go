package device

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseCalibration(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantErr    bool
		wantFringe int
		wantW      int
	}{
		{
			name:       "inline document",
			raw:        calibrationJSON(1536, 2048, true),
			wantFringe: 1,
			wantW:      1536,
		},
		{
			name:  "missing fringe defaults to zero",
			raw:   calibrationJSON(1536, 2048, false),
			wantW: 1536,
		},
		{
			name:    "missing required field",
			raw:     `{"configVersion":"3.0","serial":"x","pitch":{"value":1}}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `[1,2]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCalibration(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCalibration) {
					t.Fatalf("ParseCalibration() error = %v, want ErrInvalidCalibration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCalibration() error = %v", err)
			}
			if c.Fringe != tt.wantFringe {
				t.Errorf("Fringe = %d, want %d", c.Fringe, tt.wantFringe)
			}
			if c.ScreenW != tt.wantW {
				t.Errorf("ScreenW = %d, want %d", c.ScreenW, tt.wantW)
			}
			if c.Serial != "LKG-A123" {
				t.Errorf("Serial = %q", c.Serial)
			}
			if len(c.Raw) == 0 {
				t.Error("Raw not retained")
			}
		})
	}
}

func TestParseCalibration_StringEmbedded(t *testing.T) {
	doc, _ := json.Marshal(calibrationJSON(3840, 2160, true))
	c, err := ParseCalibration(json.RawMessage(`{"value":` + string(doc) + `}`))
	if err != nil {
		t.Fatalf("ParseCalibration() error = %v", err)
	}
	if !c.Valid() || c.ScreenH != 2160 {
		t.Errorf("calibration = %+v, want valid 3840x2160", c)
	}
}

func TestParseDefaultQuilt(t *testing.T) {
	q, err := ParseDefaultQuilt(json.RawMessage(`"{\"quiltAspect\":0.75,\"quiltX\":99999,\"quiltY\":3360,\"tileX\":8,\"tileY\":0}"`))
	if err != nil {
		t.Fatalf("ParseDefaultQuilt() error = %v", err)
	}
	if q.Width != MaxQuiltSize {
		t.Errorf("Width = %d, want clamp to %d", q.Width, MaxQuiltSize)
	}
	if q.Rows != MinQuiltTiles {
		t.Errorf("Rows = %d, want clamp to %d", q.Rows, MinQuiltTiles)
	}
	if q.Columns != 8 || q.Aspect != 0.75 {
		t.Errorf("quilt = %+v", q)
	}

	if _, err := ParseDefaultQuilt(json.RawMessage(`{"quiltX":1}`)); !errors.Is(err, ErrInvalidQuilt) {
		t.Errorf("ParseDefaultQuilt(partial) error = %v, want ErrInvalidQuilt", err)
	}
}

func TestParseDisplays_Classification(t *testing.T) {
	payload := `{"0":` + displayEntry(0, "LKG-16in-0001", 3840, 2160) +
		`,"1":` + displayEntry(1, "DELL-U2719", 2560, 1440) + `}`

	displays, err := ParseDisplays(json.RawMessage(payload), nil)
	if err != nil {
		t.Fatalf("ParseDisplays() error = %v", err)
	}
	if len(displays) != 2 {
		t.Fatalf("len(displays) = %d, want 2", len(displays))
	}

	lkg, dell := displays[0], displays[1]
	if !lkg.IsHolographic() {
		t.Errorf("display %q not classified holographic", lkg.HardwareID)
	}
	if dell.IsHolographic() {
		t.Errorf("display %q classified holographic", dell.HardwareID)
	}
	if lkg.WindowCoords != (Point{X: 0, Y: 0}) || dell.WindowCoords.X != 1920 {
		t.Errorf("window coords = %+v, %+v", lkg.WindowCoords, dell.WindowCoords)
	}
	if lkg.DefaultQuilt.Columns != 8 || lkg.DefaultQuilt.Rows != 6 {
		t.Errorf("default quilt = %+v", lkg.DefaultQuilt)
	}
}

func TestParseDisplays_InvalidCalibrationIsNotHolographic(t *testing.T) {
	payload := `{"0":` + displayEntry(0, "LKG-P-0002", 0, 0) + `}`
	displays, err := ParseDisplays(json.RawMessage(payload), nil)
	if err != nil {
		t.Fatalf("ParseDisplays() error = %v", err)
	}
	if displays[0].IsHolographic() {
		t.Error("display with zero screen size classified holographic")
	}
}

func TestParseDisplays_BrokenCalibrationKeepsDisplay(t *testing.T) {
	entry := `{"value":{"calibration":{"value":"not json"},` +
		`"hardwareVersion":{"value":"go_p"},"hwid":{"value":"LKG-GO"},"index":{"value":4},` +
		`"state":{"value":"ok"},"windowCoords":{"value":{"x":5,"y":6}}}}`

	logger := &recordingLogger{}
	displays, err := ParseDisplays(json.RawMessage(`{"0":`+entry+`}`), logger)
	if err != nil {
		t.Fatalf("ParseDisplays() error = %v", err)
	}
	if len(displays) != 1 {
		t.Fatalf("len(displays) = %d, want 1", len(displays))
	}
	d := displays[0]
	if d.Index != 4 || d.HardwareID != "LKG-GO" {
		t.Errorf("display = %+v", d)
	}
	if d.Valid() {
		t.Error("display with unparseable calibration reported valid")
	}
	if d.DefaultQuilt != FallbackQuilt() {
		t.Errorf("DefaultQuilt = %+v, want fallback", d.DefaultQuilt)
	}
	if logger.warnings == 0 {
		t.Error("expected a warning for the broken calibration")
	}
}

func TestParseDisplays_SkipsEntriesWithoutHardwareInfo(t *testing.T) {
	broken := `{"value":{"hwid":{"value":"broken"}}}`
	valid := displayEntry(0, "LKG-16in-0001", 3840, 2160)

	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "damaged entry shares the real index key",
			payload: `{"0":` + broken + `,"1":` + valid + `}`,
			want:    []string{"LKG-16in-0001"},
		},
		{
			name:    "calibration only",
			payload: `{"7":{"value":{"calibration":{"value":` + mustQuote(calibrationJSON(10, 10, true)) + `}}}}`,
		},
		{
			name:    "non-object entries",
			payload: `{"0":5,"1":"junk","2":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Map iteration order varies between runs; repeat to catch it.
			for i := 0; i < 50; i++ {
				logger := &recordingLogger{}
				displays, err := ParseDisplays(json.RawMessage(tt.payload), logger)
				if err != nil {
					t.Fatalf("ParseDisplays() error = %v", err)
				}
				if len(displays) != len(tt.want) {
					t.Fatalf("run %d: len(displays) = %d, want %d (%+v)", i, len(displays), len(tt.want), displays)
				}
				for j, hwid := range tt.want {
					if displays[j].HardwareID != hwid {
						t.Fatalf("run %d: displays[%d].HardwareID = %q, want %q", i, j, displays[j].HardwareID, hwid)
					}
				}
				if logger.warnings == 0 {
					t.Fatal("expected a warning for the skipped entry")
				}
			}
		})
	}
}

func TestParseDisplays_DuplicateIndexKeepsLowestKey(t *testing.T) {
	payload := `{"10":` + displayEntry(2, "LKG-B", 1536, 2048) +
		`,"2":` + displayEntry(2, "LKG-A", 1536, 2048) + `}`

	for i := 0; i < 50; i++ {
		displays, err := ParseDisplays(json.RawMessage(payload), nil)
		if err != nil {
			t.Fatalf("ParseDisplays() error = %v", err)
		}
		if len(displays) != 1 || displays[0].HardwareID != "LKG-A" {
			t.Fatalf("run %d: displays = %+v, want only LKG-A", i, displays)
		}
	}
}

func TestParseDisplay_RejectsMissingHardwareInfo(t *testing.T) {
	for _, raw := range []string{`5`, `{"value":{"hwid":{"value":"x"}}}`, `{"value":{"hardwareVersion":{"value":"p"},` +
		`"hwid":{"value":"x"},"index":{"value":0},"state":{"value":"ok"}}}`} {
		if _, _, err := ParseDisplay(json.RawMessage(raw)); !errors.Is(err, ErrInvalidHardwareInfo) {
			t.Errorf("ParseDisplay(%s) error = %v, want ErrInvalidHardwareInfo", raw, err)
		}
	}
}

func TestParseDisplays_Malformed(t *testing.T) {
	for _, payload := range []string{`"nope"`, `[]`, `null`, `{`} {
		if _, err := ParseDisplays(json.RawMessage(payload), nil); !errors.Is(err, ErrInvalidDeviceList) {
			t.Errorf("ParseDisplays(%s) error = %v, want ErrInvalidDeviceList", payload, err)
		}
	}
}

func TestParseDisplays_Empty(t *testing.T) {
	displays, err := ParseDisplays(json.RawMessage(`{}`), nil)
	if err != nil {
		t.Fatalf("ParseDisplays({}) error = %v", err)
	}
	if len(displays) != 0 {
		t.Errorf("len(displays) = %d, want 0", len(displays))
	}
}

func TestParseHardwareTemplates(t *testing.T) {
	cal := mustQuote(calibrationJSON(1536, 2048, true))
	quilt := mustQuote(`{"quiltAspect":0.75,"quiltX":3360,"quiltY":3360,"tileX":8,"tileY":6}`)
	payload := `{"b":{"value":{"index":{"value":10},"hardwareVersion":{"value":"go_p"},` +
		`"hardwareVersionLong":{"value":"Looking Glass Go"},"hasEdidCalibration":{"value":true},` +
		`"hfov":{"value":"17.5"},"vfov":{"value":23.0},"viewCone":{"value":54},` +
		`"resolutionWidth":{"value":1440},"resolutionHeight":{"value":2560},` +
		`"defaultQuilt":{"value":` + quilt + `},"calibration":{"value":` + cal + `}}},` +
		`"a":{"value":{"index":{"value":4},"hardwareVersion":{"value":"portrait"}}},` +
		`"junk":{"value":3}}`

	templates, err := ParseHardwareTemplates(json.RawMessage(payload), nil)
	if err != nil {
		t.Fatalf("ParseHardwareTemplates() error = %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("len(templates) = %d, want 2", len(templates))
	}
	if templates[0].Index != 4 || templates[1].Index != 10 {
		t.Errorf("templates not sorted by index: %d, %d", templates[0].Index, templates[1].Index)
	}
	goTemplate := templates[1]
	if goTemplate.DeviceType() != DeviceTypeGoPortrait {
		t.Errorf("DeviceType() = %v, want %v", goTemplate.DeviceType(), DeviceTypeGoPortrait)
	}
	if !goTemplate.HasEDIDCalibration || goTemplate.HFOV != 17.5 || goTemplate.ResolutionHeight != 2560 {
		t.Errorf("template = %+v", goTemplate)
	}
	if !goTemplate.Calibration.Valid() || goTemplate.DefaultQuilt.TileCount() != 48 {
		t.Errorf("template blobs not parsed: %+v", goTemplate)
	}
	if !strings.Contains(goTemplate.DeviceType().String(), "Go") {
		t.Errorf("name = %q", goTemplate.DeviceType().String())
	}
}

func mustQuote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}

type recordingLogger struct {
	noopLogger
	warnings int
}

func (l *recordingLogger) Warn(string, ...any) { l.warnings++ }
