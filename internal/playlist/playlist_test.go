package playlist

import (
	"errors"
	"testing"
)

func uris(p *Playlist) []string {
	var out []string
	for _, it := range p.Items() {
		out = append(out, it.URI)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_RejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "   "} {
		if _, err := New(name, false); !errors.Is(err, ErrInvalidName) {
			t.Errorf("New(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestPlaylist_Ordering(t *testing.T) {
	p, err := New("demo", true)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.Add(NewItem("a"), NewItem("b"), NewItem("c"), NewItem("d"))

	if err := p.RemoveAt(1); err != nil {
		t.Fatalf("RemoveAt(1) error = %v", err)
	}
	if got := uris(p); !equal(got, []string{"a", "c", "d"}) {
		t.Errorf("after RemoveAt = %v", got)
	}

	if err := p.Move(0, 2); err != nil {
		t.Fatalf("Move(0, 2) error = %v", err)
	}
	if got := uris(p); !equal(got, []string{"c", "d", "a"}) {
		t.Errorf("after Move(0,2) = %v", got)
	}

	if err := p.Move(2, 0); err != nil {
		t.Fatalf("Move(2, 0) error = %v", err)
	}
	if got := uris(p); !equal(got, []string{"a", "c", "d"}) {
		t.Errorf("after Move(2,0) = %v", got)
	}

	for _, bad := range []int{-1, 3} {
		if err := p.RemoveAt(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("RemoveAt(%d) error = %v", bad, err)
		}
		if _, err := p.Item(bad); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Item(%d) error = %v", bad, err)
		}
	}
}

func TestPlaylist_ItemsIsCopy(t *testing.T) {
	p, _ := New("demo", false)
	p.Add(NewItem("a"))
	items := p.Items()
	items[0].URI = "changed"
	if it, _ := p.Item(0); it.URI != "a" {
		t.Errorf("Items() exposed internal slice")
	}
}

func TestNewItem_Defaults(t *testing.T) {
	it := NewItem("x.png")
	if it.Rows != 5 || it.Cols != 9 || it.Aspect != 1.77 || it.ViewCount != 45 {
		t.Errorf("tiling defaults = %+v", it)
	}
	if it.DurationMS != 20000 || it.Zoom != 1 || it.DepthLocation != DepthLeft {
		t.Errorf("defaults = %+v", it)
	}
	if it.IsRGBD {
		t.Error("NewItem is RGBD")
	}
	if !NewRGBDItem("x.mp4").IsRGBD {
		t.Error("NewRGBDItem is not RGBD")
	}
}

func TestParameters(t *testing.T) {
	floats := map[Parameter]bool{
		ParamAspect: true, ParamCropPosX: true, ParamCropPosY: true,
		ParamDepthiness: true, ParamDepthCutoff: true, ParamFocus: true, ParamZoom: true,
	}
	for _, p := range AllParameters {
		if p.IsFloat() != floats[p] {
			t.Errorf("%s.IsFloat() = %v", p, p.IsFloat())
		}
		if got, err := ParseParameter(string(p)); err != nil || got != p {
			t.Errorf("ParseParameter(%q) = %v, %v", p, got, err)
		}
	}
	if _, err := ParseParameter("brightness"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("ParseParameter(brightness) error = %v", err)
	}
}

func TestItem_WithAndValue(t *testing.T) {
	it := NewRGBDItem("x")
	tests := []struct {
		param Parameter
		in    float64
		want  float64
	}{
		{ParamRows, 6.7, 6},
		{ParamFocus, 0.25, 0.25},
		{ParamDepthInversion, 1, 1},
		{ParamChromaDepth, 0, 0},
		{ParamDepthLocation, 3, 3},
		{ParamZoom, 1.5, 1.5},
	}
	for _, tt := range tests {
		updated, err := it.With(tt.param, tt.in)
		if err != nil {
			t.Fatalf("With(%s) error = %v", tt.param, err)
		}
		got, err := updated.Value(tt.param)
		if err != nil || got != tt.want {
			t.Errorf("Value(%s) = %v, %v; want %v", tt.param, got, err, tt.want)
		}
	}
	if _, err := it.With("nope", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("With(nope) error = %v", err)
	}
}

func TestDepthLocation_Text(t *testing.T) {
	var l DepthLocation
	if err := l.UnmarshalText([]byte("Right")); err != nil || l != DepthRight {
		t.Errorf("UnmarshalText(Right) = %v, %v", l, err)
	}
	if err := l.UnmarshalText([]byte("middle")); err == nil {
		t.Error("UnmarshalText(middle) expected error")
	}
	if DepthBottom.String() != "bottom" || DepthLocation(9).String() != "DepthLocation(9)" {
		t.Error("String() mismatch")
	}
}
