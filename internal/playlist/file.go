package playlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is a playlist file encoding.
type Format string

// Supported playlist file encodings.
const (
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
	FormatJSONC Format = "jsonc"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json", ".jsonc":
		return FormatJSONC, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// document is the on-disk shape. Pointer fields distinguish "absent" from
// zero so absent fields take item defaults.
type document struct {
	Name  string         `json:"name" yaml:"name" toml:"name"`
	Loop  bool           `json:"loop" yaml:"loop" toml:"loop"`
	Items []documentItem `json:"items" yaml:"items" toml:"items"`
}

type documentItem struct {
	URI            string         `json:"uri" yaml:"uri" toml:"uri"`
	RGBD           bool           `json:"rgbd" yaml:"rgbd" toml:"rgbd"`
	Rows           *int           `json:"rows" yaml:"rows" toml:"rows"`
	Cols           *int           `json:"cols" yaml:"cols" toml:"cols"`
	Aspect         *float64       `json:"aspect" yaml:"aspect" toml:"aspect"`
	ViewCount      *int           `json:"view_count" yaml:"view_count" toml:"view_count"`
	Depthiness     *float64       `json:"depthiness" yaml:"depthiness" toml:"depthiness"`
	DepthCutoff    *float64       `json:"depth_cutoff" yaml:"depth_cutoff" toml:"depth_cutoff"`
	Focus          *float64       `json:"focus" yaml:"focus" toml:"focus"`
	DepthLocation  *DepthLocation `json:"depth_location" yaml:"depth_location" toml:"depth_location"`
	DepthInversion bool           `json:"depth_inversion" yaml:"depth_inversion" toml:"depth_inversion"`
	ChromaDepth    bool           `json:"chroma_depth" yaml:"chroma_depth" toml:"chroma_depth"`
	CropPosX       float64        `json:"crop_pos_x" yaml:"crop_pos_x" toml:"crop_pos_x"`
	CropPosY       float64        `json:"crop_pos_y" yaml:"crop_pos_y" toml:"crop_pos_y"`
	Zoom           *float64       `json:"zoom" yaml:"zoom" toml:"zoom"`
	DurationMS     *int           `json:"duration_ms" yaml:"duration_ms" toml:"duration_ms"`
}

// Parse decodes a playlist document. fallbackName is used when the
// document has no name.
func Parse(data []byte, format Format, fallbackName string) (*Playlist, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml playlist: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing toml playlist: %w", err)
		}
	case FormatJSONC:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing json playlist: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	name := doc.Name
	if name == "" {
		name = fallbackName
	}
	p, err := New(name, doc.Loop)
	if err != nil {
		return nil, err
	}

	for i, di := range doc.Items {
		if strings.TrimSpace(di.URI) == "" {
			return nil, fmt.Errorf("playlist item %d: uri is required", i)
		}
		p.Add(di.item())
	}
	return p, nil
}

func (di documentItem) item() Item {
	it := NewItem(di.URI)
	it.IsRGBD = di.RGBD
	setInt(&it.Rows, di.Rows)
	setInt(&it.Cols, di.Cols)
	setFloat(&it.Aspect, di.Aspect)
	setInt(&it.ViewCount, di.ViewCount)
	setFloat(&it.Depthiness, di.Depthiness)
	setFloat(&it.DepthCutoff, di.DepthCutoff)
	setFloat(&it.Focus, di.Focus)
	if di.DepthLocation != nil {
		it.DepthLocation = *di.DepthLocation
	}
	it.DepthInversion = di.DepthInversion
	it.ChromaDepth = di.ChromaDepth
	it.CropPosX = di.CropPosX
	it.CropPosY = di.CropPosY
	setFloat(&it.Zoom, di.Zoom)
	setInt(&it.DurationMS, di.DurationMS)
	return it
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// LoadFile reads a playlist from disk. The format follows the extension and
// the name defaults to the file's base name.
func LoadFile(path string) (*Playlist, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := Parse(data, format, NameFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// NameFromPath strips the directory and extension from path, so
// "shows/lobby.yaml" becomes "lobby".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
