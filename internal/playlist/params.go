package playlist

import "fmt"

// Parameter names a live-editable item field, using Bridge's wire name.
type Parameter string

// Parameters accepted by update_playlist_entry and update_current_entry.
const (
	ParamRows           Parameter = "rows"
	ParamCols           Parameter = "cols"
	ParamAspect         Parameter = "aspect"
	ParamViewCount      Parameter = "viewCount"
	ParamIsRGBD         Parameter = "isRGBD"
	ParamDepthLocation  Parameter = "depth_loc"
	ParamDepthInversion Parameter = "depth_inversion"
	ParamChromaDepth    Parameter = "chroma_depth"
	ParamCropPosX       Parameter = "crop_pos_x"
	ParamCropPosY       Parameter = "crop_pos_y"
	ParamDepthiness     Parameter = "depthiness"
	ParamDepthCutoff    Parameter = "depth_cutoff"
	ParamFocus          Parameter = "focus"
	ParamZoom           Parameter = "zoom"
)

// AllParameters lists every parameter in wire order.
var AllParameters = []Parameter{
	ParamRows, ParamCols, ParamAspect, ParamViewCount, ParamIsRGBD,
	ParamDepthLocation, ParamDepthInversion, ParamChromaDepth,
	ParamCropPosX, ParamCropPosY, ParamDepthiness, ParamDepthCutoff,
	ParamFocus, ParamZoom,
}

// ParseParameter validates a wire name.
func ParseParameter(s string) (Parameter, error) {
	for _, p := range AllParameters {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownParameter, s)
}

// IsFloat reports whether Bridge expects a fractional value. Other
// parameters are sent as integers.
func (p Parameter) IsFloat() bool {
	switch p {
	case ParamAspect, ParamCropPosX, ParamCropPosY, ParamDepthiness,
		ParamDepthCutoff, ParamFocus, ParamZoom:
		return true
	}
	return false
}

// Value reads parameter p from the item as a number. Flags read as 0 or 1.
func (it Item) Value(p Parameter) (float64, error) {
	switch p {
	case ParamRows:
		return float64(it.Rows), nil
	case ParamCols:
		return float64(it.Cols), nil
	case ParamAspect:
		return it.Aspect, nil
	case ParamViewCount:
		return float64(it.ViewCount), nil
	case ParamIsRGBD:
		return boolFloat(it.IsRGBD), nil
	case ParamDepthLocation:
		return float64(it.DepthLocation), nil
	case ParamDepthInversion:
		return boolFloat(it.DepthInversion), nil
	case ParamChromaDepth:
		return boolFloat(it.ChromaDepth), nil
	case ParamCropPosX:
		return it.CropPosX, nil
	case ParamCropPosY:
		return it.CropPosY, nil
	case ParamDepthiness:
		return it.Depthiness, nil
	case ParamDepthCutoff:
		return it.DepthCutoff, nil
	case ParamFocus:
		return it.Focus, nil
	case ParamZoom:
		return it.Zoom, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, string(p))
}

// With returns a copy of the item with parameter p set to v. Integer
// parameters truncate v; flags are true for any nonzero v.
func (it Item) With(p Parameter, v float64) (Item, error) {
	switch p {
	case ParamRows:
		it.Rows = int(v)
	case ParamCols:
		it.Cols = int(v)
	case ParamAspect:
		it.Aspect = v
	case ParamViewCount:
		it.ViewCount = int(v)
	case ParamIsRGBD:
		it.IsRGBD = v != 0
	case ParamDepthLocation:
		it.DepthLocation = DepthLocation(int(v))
	case ParamDepthInversion:
		it.DepthInversion = v != 0
	case ParamChromaDepth:
		it.ChromaDepth = v != 0
	case ParamCropPosX:
		it.CropPosX = v
	case ParamCropPosY:
		it.CropPosY = v
	case ParamDepthiness:
		it.Depthiness = v
	case ParamDepthCutoff:
		it.DepthCutoff = v
	case ParamFocus:
		it.Focus = v
	case ParamZoom:
		it.Zoom = v
	default:
		return it, fmt.Errorf("%w: %q", ErrUnknownParameter, string(p))
	}
	return it, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
