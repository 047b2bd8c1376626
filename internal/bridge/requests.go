package bridge

import (
	"strconv"

	"github.com/nerrad567/holobridge/internal/playlist"
)

// Transcoding profile used by sync_overwrite_playlist.
const (
	syncCRF         = 20
	syncPixelFormat = "yuv420p"
	syncEncoder     = "h265"
)

// Bridge expects most playlist fields as strings, including numbers and
// booleans. These builders produce those bodies.

func playlistBody(token string, p *playlist.Playlist) map[string]string {
	return map[string]string{
		"orchestration": token,
		"name":          p.Name,
		"loop":          strconv.FormatBool(p.Loop),
	}
}

func insertBody(token, name string, index int, it playlist.Item) map[string]string {
	body := map[string]string{
		"orchestration": token,
		"name":          name,
		"index":         strconv.Itoa(index),
		"uri":           it.URI,
		"rows":          strconv.Itoa(it.Rows),
		"cols":          strconv.Itoa(it.Cols),
		"aspect":        formatFloat(it.Aspect),
		"view_count":    strconv.Itoa(it.ViewCount),
		"isRGBD":        flag(it.IsRGBD),
		"durationMS":    strconv.Itoa(it.DurationMS),
	}
	if it.IsRGBD {
		body["depth_loc"] = strconv.Itoa(int(it.DepthLocation))
		body["depth_inversion"] = flag(it.DepthInversion)
		body["chroma_depth"] = flag(it.ChromaDepth)
		body["depthiness"] = formatFloat(it.Depthiness)
		body["depth_cutoff"] = formatFloat(it.DepthCutoff)
		body["focus"] = formatFloat(it.Focus)
		body["zoom"] = formatFloat(it.Zoom)
		body["crop_pos_x"] = formatFloat(it.CropPosX)
		body["crop_pos_y"] = formatFloat(it.CropPosY)
	}
	return body
}

func playBody(token, name string, head int) map[string]string {
	return map[string]string{
		"orchestration": token,
		"name":          name,
		"head_index":    strconv.Itoa(head),
	}
}

type showWindowBody struct {
	Orchestration string `json:"orchestration"`
	ShowWindow    bool   `json:"show_window"`
	HeadIndex     int    `json:"head_index"`
}

type syncBody struct {
	Orchestration string `json:"orchestration"`
	Name          string `json:"name"`
	HeadIndex     int    `json:"head_index"`
	CRF           int    `json:"crf"`
	PixelFormat   string `json:"pixel_format"`
	Encoder       string `json:"encoder"`
}

// updateBody builds an update_playlist_entry body, or an
// update_current_entry body when index is negative.
func updateBody(token, name string, index int, param playlist.Parameter, value float64) map[string]string {
	body := map[string]string{
		"orchestration": token,
		"name":          name,
		string(param):   formatParam(param, value),
	}
	if index >= 0 {
		body["index"] = strconv.Itoa(index)
	}
	return body
}

// formatParam keeps the fraction of float parameters and truncates the rest.
func formatParam(param playlist.Parameter, value float64) string {
	if param.IsFloat() {
		return formatFloat(value)
	}
	return strconv.Itoa(int(value))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
