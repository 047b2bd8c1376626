package device

import (
	"encoding/json"
	"fmt"
)

// calibrationJSON renders a calibration document in the daemon's
// value-wrapped layout.
func calibrationJSON(screenW, screenH int, withFringe bool) string {
	fringe := ""
	if withFringe {
		fringe = `"fringe":{"value":1.0},`
	}
	return fmt.Sprintf(`{"configVersion":"3.0","serial":"LKG-A123",`+
		`"pitch":{"value":49.9},"slope":{"value":-5.2},"center":{"value":0.1},%s`+
		`"viewCone":{"value":40.0},"invView":{"value":1.0},"verticalAngle":{"value":0.0},`+
		`"DPI":{"value":283.0},"screenW":{"value":%d},"screenH":{"value":%d},`+
		`"flipImageX":{"value":0.0},"flipImageY":{"value":0.0},"flipSubp":{"value":0.0}}`,
		fringe, screenW, screenH)
}

// displayEntry renders one device-list entry with the calibration and
// quilt blobs embedded as JSON strings, the way Bridge sends them.
func displayEntry(index int, hwid string, screenW, screenH int) string {
	cal, _ := json.Marshal(calibrationJSON(screenW, screenH, true))
	quilt, _ := json.Marshal(`{"quiltAspect":0.75,"quiltX":3360,"quiltY":3360,"tileX":8,"tileY":6}`)
	return fmt.Sprintf(`{"value":{`+
		`"calibration":{"value":%s},`+
		`"defaultQuilt":{"value":%s},`+
		`"hardwareVersion":{"value":"portrait"},`+
		`"hwid":{"value":%q},`+
		`"index":{"value":%d},`+
		`"state":{"value":"ok"},`+
		`"windowCoords":{"value":{"x":%d,"y":0}}}}`,
		cal, quilt, hwid, index, 1920*index)
}
