package relay

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/holobridge/internal/device"
)

// EventMessage is published for each pushed Bridge event.
type EventMessage struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// DisplaysMessage is the retained display snapshot.
type DisplaysMessage struct {
	Count       int              `json:"count"`
	Holographic int              `json:"holographic"`
	Displays    []device.Display `json:"displays"`
	Timestamp   time.Time        `json:"timestamp"`
}

// rawPayload returns payload as embeddable JSON, quoting it when the
// daemon sent something that is not a JSON document.
func rawPayload(payload string) json.RawMessage {
	if json.Valid([]byte(payload)) {
		return json.RawMessage(payload)
	}
	quoted, _ := json.Marshal(payload)
	return quoted
}
