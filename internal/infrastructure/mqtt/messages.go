package mqtt

import (
	"encoding/json"
	"time"
)

// Service status values published on Topics.Service.
const (
	ServiceOnline  = "online"
	ServiceOffline = "offline"
)

// Reasons attached to an offline service status.
const (
	ReasonShutdown             = "shutdown"
	ReasonUnexpectedDisconnect = "unexpected_disconnect"
)

// Ack statuses.
const (
	AckOK     = "ok"
	AckFailed = "failed"
)

// ServiceStatus is the retained liveness record for this process. The
// broker publishes the offline variant as the last will.
type ServiceStatus struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BridgeStatus is the retained reachability of the Bridge daemon.
type BridgeStatus struct {
	Connected bool      `json:"connected"`
	Timestamp time.Time `json:"timestamp"`
}

// Ack reports the outcome of one inbound command.
type Ack struct {
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newAck(action string, err error) Ack {
	ack := Ack{Action: action, Status: AckOK, Timestamp: time.Now().UTC()}
	if err != nil {
		ack.Status = AckFailed
		ack.Error = err.Error()
	}
	return ack
}

func serviceStatus(clientID, status, reason string) []byte {
	// Marshalling a struct of strings and a time cannot fail.
	data, _ := json.Marshal(ServiceStatus{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
	return data
}
