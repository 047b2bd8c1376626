package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "holobridge"

// Command actions accepted on the command topics.
const (
	CommandPlay     = "play"
	CommandPause    = "pause"
	CommandNext     = "next"
	CommandPrevious = "previous"
	CommandRefresh  = "refresh"
)

// Topics builds the holobridge MQTT topic hierarchy under a configurable prefix.
//
// Hierarchy:
//
//	{prefix}/service            retained online/offline status of this process (LWT)
//	{prefix}/status             retained Bridge connection state
//	{prefix}/displays           retained display list after each refresh
//	{prefix}/event/{slug}       one message per Bridge push event
//	{prefix}/command/{action}   inbound transport and refresh commands
//	{prefix}/ack/{action}       outcome of each inbound command
//
// The zero value uses DefaultTopicPrefix.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Service returns the topic carrying this process's online/offline status.
//
// Example: holobridge/service
func (t Topics) Service() string {
	return fmt.Sprintf("%s/service", t.prefix())
}

// Status returns the retained Bridge connection state topic.
//
// Example: holobridge/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix())
}

// Displays returns the retained display list topic.
//
// Example: holobridge/displays
func (t Topics) Displays() string {
	return fmt.Sprintf("%s/displays", t.prefix())
}

// Event returns the topic for a Bridge push event.
// The event name is slugged: lower case, runs of non-alphanumerics become "_".
//
// Example: holobridge/event/monitor_connect
func (t Topics) Event(name string) string {
	return fmt.Sprintf("%s/event/%s", t.prefix(), Slug(name))
}

// Command returns the topic for a single inbound command.
//
// Example: holobridge/command/play
func (t Topics) Command(action string) string {
	return fmt.Sprintf("%s/command/%s", t.prefix(), action)
}

// Ack returns the topic acknowledging a command.
//
// Example: holobridge/ack/play
func (t Topics) Ack(action string) string {
	return fmt.Sprintf("%s/ack/%s", t.prefix(), action)
}

// AllEvents returns a pattern matching every event topic.
//
// Pattern: holobridge/event/+
func (t Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", t.prefix())
}

// AllCommands returns a pattern matching every command topic.
//
// Pattern: holobridge/command/+
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+", t.prefix())
}

// CommandAction extracts the action from a concrete command topic.
// It returns false if the topic is not a command topic under this prefix.
func (t Topics) CommandAction(topic string) (string, bool) {
	base := t.prefix() + "/command/"
	if !strings.HasPrefix(topic, base) {
		return "", false
	}
	action := strings.TrimPrefix(topic, base)
	if action == "" || strings.Contains(action, "/") {
		return "", false
	}
	return action, true
}

// Slug turns an event name into a single topic level.
func Slug(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
