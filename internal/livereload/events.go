// Package livereload implements the build-to-browser notification protocol:
// an SSE hub broadcasting start, notify, and reload events to connected
// clients, and the client script that reacts to them. Broadcasts are
// at-most-once and fire-and-forget; clients that connect later never see
// earlier events.
package livereload

import "encoding/json"

// EventType tags the protocol's three event kinds.
type EventType string

const (
	EventStart  EventType = "start"
	EventNotify EventType = "notify"
	EventReload EventType = "reload"
)

// Event is one protocol message. Payload fields are meaningful per type:
// notify carries message and error, reload optionally carries href.
type Event struct {
	Type    EventType
	Message string
	Error   bool
	Href    string
}

// Start announces the beginning of a build pass.
func Start() Event { return Event{Type: EventStart} }

// Notify reports build completion, successful or not.
func Notify(message string, isError bool) Event {
	return Event{Type: EventNotify, Message: message, Error: isError}
}

// Reload tells clients to reload, or navigate to href when given.
func Reload(href string) Event { return Event{Type: EventReload, Href: href} }

// MarshalJSON emits only the fields the event kind defines.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventNotify:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
			Error   bool      `json:"error"`
		}{e.Type, e.Message, e.Error})
	case EventReload:
		if e.Href != "" {
			return json.Marshal(struct {
				Type EventType `json:"type"`
				Href string    `json:"href"`
			}{e.Type, e.Href})
		}
	}
	return json.Marshal(struct {
		Type EventType `json:"type"`
	}{e.Type})
}
