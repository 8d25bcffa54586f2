package ws

import "time"

// MessageType discriminates WebSocket messages pushed to the dashboard.
type MessageType string

const (
	MessageIncidentCreated  MessageType = "incident.created"
	MessageIncidentUpdated  MessageType = "incident.updated"
	MessageIncidentAssigned MessageType = "incident.assigned"
	MessageIncidentClosed   MessageType = "incident.closed"
	MessageCameraDown       MessageType = "camera.down"
	MessageCameraUp         MessageType = "camera.up"
	MessageUnitStatus       MessageType = "unit.status"
)

// Message is the envelope for all WebSocket messages. Data carries the
// originating event payload unchanged so the dashboard sees the same
// shape the REST API returns.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}
