package incidents

// Event topics published by the incidents module.
const (
	// TopicCreated fires when an incident is opened. Payload: models.Incident.
	TopicCreated = "incidents.created"
	// TopicUpdated fires on any incident edit. Payload: models.Incident.
	TopicUpdated = "incidents.updated"
	// TopicAssigned fires when an incident is assigned. Payload: Assignment.
	TopicAssigned = "incidents.assigned"
	// TopicClosed fires when an incident is closed. Payload: models.Incident.
	TopicClosed = "incidents.closed"
)

// Assignment is the payload for TopicAssigned.
type Assignment struct {
	IncidentID string `json:"incident_id"`
	Title      string `json:"title"`
	AssignedTo string `json:"assigned_to"`
}
