package fleet

// Event topics published by the fleet module.
const (
	// TopicUnitStatus fires on every unit status transition.
	// Payload: StatusChange.
	TopicUnitStatus = "fleet.unit.status"
	// TopicUnitCreated fires when a unit is registered.
	// Payload: models.Unit.
	TopicUnitCreated = "fleet.unit.created"
	// TopicUnitDeleted fires when a unit is removed.
	// Payload: unit ID string.
	TopicUnitDeleted = "fleet.unit.deleted"
)

// StatusChange is the payload for TopicUnitStatus.
type StatusChange struct {
	UnitID   string `json:"unit_id"`
	Callsign string `json:"callsign"`
	From     string `json:"from"`
	To       string `json:"to"`
}
