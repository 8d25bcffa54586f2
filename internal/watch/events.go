package watch

// Event topics published by the watch module.
const (
	// TopicCameraDown fires once when a camera crosses the consecutive
	// failure threshold. Payload: Alert.
	TopicCameraDown = "watch.camera.down"
	// TopicCameraUp fires once when a previously-down camera recovers.
	// Payload: Alert.
	TopicCameraUp = "watch.camera.up"
	// TopicCheckResult fires for every completed check. Payload: CheckResult.
	TopicCheckResult = "watch.check.result"
)

// Alert is the payload for camera up/down transitions.
type Alert struct {
	CameraID     string `json:"camera_id"`
	Name         string `json:"name"`
	EntityType   string `json:"entity_type,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Failures     int    `json:"failures,omitempty"`
	Detail       string `json:"detail,omitempty"`
}
