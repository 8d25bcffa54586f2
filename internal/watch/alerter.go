package watch

import (
	"context"
	"sync"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Alerter tracks consecutive check failures per camera and publishes a
// single down alert when the threshold is crossed, and a single recovery
// alert when a down camera comes back. A one-off failed check never alerts.
type Alerter struct {
	threshold int
	bus       plugin.EventBus
	logger    *zap.Logger

	mu       sync.Mutex
	failures map[string]int
	down     map[string]bool
}

func NewAlerter(threshold int, bus plugin.EventBus, logger *zap.Logger) *Alerter {
	return &Alerter{
		threshold: threshold,
		bus:       bus,
		logger:    logger,
		failures:  make(map[string]int),
		down:      make(map[string]bool),
	}
}

// Observe feeds one check result through the alert state machine and
// returns the camera's resulting state.
func (a *Alerter) Observe(ctx context.Context, camera Camera, result CheckResult) CameraState {
	a.mu.Lock()
	defer a.mu.Unlock()

	if result.OK {
		wasDown := a.down[camera.ID]
		a.failures[camera.ID] = 0
		if wasDown {
			a.down[camera.ID] = false
			a.logger.Info("camera recovered",
				zap.String("camera", camera.Name),
				zap.String("id", camera.ID),
			)
			a.publish(ctx, TopicCameraUp, Alert{
				CameraID:     camera.ID,
				Name:         camera.Name,
				EntityType:   camera.EntityType,
				Jurisdiction: camera.Jurisdiction,
			})
		}
		return StateUp
	}

	a.failures[camera.ID]++
	count := a.failures[camera.ID]
	if count >= a.threshold && !a.down[camera.ID] {
		a.down[camera.ID] = true
		a.logger.Warn("camera down",
			zap.String("camera", camera.Name),
			zap.String("id", camera.ID),
			zap.Int("failures", count),
			zap.String("detail", result.Detail),
		)
		a.publish(ctx, TopicCameraDown, Alert{
			CameraID:     camera.ID,
			Name:         camera.Name,
			EntityType:   camera.EntityType,
			Jurisdiction: camera.Jurisdiction,
			Failures:     count,
			Detail:       result.Detail,
		})
	}
	if a.down[camera.ID] {
		return StateDown
	}
	// Below threshold: keep reporting up until alerting kicks in, matching
	// what the dashboard map shows.
	return StateUp
}

// Forget clears tracked state for a removed camera.
func (a *Alerter) Forget(cameraID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, cameraID)
	delete(a.down, cameraID)
}

func (a *Alerter) publish(ctx context.Context, topic string, alert Alert) {
	a.bus.PublishAsync(ctx, plugin.Event{
		Topic:     topic,
		Source:    "watch",
		Timestamp: time.Now(),
		Payload:   alert,
	})
}
