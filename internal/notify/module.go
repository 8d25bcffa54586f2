// Package notify delivers operational events to external webhooks: incident
// activity and camera outages fan out to whatever endpoints the agency has
// registered (Teams connectors, CAD bridges, paging gateways). Deliveries
// are signed, asynchronous, and retried with backoff.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/internal/fleet"
	"github.com/CivicMesh/rtcc/internal/incidents"
	"github.com/CivicMesh/rtcc/internal/watch"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// subscribedTopics are the bus topics relayed to webhooks.
var subscribedTopics = []string{
	incidents.TopicCreated,
	incidents.TopicAssigned,
	incidents.TopicClosed,
	watch.TopicCameraDown,
	watch.TopicCameraUp,
	fleet.TopicUnitStatus,
}

// Module implements the notify module.
type Module struct {
	logger    *zap.Logger
	store     *Store
	deliverer *Deliverer
}

func New() *Module {
	return &Module{}
}

// Info returns module metadata.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "notify",
		Version:      "1.0.0",
		Description:  "Webhook delivery for incidents and camera alerts",
		Dependencies: []string{"incidents", "watch"},
		Roles:        []string{"notifications"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

// Init wires dependencies and runs migrations.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return fmt.Errorf("notify store: %w", err)
	}
	m.store = store

	timeout := 10 * time.Second
	if deps.Config != nil && deps.Config.IsSet("timeout") {
		timeout = deps.Config.GetDuration("timeout")
	}
	m.deliverer = NewDeliverer(store, timeout, m.logger)
	return nil
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	subs := make([]plugin.Subscription, 0, len(subscribedTopics))
	for _, topic := range subscribedTopics {
		subs = append(subs, plugin.Subscription{
			Topic:   topic,
			Handler: m.handleEvent,
		})
	}
	return subs
}

func (m *Module) handleEvent(ctx context.Context, event plugin.Event) {
	m.deliverer.Enqueue(event)
}

// Start launches the delivery workers.
func (m *Module) Start(ctx context.Context) error {
	m.deliverer.Start()
	return nil
}

// Stop drains pending deliveries.
func (m *Module) Stop(ctx context.Context) error {
	m.deliverer.Stop(ctx)
	return nil
}
