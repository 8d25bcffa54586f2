// Package incidents manages command incidents: creation, assignment,
// lifecycle transitions, and map queries. Incidents are local records (this
// server is the system of record for the watch floor); severity changes and
// closures are published on the bus for the notifier and websocket feed.
package incidents

import (
	"context"
	"fmt"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Module implements the incidents module.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	store  *Store
}

func New() *Module {
	return &Module{}
}

// Info returns module metadata.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "incidents",
		Version:     "1.0.0",
		Description: "Command incident tracking and assignment",
		Required:    true,
		Roles:       []string{"records"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init wires dependencies and runs migrations.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return fmt.Errorf("incidents store: %w", err)
	}
	m.store = store
	return nil
}

// Start is a no-op.
func (m *Module) Start(ctx context.Context) error { return nil }

// Stop is a no-op.
func (m *Module) Stop(ctx context.Context) error { return nil }
