// Package fleet tracks the department's deployable units (drones and ground
// robots). Unit records live in the local store; live telemetry is pulled
// from the upstream records service when it is reachable, with seeded sample
// units served otherwise so the map is never blank in demo deployments.
package fleet

import (
	"context"
	"fmt"

	"github.com/CivicMesh/rtcc/internal/backend"
	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Module implements the fleet module.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	store  *Store
	client *backend.Client

	demoFallback bool
}

// New creates the fleet module. The backend client is shared across modules
// and may be unconfigured, in which case every listing serves local data.
func New(client *backend.Client) *Module {
	return &Module{client: client}
}

// Info returns module metadata.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "fleet",
		Version:     "1.0.0",
		Description: "Drone and robot unit tracking with live/demo telemetry",
		Roles:       []string{"telemetry"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init wires dependencies and runs migrations.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus
	m.demoFallback = true
	if deps.Config != nil && deps.Config.IsSet("demo_fallback") {
		m.demoFallback = deps.Config.GetBool("demo_fallback")
	}

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return fmt.Errorf("fleet store: %w", err)
	}
	m.store = store

	count, err := store.CountUnits(ctx)
	if err != nil {
		return fmt.Errorf("count units: %w", err)
	}
	if count == 0 && m.demoFallback {
		if err := store.SeedDemoUnits(ctx); err != nil {
			return fmt.Errorf("seed demo units: %w", err)
		}
		m.logger.Info("seeded demo fleet units")
	}
	return nil
}

// Start is a no-op; the fleet module has no background workers.
func (m *Module) Start(ctx context.Context) error { return nil }

// Stop is a no-op.
func (m *Module) Stop(ctx context.Context) error { return nil }
