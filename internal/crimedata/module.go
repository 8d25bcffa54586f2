// Package crimedata ingests and serves crime records for the analytics
// pages. Records arrive as CSV uploads from analysts; ingestion validates
// every row and reports rejects back to the uploader rather than silently
// dropping them.
package crimedata

import (
	"context"
	"fmt"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Module implements the crimedata module.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	store  *Store

	maxUploadBytes int64
}

func New() *Module {
	return &Module{}
}

// Info returns module metadata.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "crimedata",
		Version:     "1.0.0",
		Description: "Crime record ingestion and analytics",
		Roles:       []string{"analytics"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init wires dependencies and runs migrations.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.maxUploadBytes = 20 << 20 // 20 MiB
	if deps.Config != nil && deps.Config.IsSet("max_upload_mb") {
		if mb := deps.Config.GetInt("max_upload_mb"); mb > 0 {
			m.maxUploadBytes = int64(mb) << 20
		}
	}

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return fmt.Errorf("crimedata store: %w", err)
	}
	m.store = store
	return nil
}

// Start is a no-op.
func (m *Module) Start(ctx context.Context) error { return nil }

// Stop is a no-op.
func (m *Module) Stop(ctx context.Context) error { return nil }
