// Package watch monitors the health of the camera network (LPR, CCTV, and
// partner feeds). Cameras are checked on an interval by a bounded worker
// pool; repeated failures raise alerts on the event bus, which the notifier
// and websocket feed relay to the watch floor.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

// Config holds the watch module's tunables.
type Config struct {
	CheckInterval       time.Duration `mapstructure:"check_interval"`
	CheckTimeout        time.Duration `mapstructure:"check_timeout"`
	PingCount           int           `mapstructure:"ping_count"`
	ConsecutiveFailures int           `mapstructure:"consecutive_failures"`
	MaxWorkers          int           `mapstructure:"max_workers"`
	Privileged          bool          `mapstructure:"privileged"`
}

func defaultConfig() Config {
	return Config{
		CheckInterval:       30 * time.Second,
		CheckTimeout:        5 * time.Second,
		PingCount:           3,
		ConsecutiveFailures: 3,
		MaxWorkers:          10,
	}
}

// Module implements the watch module.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	store  *Store
	cfg    Config

	scheduler *Scheduler
	alerter   *Alerter
}

func New() *Module {
	return &Module{}
}

// Info returns module metadata.
func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "watch",
		Version:     "1.0.0",
		Description: "Camera network health monitoring and alerting",
		Roles:       []string{"monitoring"},
		APIVersion:  plugin.APIVersionCurrent,
	}
}

// Init wires dependencies, loads config, and runs migrations.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = defaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
	}
	if err := m.ValidateConfig(); err != nil {
		return err
	}

	store, err := NewStore(ctx, deps.Store)
	if err != nil {
		return fmt.Errorf("watch store: %w", err)
	}
	m.store = store

	m.alerter = NewAlerter(m.cfg.ConsecutiveFailures, m.bus, m.logger)
	m.scheduler = NewScheduler(m.cfg, m.store, m.alerter, m.bus, m.logger)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.cfg.CheckInterval < time.Second {
		return fmt.Errorf("watch: check_interval must be at least 1s, got %s", m.cfg.CheckInterval)
	}
	if m.cfg.CheckTimeout <= 0 || m.cfg.CheckTimeout >= m.cfg.CheckInterval {
		return fmt.Errorf("watch: check_timeout must be positive and below check_interval")
	}
	if m.cfg.MaxWorkers < 1 {
		return fmt.Errorf("watch: max_workers must be at least 1")
	}
	if m.cfg.ConsecutiveFailures < 1 {
		return fmt.Errorf("watch: consecutive_failures must be at least 1")
	}
	return nil
}

// Start launches the check scheduler.
func (m *Module) Start(ctx context.Context) error {
	m.scheduler.Start()
	m.logger.Info("camera watch started",
		zap.Duration("interval", m.cfg.CheckInterval),
		zap.Int("workers", m.cfg.MaxWorkers),
	)
	return nil
}

// Stop drains the scheduler.
func (m *Module) Stop(ctx context.Context) error {
	m.scheduler.Stop()
	return nil
}
