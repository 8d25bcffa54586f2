package watch

import (
	"context"
	"sync"
	"time"

	"github.com/CivicMesh/rtcc/pkg/plugin"
	"go.uber.org/zap"
)

const resultRetention = 7 * 24 * time.Hour

// Scheduler runs camera checks on an interval through a bounded worker
// pool, persists results, and feeds the alerter.
type Scheduler struct {
	cfg     Config
	store   *Store
	alerter *Alerter
	bus     plugin.EventBus
	logger  *zap.Logger

	// newChecker is swappable for tests.
	newChecker func(camera Camera, cfg Config) Checker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(cfg Config, store *Store, alerter *Alerter, bus plugin.EventBus, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		store:      store,
		alerter:    alerter,
		bus:        bus,
		logger:     logger,
		newChecker: checkerFor,
	}
}

// Start launches the periodic check loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()

		// First sweep immediately so the dashboard is not blank for a
		// full interval after startup.
		s.RunSweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunSweep(ctx)
			}
		}
	}()

	// Hourly result pruning.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pruned, err := s.store.PruneResults(ctx, time.Now().Add(-resultRetention))
				if err != nil {
					s.logger.Error("prune check results", zap.Error(err))
				} else if pruned > 0 {
					s.logger.Debug("pruned check results", zap.Int64("count", pruned))
				}
			}
		}
	}()
}

// Stop cancels the loops and waits for in-flight checks to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunSweep checks every enabled camera once, bounded by MaxWorkers.
func (s *Scheduler) RunSweep(ctx context.Context) {
	cameras, err := s.store.ListCameras(ctx, true)
	if err != nil {
		s.logger.Error("list cameras for sweep", zap.Error(err))
		return
	}
	if len(cameras) == 0 {
		return
	}

	sem := make(chan struct{}, s.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for _, camera := range cameras {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(camera Camera) {
			defer wg.Done()
			defer func() { <-sem }()
			s.CheckOne(ctx, camera)
		}(camera)
	}
	wg.Wait()
}

// CheckOne probes a single camera, persists the result, publishes it on the
// bus, and updates the camera's observed state through the alerter.
func (s *Scheduler) CheckOne(ctx context.Context, camera Camera) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()

	result := s.newChecker(camera, s.cfg).Check(checkCtx, camera)
	if err := s.store.SaveResult(ctx, &result); err != nil {
		s.logger.Error("save check result",
			zap.String("camera", camera.Name), zap.Error(err))
	}
	s.bus.PublishAsync(ctx, plugin.Event{
		Topic:     TopicCheckResult,
		Source:    "watch",
		Timestamp: time.Now(),
		Payload:   result,
	})

	state := s.alerter.Observe(ctx, camera, result)
	if err := s.store.SetCameraState(ctx, camera.ID, state, result.CheckedAt); err != nil {
		s.logger.Error("update camera state",
			zap.String("camera", camera.Name), zap.Error(err))
	}
	return result
}
