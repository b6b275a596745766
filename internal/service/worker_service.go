package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// fallbackTickInterval is used while the configuration cannot be read
const fallbackTickInterval = 5 * time.Second

// WorkerService drives the simulation from inside the server
type WorkerService struct {
	simulation *SimulationService
	logger     *zap.Logger
}

func NewWorkerService(simulation *SimulationService, logger *zap.Logger) *WorkerService {
	return &WorkerService{
		simulation: simulation,
		logger:     logger,
	}
}

// Start ticks the simulation every studyProgressIntervalMs / speed until ctx
// is cancelled. Ticks of a stopped simulation are skipped; the period follows
// configuration changes.
func (w *WorkerService) Start(ctx context.Context) {
	interval := w.interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("simulation worker started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("simulation worker stopped")
			return
		case <-ticker.C:
			w.tick()
			if next := w.interval(); next != interval {
				interval = next
				ticker.Reset(interval)
				w.logger.Info("simulation worker interval changed", zap.Duration("interval", interval))
			}
		}
	}
}

func (w *WorkerService) tick() {
	_, err := w.simulation.Tick()
	if err != nil && !errors.Is(err, ErrSimulationNotRunning) {
		w.logger.Error("simulation tick failed", zap.Error(err))
	}
}

func (w *WorkerService) interval() time.Duration {
	cfg, err := w.simulation.Config()
	if err != nil {
		w.logger.Warn("failed to read simulation config", zap.Error(err))
		return fallbackTickInterval
	}
	if d := cfg.Simulation.TickInterval(); d > 0 {
		return d
	}
	return fallbackTickInterval
}
