package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusrooms/reserve/internal/service"
)

// Scheduler runs the auto-approval sweep in the background. The engine
// itself stays synchronous; this worker is just another caller.
type Scheduler struct {
	approvals *service.ApprovalService
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

func NewScheduler(approvals *service.ApprovalService, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		approvals: approvals,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the background sweep.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting auto-approval scheduler", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop halts the background sweep.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping auto-approval scheduler")
	close(s.stopChan)
}

func (s *Scheduler) run(ctx context.Context) {
	// First sweep right at startup, then on the ticker.
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("auto-approval sweep stopped")
			return
		case <-ctx.Done():
			s.logger.Info("auto-approval sweep cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if err := s.approvals.RunDueTasks(ctx, time.Now()); err != nil {
		s.logger.Error("auto-approval sweep failed", zap.Error(err))
	}
}
