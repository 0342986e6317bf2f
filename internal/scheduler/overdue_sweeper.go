package scheduler

import (
	"context"
	"time"

	"staffhub_backend/platform/logger"
)

const defaultOverdueSweepInterval = 15 * time.Minute

// OverdueChecker runs one pass over pending tasks past their due date.
// Implemented by the tasks service.
type OverdueChecker interface {
	CheckOverdue(ctx context.Context) (int, error)
}

// OverdueSweeper periodically redistributes or escalates overdue follow-up
// tasks.
type OverdueSweeper struct {
	checker  OverdueChecker
	log      *logger.Logger
	interval time.Duration
}

func NewOverdueSweeper(checker OverdueChecker, log *logger.Logger, interval time.Duration) *OverdueSweeper {
	if interval <= 0 {
		interval = defaultOverdueSweepInterval
	}

	return &OverdueSweeper{
		checker:  checker,
		log:      log,
		interval: interval,
	}
}

func (s *OverdueSweeper) Run(ctx context.Context) {
	if s == nil || s.checker == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	processed, err := s.checker.CheckOverdue(ctx)
	if err != nil {
		s.log.Warn("overdue task sweep failed", "error", err)
		return
	}

	if processed > 0 {
		s.log.Info("overdue task sweep processed tasks", "processed", processed)
	}
}
