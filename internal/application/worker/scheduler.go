package worker

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/hosted_checkout-go/internal/infra/logging"
)

type Runner interface {
	Run(ctx context.Context, req Request) (Summary, error)
}

// Scheduler runs the uncaptured reconciliation on a fixed interval. Runs
// never overlap; a tick that arrives mid-run is dropped.
type Scheduler struct {
	Runner   Runner
	Request  Request
	Interval time.Duration
	// Timeout bounds a single run. Zero means the run inherits ctx only.
	Timeout time.Duration
	Logger  logging.Logger
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if _, err := s.Runner.Run(ctx, s.Request); err != nil {
		s.logger().Error("scheduled reconciliation failed", map[string]any{
			"days_ago": s.Request.DaysAgo,
			"error":    err.Error(),
		})
	}
}

func (s *Scheduler) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Noop{}
	}
	return s.Logger
}
