package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/bassista/go_discover/internal/logger"
)

// Refresher runs one discovery round.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshScheduler re-runs a discovery round on a fixed interval. The first round
// runs as soon as the scheduler starts. A tick that fires while the previous round
// is still running is dropped.
type RefreshScheduler struct {
	target Refresher
	poll   time.Duration

	mu       sync.Mutex
	running  bool
	runs     int
	failures int
}

func NewRefreshScheduler(target Refresher, poll time.Duration) *RefreshScheduler {
	return &RefreshScheduler{
		target: target,
		poll:   poll,
	}
}

func (s *RefreshScheduler) Start(ctx context.Context) {
	logger.WithComponent("sched").Debugf("starting refresh scheduler with interval: %v", s.poll)
	ticker := time.NewTicker(s.poll)
	go func() {
		defer ticker.Stop()
		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stats reports how many rounds ran and how many of them failed.
func (s *RefreshScheduler) Stats() (runs, failures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.failures
}

func (s *RefreshScheduler) tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.WithComponent("sched").Debugf("previous round still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	logger.WithComponent("sched").Debugf("refresh tick started")
	err := s.target.Refresh(ctx)

	s.mu.Lock()
	s.running = false
	s.runs++
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		logger.WithComponent("sched").Errorf("refresh error: %v", err)
		return
	}
	logger.WithComponent("sched").Debugf("refresh tick finished")
}
