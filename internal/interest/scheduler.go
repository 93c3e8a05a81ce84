package interest

import (
	"context"
	"time"

	"github.com/bassista/go_discover/internal/logger"
	"github.com/bassista/go_discover/internal/metrics"
)

// Persistable is the store API needed by the persistence scheduler.
type Persistable interface {
	IsDirty() bool
	Save() error
}

// StartPersistenceScheduler runs a goroutine that periodically saves a dirty store.
// On ctx.Done, it performs a final flush before returning.
// Returns a channel that is closed when the scheduler has completed shutdown.
func StartPersistenceScheduler(ctx context.Context, store Persistable, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("persist").Debugf("starting persistence scheduler with interval: %v", interval)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("persist").Debugf("persistence scheduler received context cancellation, performing final flush")
				flush(store)
				logger.WithComponent("persist").Info("persistence scheduler stopped after final flush")
				return
			case <-ticker.C:
				logger.WithComponent("persist").Tracef("persistence scheduler tick, checking if dirty")
				flush(store)
			}
		}
	}()
	return done
}

func flush(store Persistable) {
	if !store.IsDirty() {
		logger.WithComponent("persist").Tracef("interest profile is clean, skipping flush")
		return
	}

	if err := store.Save(); err != nil {
		metrics.ProfileSaves.WithLabelValues("error").Inc()
		logger.WithComponent("persist").Errorf("persist error: %v", err)
		return
	}
	metrics.ProfileSaves.WithLabelValues("ok").Inc()
	logger.WithComponent("persist").Info("interest profile persisted to disk")
}
