package worker

import (
	"context"
	"sync"
	"time"

	"storefront/internal/util"

	"go.uber.org/zap"
)

// SessionEvictor drops sessions that have been idle for longer than maxIdle
type SessionEvictor interface {
	EvictIdle(ctx context.Context, maxIdle time.Duration) int
}

// SessionWorker sweeps idle sessions out of memory in the background
type SessionWorker struct {
	sessions SessionEvictor
	interval time.Duration
	maxIdle  time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionWorker creates a new session worker
func NewSessionWorker(sessions SessionEvictor, interval, maxIdle time.Duration) *SessionWorker {
	return &SessionWorker{
		sessions: sessions,
		interval: interval,
		maxIdle:  maxIdle,
		stop:     make(chan struct{}),
	}
}

// Start sweeps every interval until ctx is done or Stop is called
func (w *SessionWorker) Start(ctx context.Context) error {
	logger := util.GetLogger()
	logger.Info("Starting session worker",
		zap.Duration("interval", w.interval),
		zap.Duration("max_idle", w.maxIdle),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case <-ticker.C:
			if n := w.sessions.EvictIdle(ctx, w.maxIdle); n > 0 {
				logger.Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Stop stops the worker
func (w *SessionWorker) Stop() error {
	util.GetLogger().Info("Stopping session worker")
	w.stopOnce.Do(func() { close(w.stop) })
	return nil
}
