// internal/app/system/workers/tokencleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/collabhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ExpiredPurger deletes blacklist entries whose tokens have expired.
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenCleanup is a background worker that purges expired entries from
// the refresh token blacklist.
type TokenCleanup struct {
	store    ExpiredPurger
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTokenCleanup creates a new token cleanup worker.
//
// Parameters:
//   - store: the revoked token store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 1 hour)
func NewTokenCleanup(store ExpiredPurger, logger *zap.Logger, interval time.Duration) *TokenCleanup {
	return &TokenCleanup{
		store:    store,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *TokenCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("token cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *TokenCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("token cleanup worker stopped")
	})
}

func (w *TokenCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(context.Background())
		}
	}
}

// RunOnce performs a single purge and returns the number of entries removed.
func (w *TokenCleanup) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	count, err := w.store.DeleteExpired(ctx, w.now())
	if err != nil {
		w.log.Error("failed to purge expired revoked tokens", zap.Error(err))
		return 0
	}

	if count > 0 {
		w.log.Info("purged expired revoked tokens", zap.Int64("count", count))
	}
	return count
}
