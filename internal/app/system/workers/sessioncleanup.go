// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/sessions"
	"go.uber.org/zap"
)

// SessionCleanup is a background worker that removes expired sessions from
// http_sessions. It backs up the TTL index on servers where the TTL monitor
// is disabled or slow.
type SessionCleanup struct {
	sessions *sessions.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewSessionCleanup creates a new session cleanup worker.
//
// Parameters:
//   - sessStore: the sessions store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 10 minutes)
func NewSessionCleanup(sessStore *sessions.Store, logger *zap.Logger, interval time.Duration) *SessionCleanup {
	return &SessionCleanup{
		sessions: sessStore,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *SessionCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *SessionCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.sessions.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("failed to delete expired sessions", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("deleted expired sessions", zap.Int64("count", count))
	}
}
