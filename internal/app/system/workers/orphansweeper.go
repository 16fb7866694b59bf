// internal/app/system/workers/orphansweeper.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/orphanedfiles"
	"github.com/dalemusser/accredithub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// FileRemover deletes stored uploads. uploads.Store satisfies it.
type FileRemover interface {
	Remove(name string) error
	Exists(name string) (bool, error)
}

// OrphanSweeper retries deletes of replaced document files that could not be
// removed at replacement time.
type OrphanSweeper struct {
	orphans  *orphanedfiles.Store
	files    FileRemover
	log      *zap.Logger
	interval time.Duration
	batch    int64
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewOrphanSweeper creates a sweeper that wakes every interval and handles
// up to batch due files per pass.
func NewOrphanSweeper(orphans *orphanedfiles.Store, files FileRemover, logger *zap.Logger, interval time.Duration, batch int64) *OrphanSweeper {
	return &OrphanSweeper{
		orphans:  orphans,
		files:    files,
		log:      logger,
		interval: interval,
		batch:    batch,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *OrphanSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("orphan sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int64("batch", w.batch))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *OrphanSweeper) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("orphan sweeper stopped")
}

func (w *OrphanSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.Sweep(ctx)
			cancel()
		}
	}
}

// Sweep makes one pass over due orphans and returns how many were resolved.
// A file that is already gone counts as resolved.
func (w *OrphanSweeper) Sweep(ctx context.Context) int {
	due, err := w.orphans.Due(ctx, time.Now().UTC(), w.batch)
	if err != nil {
		w.log.Error("failed to load orphaned files", zap.Error(err))
		return 0
	}

	resolved := 0
	for _, f := range due {
		if err := w.remove(f.FileName); err != nil {
			w.log.Warn("orphaned file still present",
				zap.String("file", f.FileName),
				zap.Int("attempts", f.Attempts+1),
				zap.Error(err))
			if err := w.orphans.Retry(ctx, f, w.interval, err); err != nil {
				w.log.Error("failed to reschedule orphaned file", zap.String("file", f.FileName), zap.Error(err))
			}
			continue
		}
		if err := w.orphans.Resolve(ctx, f.ID); err != nil {
			w.log.Error("failed to resolve orphaned file", zap.String("file", f.FileName), zap.Error(err))
			continue
		}
		metrics.OrphansResolved.Inc()
		resolved++
	}

	if resolved > 0 {
		w.log.Info("resolved orphaned files", zap.Int("count", resolved))
	}
	return resolved
}

func (w *OrphanSweeper) remove(name string) error {
	ok, err := w.files.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return w.files.Remove(name)
}
