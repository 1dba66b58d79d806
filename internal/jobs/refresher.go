package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/listview"
)

// View is anything that can be re-fetched from the backend.
type View interface {
	Name() string
	Refresh(ctx context.Context) error
}

// AutoRefresher periodically re-fetches a set of list views so a long-running preview
// server does not serve a stale catalogue.
type AutoRefresher struct {
	logger   *zap.Logger
	views    []View
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAutoRefresher constructs a background job that refreshes views every interval.
func NewAutoRefresher(logger *zap.Logger, interval time.Duration, views ...View) *AutoRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoRefresher{
		logger:   logger,
		views:    views,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs an immediate cycle and then one per tick, until Stop or ctx is done.
func (r *AutoRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("auto_refresher.started",
		zap.Duration("interval", r.interval),
		zap.Int("views", len(r.views)))

	r.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopCh:
			r.logger.Info("auto_refresher.stopped (manual stop)")
			return
		case <-ctx.Done():
			r.logger.Info("auto_refresher.stopped (context canceled)")
			return
		}
	}
}

// Stop halts the refresher. It is safe to call more than once.
func (r *AutoRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RunOnce refreshes every view concurrently and returns the first hard failure.
// Stale responses are not failures.
func (r *AutoRefresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, v := range r.views {
		wg.Add(1)
		go func(v View) {
			defer wg.Done()
			err := v.Refresh(ctx)
			if err == nil || errors.Is(err, listview.ErrStale) {
				return
			}
			r.logger.Warn("auto_refresher.refresh_failed", zap.String("view", v.Name()), zap.Error(err))
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(v)
	}
	wg.Wait()

	r.logger.Debug("auto_refresher.cycle",
		zap.Duration("duration", time.Since(start)),
		zap.Bool("ok", firstErr == nil))
	return firstErr
}
