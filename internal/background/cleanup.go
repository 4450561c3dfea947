package background

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired records and reports how many went away.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// CleanupManager periodically evicts expired verification codes. Expiry is
// also checked lazily at verification time; the sweep keeps the table from
// accumulating codes nobody ever submits.
type CleanupManager struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(sweeper Sweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := cm.sweeper.Sweep(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to evict expired verification codes", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Info("expired verification codes evicted", slog.Int64("rows_deleted", removed))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
