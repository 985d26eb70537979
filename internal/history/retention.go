package history

// retention.go runs the background job that prunes old history records.
//
// The job runs once on start and then every CheckInterval until its context is
// cancelled. A failed prune is logged and retried on the next tick; it never
// stops the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	RetentionDays int           // Days to keep records (default: 30)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler prunes records older than the retention window,
// immediately and then periodically. It blocks until ctx is cancelled.
func StartRetentionScheduler(ctx context.Context, store Store, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	runRetentionJob(ctx, store, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			runRetentionJob(ctx, store, cfg)
		}
	}
}

// runRetentionJob performs one prune cycle.
func runRetentionJob(ctx context.Context, store Store, cfg RetentionConfig) {
	start := time.Now()
	cutoff := start.AddDate(0, 0, -cfg.RetentionDays)

	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return
	}

	slog.Info("pruned validation history",
		"records_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
