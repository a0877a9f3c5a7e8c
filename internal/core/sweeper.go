package core

// sweeper.go provides background retention cleanup for finished jobs.
//
// Terminal jobs (completed, failed, rolled_back) accumulate in the job
// store indefinitely unless something prunes them. The sweeper runs
// periodically, deleting terminal jobs older than the retention window.
//
// The sweeper is designed to be long-running and context-aware for graceful
// shutdown. It logs progress and errors but does not fail the application
// if individual sweep cycles fail.

import (
	"context"
	"log/slog"
	"time"
)

// SweeperConfig holds configuration for the retention sweeper.
// All fields have sensible defaults if zero values are provided.
type SweeperConfig struct {
	Retention     time.Duration // How long terminal jobs are kept (default: 720h)
	CheckInterval time.Duration // How often to run (default: 1h)
}

// StartRetentionSweeper starts a background goroutine that periodically
// prunes terminal jobs past the retention window.
// It runs immediately on start, then every CheckInterval.
// The sweeper stops when the context is cancelled.
func (s *Service) StartRetentionSweeper(ctx context.Context, cfg SweeperConfig) {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Hour
	}

	slog.Info("retention sweeper started",
		"retention", cfg.Retention.String(),
		"check_interval", cfg.CheckInterval.String(),
	)

	// Run immediately on startup
	s.runSweep(ctx, cfg)

	// Then run periodically
	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, cfg)
		}
	}
}

// runSweep performs one prune cycle.
func (s *Service) runSweep(ctx context.Context, cfg SweeperConfig) {
	start := time.Now()
	cutoff := start.Add(-cfg.Retention).UTC()

	deleted, err := s.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		slog.Info("pruned terminal import jobs",
			"jobs_deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
