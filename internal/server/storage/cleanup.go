package storage

import (
	"context"
	"log/slog"
	"time"
)

// JobPruner deletes job records created before a cutoff.
type JobPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService sweeps stale temp files at startup and then on an interval,
// prunes old job records when a pruner is configured, and empties the temp
// root on shutdown.
type CleanupService struct {
	store     Store
	pruner    JobPruner
	staleAge  time.Duration
	interval  time.Duration
	retention time.Duration
	done      chan struct{}
}

// NewCleanupService creates a new cleanup service. A zero interval disables
// the periodic pass; a nil pruner disables record pruning.
func NewCleanupService(store Store, pruner JobPruner, staleAge, interval, retention time.Duration) *CleanupService {
	return &CleanupService{
		store:     store,
		pruner:    pruner,
		staleAge:  staleAge,
		interval:  interval,
		retention: retention,
		done:      make(chan struct{}),
	}
}

// Start runs one sweep synchronously, then continues in a background
// goroutine until ctx is cancelled.
func (cs *CleanupService) Start(ctx context.Context) {
	slog.Info("cleanup service started",
		"stale_age", cs.staleAge,
		"interval", cs.interval,
	)

	// Run once immediately on start
	cs.runCleanup(ctx)

	if cs.interval <= 0 {
		close(cs.done)
		return
	}

	go func() {
		ticker := time.NewTicker(cs.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cs.runCleanup(ctx)
			case <-ctx.Done():
				slog.Info("cleanup service stopping")
				close(cs.done)
				return
			}
		}
	}()
}

// Wait blocks until the cleanup service has fully stopped.
func (cs *CleanupService) Wait() {
	<-cs.done
}

// Shutdown removes every file left in the temp root.
func (cs *CleanupService) Shutdown() {
	removed, err := cs.store.SweepAll()
	if err != nil {
		slog.Error("shutdown sweep failed", "error", err)
		return
	}
	slog.Info("shutdown sweep complete", "removed", removed)
}

func (cs *CleanupService) runCleanup(ctx context.Context) {
	removed, err := cs.store.SweepStale(cs.staleAge)
	if err != nil {
		slog.Error("failed to sweep stale temp files", "error", err)
	} else if removed > 0 {
		slog.Info("removed stale temp files", "removed", removed, "older_than", cs.staleAge)
	}

	if cs.pruner == nil || cs.retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-cs.retention)
	pruned, err := cs.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune job records", "error", err)
		return
	}
	if pruned > 0 {
		slog.Info("pruned job records", "deleted", pruned, "before", cutoff)
	}
}
