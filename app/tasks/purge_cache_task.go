package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type PurgeCacheTask struct {
	Task
	purger CachePurger
}

func NewPurgeCacheTask(purger CachePurger) *PurgeCacheTask {
	return &PurgeCacheTask{
		Task:   NewTask(TaskTypePurgeCache, "cache"),
		purger: purger,
	}
}

func (t *PurgeCacheTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	deleted, err := t.purger.Purge(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired cache entries: %w", err)
	}

	slog.Info("Task completed",
		"type", "PurgeCache",
		"deleted", deleted,
		"duration", t.GetDuration())

	return nil
}
