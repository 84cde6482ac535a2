package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type ImportFeedTask struct {
	Task
	FeedURL  string
	importer FeedImporter
}

func NewImportFeedTask(feedURL string, importer FeedImporter) *ImportFeedTask {
	return &ImportFeedTask{
		Task:     NewTask(TaskTypeImportFeed, feedURL),
		FeedURL:  feedURL,
		importer: importer,
	}
}

func (t *ImportFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rows := t.importer.ImportURL(ctx, t.FeedURL)
	if rows == 0 {
		return fmt.Errorf("feed import produced no rows")
	}

	slog.Info("Task completed",
		"type", "ImportFeed",
		"rows", rows,
		"duration", t.GetDuration())

	return nil
}
