package tasks

import (
	"context"

	"github.com/lysyi3m/offer-comb/app/database"
)

// TaskSchedulerInterface is what the HTTP API and main need from the
// scheduler: lifecycle plus on-demand import and cache purge.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	ImportNow() error
	PurgeNow() error
}

// FeedImporter loads a product feed into the search index and reports how
// many rows were activated. Zero means the import failed.
type FeedImporter interface {
	ImportURL(ctx context.Context, url string) int
}

type IndexStatter interface {
	Stats(ctx context.Context) (database.IndexStats, error)
}

type CachePurger interface {
	Purge(ctx context.Context) (int64, error)
}
