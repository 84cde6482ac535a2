package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrNoFeedURL         = errors.New("no feed URL configured")
	ErrImportInProgress  = errors.New("feed import already in progress")
	ErrCachePurgeMissing = errors.New("no cache configured")
)

const (
	DefaultWorkerCount   = 2
	DefaultInterval      = 30 * time.Second
	DefaultPurgeInterval = 10 * time.Minute
	DefaultTaskTimeout   = 30 * time.Minute
	maxRetryDelay        = 30 * time.Second
	queueSize            = 300
)

type Options struct {
	WorkerCount int
	Interval    time.Duration
	FeedURL     string
	// ImportInterval is the minimum age of the active index generation
	// before it is re-imported. Zero only imports into an empty index.
	ImportInterval time.Duration
	PurgeInterval  time.Duration
	TaskTimeout    time.Duration
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	opts      Options
	importer  FeedImporter
	stats     IndexStatter
	purger    CachePurger
	retryBase time.Duration
	importing atomic.Bool
	lastPurge time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

// NewScheduler wires the background jobs. purger may be nil when no cache
// is configured.
func NewScheduler(opts Options, importer FeedImporter, stats IndexStatter, purger CachePurger) *Scheduler {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = DefaultWorkerCount
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = DefaultPurgeInterval
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = DefaultTaskTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		opts:      opts,
		importer:  importer,
		stats:     stats,
		purger:    purger,
		retryBase: time.Second,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		s.lastPurge = time.Now()
		s.enqueueDueImport()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

// Stop cancels running tasks and waits for workers and pending retries.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// ImportNow enqueues a feed import regardless of the index age. Only one
// import is queued or running at a time.
func (s *Scheduler) ImportNow() error {
	if s.opts.FeedURL == "" || s.importer == nil {
		return ErrNoFeedURL
	}
	if !s.importing.CompareAndSwap(false, true) {
		return ErrImportInProgress
	}

	if err := s.EnqueueTask(NewImportFeedTask(s.opts.FeedURL, s.importer)); err != nil {
		s.importing.Store(false)
		return err
	}
	return nil
}

func (s *Scheduler) PurgeNow() error {
	if s.purger == nil {
		return ErrCachePurgeMissing
	}
	return s.EnqueueTask(NewPurgeCacheTask(s.purger))
}

func (s *Scheduler) enqueueTasks() {
	s.enqueueDueImport()

	if s.purger != nil && time.Since(s.lastPurge) >= s.opts.PurgeInterval {
		s.lastPurge = time.Now()
		if err := s.PurgeNow(); err != nil {
			slog.Warn("Failed to enqueue PurgeCacheTask", "error", err)
		}
	}
}

func (s *Scheduler) enqueueDueImport() {
	if !s.importDue() {
		return
	}

	err := s.ImportNow()
	switch {
	case err == nil:
		slog.Debug("Feed import scheduled", "url", s.opts.FeedURL)
	case errors.Is(err, ErrImportInProgress):
		slog.Debug("Feed import already in progress")
	default:
		slog.Warn("Failed to enqueue ImportFeedTask", "error", err)
	}
}

func (s *Scheduler) importDue() bool {
	if s.opts.FeedURL == "" || s.importer == nil {
		return false
	}
	if s.stats == nil {
		return true
	}

	stats, err := s.stats.Stats(s.ctx)
	if err != nil {
		slog.Warn("Failed to read index stats, importing anyway", "error", err)
		return true
	}
	if stats.ImportedAt == nil || stats.RowCount == 0 {
		return true
	}
	if s.opts.ImportInterval <= 0 {
		return false
	}

	if next := stats.ImportedAt.Add(s.opts.ImportInterval); next.After(time.Now()) {
		slog.Debug("Feed index not due for refresh yet", "next_import_at", next)
		return false
	}
	return true
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.opts.TaskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.finish(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() || s.ctx.Err() != nil {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		s.finish(task)
		return
	}

	task.IncrementRetryCount()
	retryDelay := s.retryBase * time.Duration(1<<uint(task.GetRetryCount()-1))
	if retryDelay > maxRetryDelay {
		retryDelay = maxRetryDelay
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			s.finish(task)
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				s.finish(task)
			}
		}
	}()
}

func (s *Scheduler) finish(task TaskInterface) {
	if task.GetType() == TaskTypeImportFeed {
		s.importing.Store(false)
	}
}
