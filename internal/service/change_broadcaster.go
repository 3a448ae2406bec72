package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/internal/repository"
	"github.com/noah-isme/leave-calendar-api/pkg/cache"
	"github.com/noah-isme/leave-calendar-api/pkg/jobs"
)

type changePublisher interface {
	Publish(ctx context.Context, collection string) error
}

// ReportCachePattern matches every cached report.
var ReportCachePattern = cache.Key("reports", "*")

// ChangeBroadcaster runs the side effects of a committed write: cached reports
// are dropped synchronously and the change notification is published from a
// background queue with retries.
type ChangeBroadcaster struct {
	reports   *CacheService
	publisher changePublisher
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewChangeBroadcaster wires the broadcaster. Either dependency may be nil.
func NewChangeBroadcaster(reports *CacheService, publisher changePublisher, logger *zap.Logger) *ChangeBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &ChangeBroadcaster{reports: reports, publisher: publisher, logger: logger}
	if publisher != nil {
		b.queue = jobs.NewQueue("change-notifications", func(ctx context.Context, job jobs.Job) error {
			return publisher.Publish(ctx, job.Key)
		}, jobs.QueueConfig{Workers: 1, BufferSize: 16, Logger: logger})
	}
	return b
}

// Start launches the publishing worker.
func (b *ChangeBroadcaster) Start(ctx context.Context) {
	if b == nil || b.queue == nil {
		return
	}
	b.queue.Start(ctx)
}

// Stop drains the publishing worker.
func (b *ChangeBroadcaster) Stop() {
	if b == nil || b.queue == nil {
		return
	}
	b.queue.Stop()
}

// Changed records that collection was written.
func (b *ChangeBroadcaster) Changed(ctx context.Context, collection string) {
	if b == nil {
		return
	}
	if collection == repository.CollectionCalendar {
		_ = b.reports.Invalidate(ctx, ReportCachePattern)
	}
	if b.publisher == nil {
		return
	}
	if _, err := b.queue.Enqueue(collection); err != nil {
		// queue not running: publish inline
		if err := b.publisher.Publish(ctx, collection); err != nil {
			b.logger.Warn("change notification failed", zap.String("collection", collection), zap.Error(err))
		}
	}
}
