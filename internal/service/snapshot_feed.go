package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type changeSubscriber interface {
	Subscribe(ctx context.Context, collection string) (<-chan struct{}, func(), error)
}

// SnapshotLoader reads the full current state of a collection.
type SnapshotLoader[T any] func(ctx context.Context) (T, error)

// SnapshotFeed turns change notifications for one collection into a stream of
// full snapshots. Subscribers always receive whole state, never deltas.
type SnapshotFeed[T any] struct {
	collection string
	changes    changeSubscriber
	load       SnapshotLoader[T]
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewSnapshotFeed constructs a feed for collection.
func NewSnapshotFeed[T any](collection string, changes changeSubscriber, load SnapshotLoader[T], metrics *MetricsService, logger *zap.Logger) *SnapshotFeed[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotFeed[T]{collection: collection, changes: changes, load: load, metrics: metrics, logger: logger}
}

// Subscription delivers snapshots until closed or its context ends.
// It holds at most one undelivered snapshot; a newer one replaces it.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Updates returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription[T]) Updates() <-chan T {
	return s.updates
}

// Close ends the subscription and waits for its goroutine to exit.
func (s *Subscription[T]) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Subscribe listens for change notifications, then loads the current
// snapshot, queues it for delivery and reloads after every notification.
// A write that commits during the initial load is still delivered.
func (f *SnapshotFeed[T]) Subscribe(ctx context.Context) (*Subscription[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	signals, stop, err := f.changes.Subscribe(ctx, f.collection)
	if err != nil {
		cancel()
		return nil, err
	}

	initial, err := f.load(ctx)
	if err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("load %s snapshot: %w", f.collection, err)
	}

	sub := &Subscription[T]{updates: make(chan T, 1), cancel: cancel, done: make(chan struct{})}
	sub.updates <- initial
	f.metrics.SubscriberDelta(1)

	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer f.metrics.SubscriberDelta(-1)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				snapshot, err := f.load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					f.logger.Warn("snapshot reload failed", zap.String("collection", f.collection), zap.Error(err))
					continue
				}
				replaceLatest(sub.updates, snapshot)
			}
		}
	}()
	return sub, nil
}

// replaceLatest delivers v without blocking, dropping any stale pending value.
// Only the producing goroutine may call it.
func replaceLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
