package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/leave-calendar-api/pkg/cache"
)

// Collections that publish change notifications.
const (
	CollectionCalendar  = "calendar"
	CollectionEmployees = "employees"
)

// ChangeChannel returns the pub/sub channel for a collection.
func ChangeChannel(collection string) string {
	return cache.Key("changes", collection)
}

// ChangeNotifier broadcasts "collection changed" signals over Redis pub/sub.
// Payloads carry no data; subscribers reload the full snapshot.
type ChangeNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewChangeNotifier constructs a notifier.
func NewChangeNotifier(client *redis.Client, logger *zap.Logger) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeNotifier{client: client, logger: logger}
}

// Publish signals that collection changed.
func (n *ChangeNotifier) Publish(ctx context.Context, collection string) error {
	if err := n.client.Publish(ctx, ChangeChannel(collection), collection).Err(); err != nil {
		return fmt.Errorf("publish %s change: %w", collection, err)
	}
	return nil
}

// Subscribe returns a channel that receives one value per change notification
// and a cancel func that tears the subscription down. Signals are coalesced:
// a burst of notifications while the reader is busy yields a single pending value.
func (n *ChangeNotifier) Subscribe(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	pubsub := n.client.Subscribe(ctx, ChangeChannel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s changes: %w", collection, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan struct{}, 1)
	messages := pubsub.Channel()
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, cancel, nil
}
