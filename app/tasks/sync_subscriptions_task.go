package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-publish/app/feed"
	"github.com/lysyi3m/rss-publish/app/model"
)

// SyncSubscriptionsTask subscribes to every feed declared in the feeds
// directory that is not subscribed yet.
type SyncSubscriptionsTask struct {
	Task
	Subscriptions []feed.Subscription
	reconciler    Reconciler
}

func NewSyncSubscriptionsTask(subscriptions []feed.Subscription, reconciler Reconciler) *SyncSubscriptionsTask {
	return &SyncSubscriptionsTask{
		Task:          NewTask(TaskTypeSyncSubscriptions, DefaultMaxRetries),
		Subscriptions: subscriptions,
		reconciler:    reconciler,
	}
}

func (t *SyncSubscriptionsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	added, existing, failed := 0, 0, 0
	for _, sub := range t.Subscriptions {
		_, _, err := t.reconciler.Subscribe(ctx, sub.URL)
		switch {
		case err == nil:
			added++
		case errors.Is(err, model.ErrDuplicateFeed):
			existing++
		default:
			failed++
			slog.Warn("Subscription sync failed", "feed", sub.Name, "url", sub.URL, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", "SyncSubscriptions",
		"duration", t.GetDuration(),
		"total", len(t.Subscriptions),
		"added", added,
		"existing", existing,
		"failed", failed)

	if failed > 0 {
		return fmt.Errorf("failed to subscribe to %d of %d feeds", failed, len(t.Subscriptions))
	}
	return nil
}
