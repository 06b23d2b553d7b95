package tasks

import (
	"context"

	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/lysyi3m/rss-publish/app/reconcile"
)

var _ Reconciler = (*reconcile.Engine)(nil)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to run background subscription work.
// Example usage:
//
//	scheduler := NewScheduler(subscriptions, engine, refreshInterval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefreshFeedsTask(engine))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Reconciler is the part of the reconciliation engine background tasks drive.
type Reconciler interface {
	Subscribe(ctx context.Context, url string) (*model.Feed, int, error)
	Refresh(ctx context.Context) (int, error)
}
