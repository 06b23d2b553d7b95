package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// RefreshFeedsTask runs a live refresh. It is never retried; the next tick
// tries again.
type RefreshFeedsTask struct {
	Task
	reconciler Reconciler
}

func NewRefreshFeedsTask(reconciler Reconciler) *RefreshFeedsTask {
	return &RefreshFeedsTask{
		Task:       NewTask(TaskTypeRefreshFeeds, 0),
		reconciler: reconciler,
	}
}

func (t *RefreshFeedsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	added, err := t.reconciler.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh feeds: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshFeeds",
		"duration", t.GetDuration(),
		"new", added)

	return nil
}
