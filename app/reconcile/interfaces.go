package reconcile

import (
	"context"

	"github.com/lysyi3m/rss-publish/app/feed"
)

var _ Fetcher = (*feed.Fetcher)(nil)

// Fetcher retrieves and normalizes a remote feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*feed.Metadata, []feed.Item, error)
}
