// Package reconcile merges fetched and imported items into the item store
// without creating duplicates.
package reconcile

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/feed"
	"github.com/lysyi3m/rss-publish/app/markdown"
	"github.com/lysyi3m/rss-publish/app/model"
)

type Engine struct {
	mu       sync.Mutex
	store    *database.Store
	fetcher  Fetcher
	validate *validator.Validate
	now      func() time.Time
}

func NewEngine(store *database.Store, fetcher Fetcher) *Engine {
	return &Engine{
		store:    store,
		fetcher:  fetcher,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Subscribe adds the feed at url and stores everything it currently lists.
// The URL is checked for duplicates before anything is fetched.
func (e *Engine) Subscribe(ctx context.Context, url string) (*model.Feed, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	url = strings.TrimSpace(url)
	if err := feed.ValidateURL(url); err != nil {
		return nil, 0, err
	}

	existing, err := e.store.Feeds.GetFeedByURL(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	if existing != nil {
		return nil, 0, model.ErrDuplicateFeed
	}

	metadata, items, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	now := e.now().UTC()
	newFeed := &model.Feed{
		Title:         cmp.Or(metadata.Title, url),
		URL:           url,
		Description:   metadata.Description,
		Link:          metadata.Link,
		LastFetchedAt: &now,
	}

	var added int
	err = e.store.InTx(ctx, func(tx *database.Store) error {
		if err := tx.Feeds.CreateFeed(ctx, newFeed); err != nil {
			return err
		}
		added, err = prependFetched(ctx, tx, newFeed, items)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	slog.Info("Feed subscribed", "feed", newFeed.Title, "url", url, "items", added)

	return newFeed, added, nil
}

// Refresh fetches every subscribed feed in turn and prepends items not seen
// before. A feed that fails is recorded and skipped.
func (e *Engine) Refresh(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()

	feeds, err := e.store.Feeds.GetFeeds(ctx)
	if err != nil {
		return 0, err
	}

	total, failed, refreshed := 0, 0, 0
	for _, f := range feeds {
		if f.IsOwn() {
			continue
		}
		refreshed++
		if err := ctx.Err(); err != nil {
			return total, err
		}

		added, err := e.refreshFeed(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			failed++
			slog.Warn("Feed refresh failed", "feed", f.Title, "url", f.URL, "error", err)
			if statusErr := e.store.Feeds.UpdateFetchStatus(ctx, f.ID, e.now(), err.Error()); statusErr != nil {
				return total, statusErr
			}
			continue
		}
		total += added
	}

	slog.Info("Feeds refreshed",
		"feeds", refreshed,
		"failed", failed,
		"new", total,
		"duration", time.Since(start))

	return total, nil
}

func (e *Engine) refreshFeed(ctx context.Context, f model.Feed) (int, error) {
	_, items, err := e.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return 0, err
	}

	var added int
	err = e.store.InTx(ctx, func(tx *database.Store) error {
		added, err = prependFetched(ctx, tx, &f, items)
		if err != nil {
			return err
		}
		return tx.Feeds.UpdateFetchStatus(ctx, f.ID, e.now(), "")
	})
	if err != nil {
		return 0, err
	}

	slog.Debug("Feed refreshed", "feed", f.Title, "total", len(items), "new", added)
	return added, nil
}

// prependFetched stores the items of f that are not already present, keeping
// their relative order at the top of the store. An item is present when an
// item with the same feed, title and link exists.
func prependFetched(ctx context.Context, tx *database.Store, f *model.Feed, items []feed.Item) (int, error) {
	added := 0
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		exists, err := tx.Items.ExistsByFeedTitleLink(ctx, f.ID, item.Title, item.Link)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}

		stored := &model.FeedItem{
			FeedID:    f.ID,
			FeedTitle: f.Title,
			Title:     item.Title,
			Content:   item.Content,
			Link:      item.Link,
			PubDate:   item.PublishedAt,
		}
		if err := tx.Items.InsertItem(ctx, stored, database.Prepend); err != nil {
			return 0, err
		}
		added++
	}
	return added, nil
}

// CreatePost publishes an authored post. Its title is taken from the first
// words of the content.
func (e *Engine) CreatePost(ctx context.Context, content string, isPrivate bool) (*model.FeedItem, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: post content is required", model.ErrInvalidFormat)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	post := &model.FeedItem{
		FeedID:    model.OwnFeedID,
		FeedTitle: ownFeedTitle(isPrivate),
		Title:     markdown.DeriveTitle(content),
		Content:   content,
		PubDate:   e.now(),
		IsOwn:     true,
		IsPrivate: isPrivate,
	}

	if err := e.store.Items.InsertItem(ctx, post, database.Prepend); err != nil {
		return nil, err
	}

	slog.Info("Post created", "id", post.ID, "title", post.Title, "private", isPrivate)
	return post, nil
}

// DeletePost removes an authored post.
func (e *Engine) DeletePost(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.store.InTx(ctx, func(tx *database.Store) error {
		post, err := tx.Items.GetItem(ctx, id)
		if err != nil {
			return err
		}
		if post == nil || !post.IsOwn {
			return model.ErrNotFound
		}
		return tx.Items.DeleteItem(ctx, id)
	})
}

// DeleteFeed unsubscribes from a feed and drops the items it brought in.
// Authored posts are never removed this way.
func (e *Engine) DeleteFeed(ctx context.Context, id string) (int64, error) {
	if id == model.OwnFeedID {
		return 0, fmt.Errorf("%w: your own feed cannot be removed", model.ErrInvalidFormat)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var removed int64
	err := e.store.InTx(ctx, func(tx *database.Store) error {
		if err := tx.Feeds.DeleteFeed(ctx, id); err != nil {
			return err
		}
		n, err := tx.Items.DeleteFeedItems(ctx, id)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Feed removed", "id", id, "items", removed)
	return removed, nil
}

func ownFeedTitle(isPrivate bool) string {
	if isPrivate {
		return model.PrivateFeedTitle
	}
	return model.OwnFeedTitle
}
