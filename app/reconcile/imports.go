package reconcile

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/samber/lo"
)

// Envelope is the JSON document exchanged by exports and imports.
type Envelope struct {
	Feeds []ImportFeed `json:"feeds,omitempty" validate:"omitempty,dive"`
	Items []ImportItem `json:"items,omitempty" validate:"omitempty,dive"`
	Posts []ImportItem `json:"posts,omitempty" validate:"omitempty,dive"`
}

type ImportFeed struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url" validate:"required"`
	Description string `json:"description,omitempty"`
	Link        string `json:"link,omitempty"`
}

type ImportItem struct {
	ID        string `json:"id"`
	FeedID    string `json:"feedId"`
	FeedTitle string `json:"feedTitle"`
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content"`
	Link      string `json:"link,omitempty"`
	PubDate   string `json:"pubDate,omitempty"`
	IsOwn     bool   `json:"isOwn"`
	IsPrivate bool   `json:"isPrivate"`
}

type ImportResult struct {
	Feeds int `json:"feeds"`
	Items int `json:"items"`
}

func (e *Engine) decodeEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFormat, err)
	}
	if err := e.validate.Struct(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidFormat, err)
	}
	return &envelope, nil
}

// ImportFeeds merges a feeds export. Feeds are matched by URL and items by
// title and publication date; accepted rows are appended with fresh IDs.
func (e *Engine) ImportFeeds(ctx context.Context, data []byte) (ImportResult, error) {
	envelope, err := e.decodeEnvelope(data)
	if err != nil {
		return ImportResult{}, err
	}

	now := e.now()
	items := make([]model.FeedItem, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		item, err := raw.toFeedItem(now)
		if err != nil {
			return ImportResult{}, err
		}
		items = append(items, item)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var result ImportResult
	err = e.store.InTx(ctx, func(tx *database.Store) error {
		feedIDs, added, err := mergeFeeds(ctx, tx, envelope.Feeds)
		if err != nil {
			return err
		}
		result.Feeds = added

		for _, item := range items {
			if id, ok := feedIDs[item.FeedID]; ok {
				item.FeedID = id
			}
			ok, err := insertUnseen(ctx, tx, &item, database.Append)
			if err != nil {
				return err
			}
			if ok {
				result.Items++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	slog.Info("Feeds imported",
		"feeds", result.Feeds,
		"items", result.Items,
		"skipped", len(envelope.Feeds)+len(envelope.Items)-result.Feeds-result.Items)

	return result, nil
}

// mergeFeeds creates feeds with unknown URLs. It returns how the imported
// feed IDs map onto stored ones.
func mergeFeeds(ctx context.Context, tx *database.Store, feeds []ImportFeed) (map[string]string, int, error) {
	stored, err := tx.Feeds.GetFeeds(ctx)
	if err != nil {
		return nil, 0, err
	}
	byURL := lo.KeyBy(stored, func(f model.Feed) string { return f.URL })

	feedIDs := make(map[string]string, len(feeds))
	added := 0
	for _, raw := range feeds {
		url := strings.TrimSpace(raw.URL)
		if existing, ok := byURL[url]; ok {
			if raw.ID != "" {
				feedIDs[raw.ID] = existing.ID
			}
			continue
		}

		f := model.Feed{
			Title:       cmp.Or(raw.Title, url),
			URL:         url,
			Description: raw.Description,
			Link:        raw.Link,
		}
		if err := tx.Feeds.CreateFeed(ctx, &f); err != nil {
			return nil, 0, err
		}
		byURL[url] = f
		if raw.ID != "" {
			feedIDs[raw.ID] = f.ID
		}
		added++
	}

	return feedIDs, added, nil
}

// ImportPosts merges a posts export. Every post becomes an authored post; a
// document without a posts list is rejected.
func (e *Engine) ImportPosts(ctx context.Context, data []byte) (int, error) {
	envelope, err := e.decodeEnvelope(data)
	if err != nil {
		return 0, err
	}
	if envelope.Posts == nil {
		return 0, fmt.Errorf("%w: no posts found in the import file", model.ErrInvalidFormat)
	}

	now := e.now()
	posts := make([]model.FeedItem, 0, len(envelope.Posts))
	for _, raw := range envelope.Posts {
		post, err := raw.toFeedItem(now)
		if err != nil {
			return 0, err
		}
		post.IsOwn = true
		post.FeedID = model.OwnFeedID
		post.FeedTitle = cmp.Or(raw.FeedTitle, ownFeedTitle(post.IsPrivate))
		posts = append(posts, post)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	imported := 0
	err = e.store.InTx(ctx, func(tx *database.Store) error {
		// Walk backwards so the batch keeps its order at the top of the store
		for i := len(posts) - 1; i >= 0; i-- {
			ok, err := insertUnseen(ctx, tx, &posts[i], database.Prepend)
			if err != nil {
				return err
			}
			if ok {
				imported++
			}
		}
		if imported == 0 {
			return model.ErrNoNewPosts
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Posts imported", "total", len(posts), "new", imported)
	return imported, nil
}

// insertUnseen stores item with a fresh ID unless an item with the same title
// and publication date exists.
func insertUnseen(ctx context.Context, tx *database.Store, item *model.FeedItem, pos database.Position) (bool, error) {
	exists, err := tx.Items.ExistsByTitlePubDate(ctx, item.Title, item.PubDate)
	if err != nil || exists {
		return false, err
	}

	item.ID = ""
	if err := tx.Items.InsertItem(ctx, item, pos); err != nil {
		return false, err
	}
	return true, nil
}

func (i ImportItem) toFeedItem(now time.Time) (model.FeedItem, error) {
	pubDate, err := parseImportDate(i.PubDate, now)
	if err != nil {
		return model.FeedItem{}, fmt.Errorf("%w: item %q: %v", model.ErrInvalidFormat, i.Title, err)
	}

	return model.FeedItem{
		FeedID:    i.FeedID,
		FeedTitle: i.FeedTitle,
		Title:     i.Title,
		Content:   i.Content,
		Link:      i.Link,
		PubDate:   pubDate,
		IsOwn:     i.IsOwn,
		IsPrivate: i.IsPrivate,
	}, nil
}

func parseImportDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pubDate %q", s)
	}
	return t.UTC(), nil
}
