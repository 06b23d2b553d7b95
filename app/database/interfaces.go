package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lysyi3m/rss-publish/app/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Position tells the item repository where a new item goes in store order.
type Position int

const (
	Prepend Position = iota
	Append
)

type FeedRepository interface {
	GetFeed(ctx context.Context, id string) (*model.Feed, error)
	GetFeedByURL(ctx context.Context, url string) (*model.Feed, error)
	GetFeeds(ctx context.Context) ([]model.Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	CreateFeed(ctx context.Context, feed *model.Feed) error
	EnsureOwnFeed(ctx context.Context) error
	UpdateFetchStatus(ctx context.Context, id string, fetchedAt time.Time, fetchError string) error
	DeleteFeed(ctx context.Context, id string) error
}

type ItemRepository interface {
	GetItem(ctx context.Context, id string) (*model.FeedItem, error)
	GetItems(ctx context.Context, filter model.ItemFilter) ([]model.FeedItem, error)
	GetItemCount(ctx context.Context, filter model.ItemFilter) (int, error)

	InsertItem(ctx context.Context, item *model.FeedItem, pos Position) error
	DeleteItem(ctx context.Context, id string) error
	DeleteFeedItems(ctx context.Context, feedID string) (int64, error)

	ExistsByFeedTitleLink(ctx context.Context, feedID, title, link string) (bool, error)
	ExistsByTitlePubDate(ctx context.Context, title string, pubDate time.Time) (bool, error)
}

type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}
