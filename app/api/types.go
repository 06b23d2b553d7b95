package api

import (
	"time"

	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/export"
	"github.com/lysyi3m/rss-publish/app/feed"
	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/lysyi3m/rss-publish/app/reconcile"
)

type GeneratorInterface interface {
	RenderPublic(items []model.FeedItem) string
	RenderPrivate(items []model.FeedItem) string
	PublicFeedURL() string
	PrivateFeedURL(token string) string
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	store     *database.Store
	engine    *reconcile.Engine
	exporter  *export.Exporter
	generator GeneratorInterface
	fetcher   reconcile.Fetcher
	now       func() time.Time
}

type urlRequest struct {
	URL string `json:"url" binding:"required"`
}

type createPostRequest struct {
	Content   string `json:"content" binding:"required"`
	IsPrivate bool   `json:"isPrivate"`
}

type fetchedItem struct {
	Title          string `json:"title"`
	Content        string `json:"content"`
	ContentSnippet string `json:"contentSnippet"`
	Link           string `json:"link"`
	PubDate        string `json:"pubDate"`
}

type fetchResponse struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Link        string        `json:"link"`
	Items       []fetchedItem `json:"items"`
}

type feedURLsResponse struct {
	PublicURL  string `json:"publicUrl"`
	PrivateURL string `json:"privateUrl"`
}
