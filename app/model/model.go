// Package model defines the feed and item records shared by the store, the
// reconciliation engine and the renderers.
package model

import (
	"time"
)

// Own feed sentinel. Authored posts belong to it and it is never fetched.
const (
	OwnFeedID    = "own"
	OwnFeedURL   = "local"
	OwnFeedTitle = "Your Feed"

	PrivateFeedTitle = "Your Private Feed"
)

type Feed struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Description   string     `json:"description,omitempty"`
	Link          string     `json:"link,omitempty"`
	LastFetchedAt *time.Time `json:"lastFetchedAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

// IsOwn reports whether f is the local sentinel feed.
func (f Feed) IsOwn() bool {
	return f.URL == OwnFeedURL
}

type FeedItem struct {
	ID        string    `json:"id"`
	FeedID    string    `json:"feedId"`
	FeedTitle string    `json:"feedTitle"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Link      string    `json:"link,omitempty"`
	PubDate   time.Time `json:"pubDate"`
	IsOwn     bool      `json:"isOwn"`
	IsPrivate bool      `json:"isPrivate"`
}

// Normalize enforces that only own items can be private.
func (i *FeedItem) Normalize() {
	if !i.IsOwn {
		i.IsPrivate = false
	}
	i.PubDate = i.PubDate.UTC()
}

// ItemFilter selects items from the store. Nil fields match everything.
type ItemFilter struct {
	FeedID    *string
	IsOwn     *bool
	IsPrivate *bool
	Limit     int
}
