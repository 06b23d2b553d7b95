package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-publish/app/markdown"
	"github.com/mmcdole/gofeed"
)

const (
	untitledFeed = "Unnamed Feed"
	untitledItem = "Untitled"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	now          func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		now:          time.Now,
	}
}

// Run parses an RSS or Atom document. Channel link is left empty when the
// document has none; callers fall back to the URL they fetched.
func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       cmp.Or(strings.TrimSpace(feed.Title), untitledFeed),
		Link:        feed.Link,
		Description: feed.Description,
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	snippet := ""
	if item.Description != "" {
		snippet = markdown.PlainText(item.Description)
	}

	normalized := Item{
		Title:          cmp.Or(item.Title, untitledItem),
		Link:           item.Link,
		Content:        cmp.Or(item.Content, snippet, item.Description),
		ContentSnippet: snippet,
	}

	switch {
	case item.PublishedParsed != nil:
		normalized.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		normalized.PublishedAt = item.UpdatedParsed.UTC()
	default:
		normalized.PublishedAt = p.now().UTC()
	}

	return normalized
}
