// Package export projects the item store into downloadable JSON, Markdown
// and zip documents.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/markdown"
	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/samber/lo"
)

type Exporter struct {
	store *database.Store
}

func NewExporter(store *database.Store) *Exporter {
	return &Exporter{store: store}
}

// Document is a named export ready to be served as a download.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

type postsEnvelope struct {
	Posts []model.FeedItem `json:"posts"`
}

type feedsEnvelope struct {
	Feeds []model.Feed     `json:"feeds"`
	Items []model.FeedItem `json:"items"`
}

// PostsJSON exports every authored post, public and private.
func (e *Exporter) PostsJSON(ctx context.Context, now time.Time) (*Document, error) {
	own := true
	posts, err := e.store.Items.GetItems(ctx, model.ItemFilter{IsOwn: &own})
	if err != nil {
		return nil, err
	}

	return jsonDocument(fmt.Sprintf("rss-posts-export-%s.json", dateStamp(now)),
		postsEnvelope{Posts: nonNil(posts)})
}

// FeedsJSON exports the subscriptions together with the items they brought in.
func (e *Exporter) FeedsJSON(ctx context.Context, now time.Time) (*Document, error) {
	feeds, err := e.store.Feeds.GetFeeds(ctx)
	if err != nil {
		return nil, err
	}

	own := false
	items, err := e.store.Items.GetItems(ctx, model.ItemFilter{IsOwn: &own})
	if err != nil {
		return nil, err
	}

	return jsonDocument(fmt.Sprintf("rss-feeds-export-%s.json", dateStamp(now)),
		feedsEnvelope{Feeds: nonNil(feeds), Items: nonNil(items)})
}

// LatestMarkdown exports the most recent matching post as a Markdown file.
func (e *Exporter) LatestMarkdown(ctx context.Context, includePrivate, includeFrontmatter bool) (*Document, error) {
	posts, err := e.posts(ctx, includePrivate)
	if err != nil {
		return nil, err
	}

	file, err := toMarkdownFile(posts[0], includeFrontmatter)
	if err != nil {
		return nil, err
	}

	return &Document{
		Filename:    file.Name,
		ContentType: "text/markdown; charset=utf-8",
		Data:        file.Content,
	}, nil
}

// MarkdownArchive exports every matching post as a Markdown file in a zip.
func (e *Exporter) MarkdownArchive(ctx context.Context, includePrivate, includeFrontmatter bool, now time.Time) (*Document, error) {
	posts, err := e.posts(ctx, includePrivate)
	if err != nil {
		return nil, err
	}

	files := make([]markdown.File, 0, len(posts))
	for _, post := range posts {
		file, err := toMarkdownFile(post, includeFrontmatter)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	data, err := markdown.WriteArchive(files)
	if err != nil {
		return nil, err
	}

	return &Document{
		Filename:    fmt.Sprintf("posts-export-%s.zip", dateStamp(now)),
		ContentType: "application/zip",
		Data:        data,
	}, nil
}

// posts returns the authored posts to export in store order, newest first.
func (e *Exporter) posts(ctx context.Context, includePrivate bool) ([]model.FeedItem, error) {
	own := true
	posts, err := e.store.Items.GetItems(ctx, model.ItemFilter{IsOwn: &own})
	if err != nil {
		return nil, err
	}

	posts = lo.Filter(posts, func(post model.FeedItem, _ int) bool {
		return includePrivate || !post.IsPrivate
	})
	if len(posts) == 0 {
		return nil, model.ErrNoPostsToExport
	}
	return posts, nil
}

func toMarkdownFile(post model.FeedItem, includeFrontmatter bool) (markdown.File, error) {
	body, err := markdown.FromHTML(post.Content)
	if err != nil {
		return markdown.File{}, fmt.Errorf("failed to export %q: %w", post.Title, err)
	}

	content := body
	if includeFrontmatter {
		content = markdown.RenderFrontmatter(post.Title, post.PubDate, post.IsPrivate) + body
	}

	return markdown.File{
		Name:    markdown.Filename(post.Title, post.PubDate),
		Content: []byte(content),
	}, nil
}

func jsonDocument(filename string, v any) (*Document, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return &Document{
		Filename:    filename,
		ContentType: "application/json; charset=utf-8",
		Data:        data,
	}, nil
}

func dateStamp(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
