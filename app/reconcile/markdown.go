package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/markdown"
	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/samber/lo"
)

// ImportMarkdown imports a single Markdown post. It returns 0 for files
// without a .md extension and for posts that already exist.
func (e *Engine) ImportMarkdown(ctx context.Context, text, filename string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var imported int
	err := e.store.InTx(ctx, func(tx *database.Store) error {
		n, err := e.importMarkdown(ctx, tx, text, filename)
		imported = n
		return err
	})
	return imported, err
}

// ImportMarkdownFiles imports every .md file in one transaction. A file that
// cannot be read as Markdown is skipped; importing nothing at all is an error.
func (e *Engine) ImportMarkdownFiles(ctx context.Context, files []markdown.File) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	imported := 0
	err := e.store.InTx(ctx, func(tx *database.Store) error {
		for _, file := range files {
			n, err := e.importMarkdown(ctx, tx, string(file.Content), file.Name)
			if errors.Is(err, model.ErrInvalidFormat) {
				slog.Warn("Skipping markdown file", "file", file.Name, "error", err)
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", file.Name, err)
			}
			imported += n
		}
		if imported == 0 {
			return model.ErrNoValidPosts
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Markdown imported", "files", len(files), "new", imported)
	return imported, nil
}

// ImportMarkdownArchive imports the .md entries of a zip archive.
func (e *Engine) ImportMarkdownArchive(ctx context.Context, data []byte) (int, error) {
	files, err := markdown.ReadArchive(data)
	if err != nil {
		return 0, err
	}
	return e.ImportMarkdownFiles(ctx, files)
}

func (e *Engine) importMarkdown(ctx context.Context, tx *database.Store, text, filename string) (int, error) {
	if !markdown.IsMarkdownFile(filename) {
		return 0, nil
	}

	if !utf8.ValidString(text) {
		return 0, fmt.Errorf("%w: %s is not valid UTF-8 text", model.ErrInvalidFormat, filename)
	}

	fm, body, _ := markdown.ParseFrontmatter(text)

	title := fm.Title
	if title == "" {
		title = markdown.TitleFromFilename(filename)
	}

	pubDate := fm.Date
	if pubDate.IsZero() {
		pubDate = e.now()
	}

	content, err := markdown.ToHTML(body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrInvalidFormat, err)
	}

	own := true
	existing, err := tx.Items.GetItems(ctx, model.ItemFilter{IsOwn: &own})
	if err != nil {
		return 0, err
	}

	duplicate := lo.ContainsBy(existing, func(item model.FeedItem) bool {
		return markdown.IsDuplicate(item.Title, item.Content, title, content)
	})
	if duplicate {
		slog.Debug("Markdown post already exists", "file", filename, "title", title)
		return 0, nil
	}

	post := &model.FeedItem{
		FeedID:    model.OwnFeedID,
		FeedTitle: ownFeedTitle(fm.Private),
		Title:     title,
		Content:   content,
		PubDate:   pubDate,
		IsOwn:     true,
		IsPrivate: fm.Private,
	}
	if err := tx.Items.InsertItem(ctx, post, database.Prepend); err != nil {
		return 0, err
	}

	return 1, nil
}
