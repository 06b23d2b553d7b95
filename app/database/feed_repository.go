package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/rss-publish/app/model"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	q querier
}

const feedColumns = `id, title, url, description, link, last_fetched_at, last_error`

func (r *feedRepository) GetFeed(ctx context.Context, id string) (*model.Feed, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id)
	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by ID: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) GetFeedByURL(ctx context.Context, url string) (*model.Feed, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feeds WHERE url = ?`, url)
	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) GetFeeds(ctx context.Context) ([]model.Feed, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+feedColumns+` FROM feeds ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *feedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// CreateFeed assigns a fresh ID when feed.ID is empty. A URL that is already
// subscribed yields model.ErrDuplicateFeed.
func (r *feedRepository) CreateFeed(ctx context.Context, feed *model.Feed) error {
	existing, err := r.GetFeedByURL(ctx, feed.URL)
	if err != nil {
		return err
	}
	if existing != nil {
		return model.ErrDuplicateFeed
	}

	if feed.ID == "" {
		feed.ID = uuid.NewString()
	}

	var lastFetched any
	if feed.LastFetchedAt != nil {
		lastFetched = formatTime(*feed.LastFetchedAt)
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO feeds (id, title, url, description, link, last_fetched_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.Title, feed.URL, feed.Description, feed.Link, lastFetched, feed.LastError)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: feeds.url") {
			return model.ErrDuplicateFeed
		}
		return fmt.Errorf("failed to create feed: %w", err)
	}

	return nil
}

func (r *feedRepository) EnsureOwnFeed(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO feeds (id, title, url) VALUES (?, ?, ?)
	`, model.OwnFeedID, model.OwnFeedTitle, model.OwnFeedURL)
	if err != nil {
		return fmt.Errorf("failed to seed own feed: %w", err)
	}
	return nil
}

func (r *feedRepository) UpdateFetchStatus(ctx context.Context, id string, fetchedAt time.Time, fetchError string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE feeds
		SET last_fetched_at = ?, last_error = ?
		WHERE id = ?
	`, formatTime(fetchedAt), fetchError, id)
	if err != nil {
		return fmt.Errorf("failed to update feed fetch status: %w", err)
	}
	return nil
}

func (r *feedRepository) DeleteFeed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeed(row rowScanner) (*model.Feed, error) {
	var feed model.Feed
	var lastFetched sql.NullString
	err := row.Scan(&feed.ID, &feed.Title, &feed.URL, &feed.Description, &feed.Link, &lastFetched, &feed.LastError)
	if err != nil {
		return nil, err
	}
	if feed.LastFetchedAt, err = parseNullTime(lastFetched); err != nil {
		return nil, err
	}
	return &feed, nil
}
