package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	sqlbuilder "github.com/huandu/go-sqlbuilder"
	"github.com/lysyi3m/rss-publish/app/model"
)

var _ ItemRepository = (*itemRepository)(nil)

type itemRepository struct {
	q querier
}

var itemColumns = []string{
	"id", "feed_id", "feed_title", "title", "content", "link", "pub_date", "is_own", "is_private",
}

func (r *itemRepository) GetItem(ctx context.Context, id string) (*model.FeedItem, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(itemColumns...).From("items").Where(sb.Equal("id", id))
	query, args := sb.Build()

	item, err := scanItem(r.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// GetItems returns matching items in store order.
func (r *itemRepository) GetItems(ctx context.Context, filter model.ItemFilter) ([]model.FeedItem, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(itemColumns...).From("items")
	applyItemFilter(sb, filter)
	sb.OrderBy("seq").Asc()
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}
	query, args := sb.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

func (r *itemRepository) GetItemCount(ctx context.Context, filter model.ItemFilter) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From("items")
	applyItemFilter(sb, filter)
	query, args := sb.Build()

	var count int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// InsertItem stores item with a fresh ID when item.ID is empty.
func (r *itemRepository) InsertItem(ctx context.Context, item *model.FeedItem, pos Position) error {
	item.Normalize()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	seqQuery := `SELECT COALESCE(MIN(seq), 0) - 1 FROM items`
	if pos == Append {
		seqQuery = `SELECT COALESCE(MAX(seq), 0) + 1 FROM items`
	}
	var seq int64
	if err := r.q.QueryRowContext(ctx, seqQuery).Scan(&seq); err != nil {
		return fmt.Errorf("failed to compute item position: %w", err)
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("items").
		Cols(append([]string{"seq"}, itemColumns...)...).
		Values(seq, item.ID, item.FeedID, item.FeedTitle, item.Title, item.Content, item.Link,
			formatTime(item.PubDate), item.IsOwn, item.IsPrivate)
	query, args := ib.Build()

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

func (r *itemRepository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteFeedItems removes the subscribed (non-own) items of a feed.
func (r *itemRepository) DeleteFeedItems(ctx context.Context, feedID string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE feed_id = ? AND is_own = 0`, feedID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete feed items: %w", err)
	}
	return res.RowsAffected()
}

func (r *itemRepository) ExistsByFeedTitleLink(ctx context.Context, feedID, title, link string) (bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("1").From("items").Where(
		sb.Equal("feed_id", feedID),
		sb.Equal("title", title),
		sb.Equal("link", link),
	).Limit(1)
	return r.exists(ctx, sb)
}

func (r *itemRepository) ExistsByTitlePubDate(ctx context.Context, title string, pubDate time.Time) (bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("1").From("items").Where(
		sb.Equal("title", title),
		sb.Equal("pub_date", formatTime(pubDate)),
	).Limit(1)
	return r.exists(ctx, sb)
}

func (r *itemRepository) exists(ctx context.Context, sb *sqlbuilder.SelectBuilder) (bool, error) {
	query, args := sb.Build()
	var one int
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, nil
}

func applyItemFilter(sb *sqlbuilder.SelectBuilder, filter model.ItemFilter) {
	if filter.FeedID != nil {
		sb.Where(sb.Equal("feed_id", *filter.FeedID))
	}
	if filter.IsOwn != nil {
		sb.Where(sb.Equal("is_own", *filter.IsOwn))
	}
	if filter.IsPrivate != nil {
		sb.Where(sb.Equal("is_private", *filter.IsPrivate))
	}
}

func scanItem(row rowScanner) (*model.FeedItem, error) {
	var item model.FeedItem
	var pubDate string
	err := row.Scan(&item.ID, &item.FeedID, &item.FeedTitle, &item.Title, &item.Content, &item.Link,
		&pubDate, &item.IsOwn, &item.IsPrivate)
	if err != nil {
		return nil, err
	}
	if item.PubDate, err = parseTime(pubDate); err != nil {
		return nil, err
	}
	return &item, nil
}
