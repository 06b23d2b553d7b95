package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestInitSeedsOwnFeedAndToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	own, err := store.Feeds.GetFeed(ctx, model.OwnFeedID)
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, model.OwnFeedURL, own.URL)
	assert.True(t, own.IsOwn())

	token, err := store.PrivateToken(ctx)
	require.NoError(t, err)
	assert.Len(t, token, 32)

	// Init is idempotent and never rotates the token
	require.NoError(t, store.Init(ctx))
	again, err := store.PrivateToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	count, err := store.Feeds.GetFeedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegeneratePrivateToken(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	before, err := store.PrivateToken(ctx)
	require.NoError(t, err)

	after, err := store.RegeneratePrivateToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	stored, err := store.PrivateToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, after, stored)
}

func TestCreateFeedRejectsDuplicateURL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	feed := &model.Feed{Title: "A", URL: "https://a.example/feed.xml"}
	require.NoError(t, store.Feeds.CreateFeed(ctx, feed))
	assert.NotEmpty(t, feed.ID)

	err := store.Feeds.CreateFeed(ctx, &model.Feed{Title: "Again", URL: "https://a.example/feed.xml"})
	assert.True(t, errors.Is(err, model.ErrDuplicateFeed))

	found, err := store.Feeds.GetFeedByURL(ctx, "https://a.example/feed.xml")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "A", found.Title)
}

func TestUpdateFetchStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	feed := &model.Feed{Title: "A", URL: "https://a.example/feed.xml"}
	require.NoError(t, store.Feeds.CreateFeed(ctx, feed))

	fetchedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Feeds.UpdateFetchStatus(ctx, feed.ID, fetchedAt, "boom"))

	got, err := store.Feeds.GetFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastFetchedAt)
	assert.True(t, fetchedAt.Equal(*got.LastFetchedAt))
	assert.Equal(t, "boom", got.LastError)
}

func TestInsertItemPositions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	pub := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := &model.FeedItem{FeedID: "f", Title: "first", PubDate: pub}
	prepended := &model.FeedItem{FeedID: "f", Title: "prepended", PubDate: pub}
	appended := &model.FeedItem{FeedID: "f", Title: "appended", PubDate: pub}

	require.NoError(t, store.Items.InsertItem(ctx, first, Prepend))
	require.NoError(t, store.Items.InsertItem(ctx, prepended, Prepend))
	require.NoError(t, store.Items.InsertItem(ctx, appended, Append))

	items, err := store.Items.GetItems(ctx, model.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "prepended", items[0].Title)
	assert.Equal(t, "first", items[1].Title)
	assert.Equal(t, "appended", items[2].Title)
}

func TestInsertItemNormalizesPrivacy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	item := &model.FeedItem{FeedID: "f", Title: "external", IsOwn: false, IsPrivate: true, PubDate: time.Now()}
	require.NoError(t, store.Items.InsertItem(ctx, item, Prepend))

	got, err := store.Items.GetItem(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsPrivate)
}

func TestItemFiltersAndDuplicateQueries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	pub := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	items := []*model.FeedItem{
		{FeedID: "f1", Title: "Hello", Link: "https://a.example/1", PubDate: pub},
		{FeedID: model.OwnFeedID, Title: "Mine", PubDate: pub, IsOwn: true},
		{FeedID: model.OwnFeedID, Title: "Secret", PubDate: pub, IsOwn: true, IsPrivate: true},
	}
	for _, item := range items {
		require.NoError(t, store.Items.InsertItem(ctx, item, Prepend))
	}

	own := true
	got, err := store.Items.GetItems(ctx, model.ItemFilter{IsOwn: &own})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	private := true
	count, err := store.Items.GetItemCount(ctx, model.ItemFilter{IsOwn: &own, IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	exists, err := store.Items.ExistsByFeedTitleLink(ctx, "f1", "Hello", "https://a.example/1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Items.ExistsByFeedTitleLink(ctx, "f2", "Hello", "https://a.example/1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Same instant expressed in UTC
	exists, err = store.Items.ExistsByTitlePubDate(ctx, "Mine", pub.UTC())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Items.ExistsByTitlePubDate(ctx, "Mine", pub.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteFeedItemsKeepsOwnItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	pub := time.Now()
	require.NoError(t, store.Items.InsertItem(ctx, &model.FeedItem{FeedID: "f1", Title: "a", PubDate: pub}, Prepend))
	require.NoError(t, store.Items.InsertItem(ctx, &model.FeedItem{FeedID: "f1", Title: "b", PubDate: pub, IsOwn: true}, Prepend))

	n, err := store.Items.DeleteFeedItems(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := store.Items.GetItemCount(ctx, model.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteMissingItem(t *testing.T) {
	store := newTestStore(t)
	err := store.Items.DeleteItem(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx *Store) error {
		if err := tx.Feeds.CreateFeed(ctx, &model.Feed{Title: "A", URL: "https://a.example/feed.xml"}); err != nil {
			return err
		}
		if err := tx.Items.InsertItem(ctx, &model.FeedItem{FeedID: "x", Title: "t", PubDate: time.Now()}, Prepend); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	feed, err := store.Feeds.GetFeedByURL(ctx, "https://a.example/feed.xml")
	require.NoError(t, err)
	assert.Nil(t, feed)

	count, err := store.Items.GetItemCount(ctx, model.ItemFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
