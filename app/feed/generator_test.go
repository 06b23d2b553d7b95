package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/sebdah/goldie/v2"
)

func newTestGenerator() *Generator {
	g := NewGenerator("https://blog.example/", "test")
	g.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return g
}

func sampleItems() []model.FeedItem {
	return []model.FeedItem{
		{
			ID:        "p1",
			FeedID:    model.OwnFeedID,
			Title:     `Fish & "Chips" <3 'em`,
			Content:   "<p>Hello</p>",
			PubDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IsOwn:     true,
			IsPrivate: false,
		},
		{
			ID:        "p2",
			FeedID:    model.OwnFeedID,
			Title:     "Secret",
			Content:   "<p>x ]]> y</p>",
			PubDate:   time.Date(2023, 12, 31, 13, 0, 0, 0, time.FixedZone("CET", 3600)),
			IsOwn:     true,
			IsPrivate: true,
		},
		{
			ID:      "e1",
			FeedID:  "remote",
			Title:   "External",
			Content: "<p>Not mine</p>",
			Link:    "https://remote.example/1",
			PubDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestRenderPublicGolden(t *testing.T) {
	out := newTestGenerator().RenderPublic(sampleItems())

	g := goldie.New(t)
	g.Assert(t, "public_feed", []byte(out))
}

func TestRenderPrivateGolden(t *testing.T) {
	out := newTestGenerator().RenderPrivate(sampleItems())

	g := goldie.New(t)
	g.Assert(t, "private_feed", []byte(out))
}

func TestRenderPublicExcludesPrivateAndExternalItems(t *testing.T) {
	out := newTestGenerator().RenderPublic(sampleItems())

	if strings.Count(out, "<item>") != 1 {
		t.Errorf("Expected exactly 1 item, got %d", strings.Count(out, "<item>"))
	}
	if strings.Contains(out, "Secret") {
		t.Error("Public feed should not contain private posts")
	}
	if strings.Contains(out, "External") {
		t.Error("Public feed should not contain subscribed items")
	}
}

func TestRenderWithEmptyItems(t *testing.T) {
	g := newTestGenerator()

	for name, out := range map[string]string{
		"public":  g.RenderPublic(nil),
		"private": g.RenderPrivate(nil),
	} {
		if strings.Contains(out, "<item>") {
			t.Errorf("%s: expected no items", name)
		}
		if !strings.Contains(out, "<lastBuildDate>Tue, 02 Jan 2024 03:04:05 GMT</lastBuildDate>") {
			t.Errorf("%s: expected lastBuildDate", name)
		}
		if !strings.HasSuffix(out, "</rss>\n") {
			t.Errorf("%s: expected closing rss tag", name)
		}
	}
}

func TestRenderedFeedParses(t *testing.T) {
	out := newTestGenerator().RenderPrivate(sampleItems())

	metadata, items, err := NewParser().Run([]byte(out))
	if err != nil {
		t.Fatalf("Expected rendered feed to parse, got: %v", err)
	}

	if metadata.Title != "Your Private PublishRSS Feed" {
		t.Errorf("Expected channel title, got: %s", metadata.Title)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}
	if items[0].Title != `Fish & "Chips" <3 'em` {
		t.Errorf("Expected unescaped title, got: %s", items[0].Title)
	}
	if items[1].Content != "<p>x ]]> y</p>" {
		t.Errorf("Expected CDATA content to survive, got: %s", items[1].Content)
	}
	if items[1].Link != "https://blog.example/post/p2" {
		t.Errorf("Expected permalink, got: %s", items[1].Link)
	}
}

func TestCDATA(t *testing.T) {
	tests := map[string]string{
		"":         "<![CDATA[]]>",
		"<b>x</b>": "<![CDATA[<b>x</b>]]>",
		"a]]>b":    "<![CDATA[a]]]]><![CDATA[>b]]>",
		"]]>]]>":   "<![CDATA[]]]]><![CDATA[>]]]]><![CDATA[>]]>",
	}

	for input, want := range tests {
		if got := cdata(input); got != want {
			t.Errorf("cdata(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestFeedURLs(t *testing.T) {
	g := newTestGenerator()

	if got := g.PublicFeedURL(); got != "https://blog.example/api/rss/your-feed" {
		t.Errorf("Unexpected public feed URL: %s", got)
	}
	if got := g.PrivateFeedURL("a b"); got != "https://blog.example/api/rss/private-feed?token=a+b" {
		t.Errorf("Unexpected private feed URL: %s", got)
	}
}

func TestRenderOrdersNewestFirst(t *testing.T) {
	items := []model.FeedItem{
		{ID: "old", FeedID: model.OwnFeedID, Title: "Imported archive post", PubDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), IsOwn: true},
		{ID: "new", FeedID: model.OwnFeedID, Title: "Written today", PubDate: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), IsOwn: true},
		{ID: "tie", FeedID: model.OwnFeedID, Title: "Same instant", PubDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), IsOwn: true, IsPrivate: true},
	}
	g := newTestGenerator()

	public := g.RenderPublic(items)
	if strings.Index(public, "Written today") > strings.Index(public, "Imported archive post") {
		t.Errorf("Expected newest post first in public feed:\n%s", public)
	}

	private := g.RenderPrivate(items)
	newIdx := strings.Index(private, "Written today")
	oldIdx := strings.Index(private, "Imported archive post")
	tieIdx := strings.Index(private, "Same instant")
	if newIdx > oldIdx || oldIdx > tieIdx {
		t.Errorf("Expected newest first and store order for equal dates:\n%s", private)
	}

	if items[0].ID != "old" {
		t.Error("Rendering should not reorder the caller's slice")
	}
}
