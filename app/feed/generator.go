package feed

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/lysyi3m/rss-publish/app/model"
)

const (
	publicTitle        = "Your PublishRSS Feed"
	publicDescription  = "Your personal RSS feed"
	privateTitle       = "Your Private PublishRSS Feed"
	privateDescription = "Your private personal RSS feed"
	privateSuffix      = " (Private)"

	PublicFeedPath  = "/api/rss/your-feed"
	PrivateFeedPath = "/api/rss/private-feed"
)

// rfc1123GMT matches the HTTP date format used by browsers' toUTCString.
const rfc1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

type Generator struct {
	baseURL string
	version string
	now     func() time.Time
}

func NewGenerator(baseURL, version string) *Generator {
	return &Generator{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: version,
		now:     time.Now,
	}
}

type channel struct {
	title       string
	description string
	selfLink    string
}

// RenderPublic renders own, non-private items, newest first.
func (g *Generator) RenderPublic(items []model.FeedItem) string {
	var public []model.FeedItem
	for _, item := range items {
		if item.IsOwn && !item.IsPrivate {
			public = append(public, item)
		}
	}

	sortNewestFirst(public)

	return g.render(channel{
		title:       publicTitle,
		description: publicDescription,
		selfLink:    g.baseURL + PublicFeedPath,
	}, public, false)
}

// RenderPrivate renders every own item, newest first. Private ones are marked
// in their title.
func (g *Generator) RenderPrivate(items []model.FeedItem) string {
	var own []model.FeedItem
	for _, item := range items {
		if item.IsOwn {
			own = append(own, item)
		}
	}

	sortNewestFirst(own)

	return g.render(channel{
		title:       privateTitle,
		description: privateDescription,
	}, own, true)
}

func (g *Generator) PublicFeedURL() string {
	return g.baseURL + PublicFeedPath
}

// PrivateFeedURL embeds token so the link can be pasted into a feed reader.
func (g *Generator) PrivateFeedURL(token string) string {
	return g.baseURL + PrivateFeedPath + "?token=" + url.QueryEscape(token)
}

// PostLink is the permalink published for an item.
func (g *Generator) PostLink(id string) string {
	return g.baseURL + "/post/" + id
}

func (g *Generator) render(ch channel, items []model.FeedItem, markPrivate bool) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", ch.title, 4)
	g.writeElement(&buf, "link", g.baseURL, 4)
	g.writeElement(&buf, "description", ch.description, 4)

	if ch.selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.selfLink)))
	}

	g.writeElement(&buf, "lastBuildDate", formatDate(g.now()), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("RSS-Publish/%s", g.version), 4)

	for _, item := range items {
		g.writeItem(&buf, item, markPrivate)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, item model.FeedItem, markPrivate bool) {
	buf.WriteString("    <item>\n")

	title := item.Title
	if markPrivate && item.IsPrivate {
		title += privateSuffix
	}
	g.writeElement(buf, "title", title, 6)
	g.writeElement(buf, "link", g.PostLink(item.ID), 6)

	buf.WriteString("      <guid isPermaLink=\"false\">")
	buf.WriteString(escapeXML(item.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "pubDate", formatDate(item.PubDate), 6)

	buf.WriteString("      <content:encoded>")
	buf.WriteString(cdata(item.Content))
	buf.WriteString("</content:encoded>\n")

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	buf.WriteString(escapeXML(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// sortNewestFirst orders items by publication date. Items published at the
// same instant keep their store order.
func sortNewestFirst(items []model.FeedItem) {
	slices.SortStableFunc(items, func(a, b model.FeedItem) int {
		return b.PubDate.Compare(a.PubDate)
	})
}

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// cdata wraps s in a CDATA section, splitting any "]]>" it contains.
func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

func formatDate(t time.Time) string {
	return t.UTC().Format(rfc1123GMT)
}
