package api

import (
	"crypto/subtle"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-publish/app/database"
	"github.com/lysyi3m/rss-publish/app/export"
	"github.com/lysyi3m/rss-publish/app/feed"
	"github.com/lysyi3m/rss-publish/app/markdown"
	"github.com/lysyi3m/rss-publish/app/model"
	"github.com/lysyi3m/rss-publish/app/reconcile"
	"github.com/samber/lo"
)

const maxUploadSize = 32 << 20

func NewHandler(store *database.Store, engine *reconcile.Engine, exporter *export.Exporter,
	generator GeneratorInterface, fetcher reconcile.Fetcher) *Handler {
	return &Handler{
		store:     store,
		engine:    engine,
		exporter:  exporter,
		generator: generator,
		fetcher:   fetcher,
		now:       time.Now,
	}
}

// FetchFeed previews a remote feed without subscribing to it.
func (h *Handler) FetchFeed(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: url is required", model.ErrInvalidFormat))
		return
	}

	metadata, items, err := h.fetcher.Fetch(c.Request.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, fetchResponse{
		Title:       metadata.Title,
		Description: metadata.Description,
		Link:        metadata.Link,
		Items: lo.Map(items, func(item feed.Item, _ int) fetchedItem {
			return fetchedItem{
				Title:          item.Title,
				Content:        item.Content,
				ContentSnippet: item.ContentSnippet,
				Link:           item.Link,
				PubDate:        markdown.FormatISO(item.PublishedAt),
			}
		}),
	})
}

func (h *Handler) GetPublicFeed(c *gin.Context) {
	items, err := h.ownItems(c)
	if err != nil {
		respondError(c, err)
		return
	}

	writeRSS(c, h.generator.RenderPublic(items))
}

// GetPrivateFeed serves every authored post to holders of the private token.
func (h *Handler) GetPrivateFeed(c *gin.Context) {
	token, err := h.store.PrivateToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	provided := c.Query("token")
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
		respondError(c, model.ErrUnauthorized)
		return
	}

	items, err := h.ownItems(c)
	if err != nil {
		respondError(c, err)
		return
	}

	writeRSS(c, h.generator.RenderPrivate(items))
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.store.Feeds.GetFeeds(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": nonNil(feeds),
		"total": len(feeds),
	})
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: url is required", model.ErrInvalidFormat))
		return
	}

	f, added, err := h.engine.Subscribe(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"feed":  f,
		"added": added,
	})
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	removed, err := h.engine.DeleteFeed(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"removed": removed,
	})
}

func (h *Handler) RefreshFeeds(c *gin.Context) {
	added, err := h.engine.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added})
}

// ListItems returns items in store order, optionally filtered by the own and
// private query flags.
func (h *Handler) ListItems(c *gin.Context) {
	var filter model.ItemFilter
	var err error

	if filter.IsOwn, err = optionalBool(c, "own"); err != nil {
		respondError(c, err)
		return
	}
	if filter.IsPrivate, err = optionalBool(c, "private"); err != nil {
		respondError(c, err)
		return
	}

	items, err := h.store.Items.GetItems(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": nonNil(items),
		"total": len(items),
	})
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: post content is required", model.ErrInvalidFormat))
		return
	}

	post, err := h.engine.CreatePost(c.Request.Context(), req.Content, req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.engine.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) GetFeedURLs(c *gin.Context) {
	token, err := h.store.PrivateToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedURLsResponse{
		PublicURL:  h.generator.PublicFeedURL(),
		PrivateURL: h.generator.PrivateFeedURL(token),
	})
}

// RegeneratePrivateToken rotates the private token. Links built from the old
// token stop working immediately.
func (h *Handler) RegeneratePrivateToken(c *gin.Context) {
	token, err := h.store.RegeneratePrivateToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedURLsResponse{
		PublicURL:  h.generator.PublicFeedURL(),
		PrivateURL: h.generator.PrivateFeedURL(token),
	})
}

func (h *Handler) ImportFeeds(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.engine.ImportFeeds(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ImportPosts(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}

	imported, err := h.engine.ImportPosts(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// ImportMarkdown imports the files uploaded in the "files" form field.
func (h *Handler) ImportMarkdown(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, fmt.Errorf("%w: expected a multipart upload: %v", model.ErrInvalidFormat, err))
		return
	}

	files := make([]markdown.File, 0, len(form.File["files"]))
	for _, header := range form.File["files"] {
		content, err := readUpload(header)
		if err != nil {
			respondError(c, err)
			return
		}
		files = append(files, markdown.File{Name: header.Filename, Content: content})
	}

	imported, err := h.engine.ImportMarkdownFiles(c.Request.Context(), files)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

// ImportArchive accepts a zip either as the raw request body or as the
// "file" field of a multipart upload.
func (h *Handler) ImportArchive(c *gin.Context) {
	var data []byte
	var err error

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var header *multipart.FileHeader
		header, err = c.FormFile("file")
		if err != nil {
			respondError(c, fmt.Errorf("%w: missing archive file: %v", model.ErrInvalidFormat, err))
			return
		}
		data, err = readUpload(header)
	} else {
		data, err = readBody(c)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	imported, err := h.engine.ImportMarkdownArchive(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": imported})
}

func (h *Handler) ExportFeeds(c *gin.Context) {
	doc, err := h.exporter.FeedsJSON(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

func (h *Handler) ExportPosts(c *gin.Context) {
	doc, err := h.exporter.PostsJSON(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

// ExportMarkdown downloads the latest post. Private posts are included and
// frontmatter is written unless includePrivate=false or frontmatter=false.
func (h *Handler) ExportMarkdown(c *gin.Context) {
	includePrivate, includeFrontmatter, err := markdownExportOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.exporter.LatestMarkdown(c.Request.Context(), includePrivate, includeFrontmatter)
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

func (h *Handler) ExportMarkdownArchive(c *gin.Context) {
	includePrivate, includeFrontmatter, err := markdownExportOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	doc, err := h.exporter.MarkdownArchive(c.Request.Context(), includePrivate, includeFrontmatter, h.now())
	if err != nil {
		respondError(c, err)
		return
	}

	sendDocument(c, doc)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": h.now().In(time.Local).Format(time.RFC3339),
	}

	ctx := c.Request.Context()

	if feedCount, err := h.store.Feeds.GetFeedCount(ctx); err == nil {
		health["feeds"] = feedCount
	}

	own := true
	if postCount, err := h.store.Items.GetItemCount(ctx, model.ItemFilter{IsOwn: &own}); err == nil {
		health["posts"] = postCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ownItems(c *gin.Context) ([]model.FeedItem, error) {
	own := true
	return h.store.Items.GetItems(c.Request.Context(), model.ItemFilter{IsOwn: &own})
}

func writeRSS(c *gin.Context, rss string) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func sendDocument(c *gin.Context, doc *export.Document) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}

func readBody(c *gin.Context) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read request body: %v", model.ErrInvalidFormat, err)
	}
	return data, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	if header.Size > maxUploadSize {
		return nil, fmt.Errorf("%w: %s is too large", model.ErrInvalidFormat, header.Filename)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", model.ErrInvalidFormat, header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", model.ErrInvalidFormat, header.Filename, err)
	}
	return data, nil
}

func markdownExportOptions(c *gin.Context) (includePrivate, includeFrontmatter bool, err error) {
	private, err := optionalBool(c, "includePrivate")
	if err != nil {
		return false, false, err
	}
	frontmatter, err := optionalBool(c, "frontmatter")
	if err != nil {
		return false, false, err
	}
	return lo.FromPtrOr(private, true), lo.FromPtrOr(frontmatter, true), nil
}

// optionalBool parses a boolean query parameter. An absent parameter is nil.
func optionalBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", model.ErrInvalidFormat, name)
	}
	return &value, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
