package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, version string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, version)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, version string) {
	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	{
		rss := api.Group("/rss")
		rss.POST("/fetch", handler.FetchFeed)
		rss.GET("/your-feed", handler.GetPublicFeed)
		rss.GET("/private-feed", handler.GetPrivateFeed)

		api.GET("/feeds", handler.ListFeeds)
		api.POST("/feeds", handler.Subscribe)
		api.POST("/feeds/refresh", handler.RefreshFeeds)
		api.DELETE("/feeds/:id", handler.DeleteFeed)

		api.GET("/items", handler.ListItems)
		api.POST("/posts", handler.CreatePost)
		api.DELETE("/posts/:id", handler.DeletePost)

		api.GET("/feed-urls", handler.GetFeedURLs)
		api.POST("/feed-urls/private/regenerate", handler.RegeneratePrivateToken)

		imports := api.Group("/import")
		imports.POST("/feeds", handler.ImportFeeds)
		imports.POST("/posts", handler.ImportPosts)
		imports.POST("/markdown", handler.ImportMarkdown)
		imports.POST("/archive", handler.ImportArchive)

		exports := api.Group("/export")
		exports.GET("/feeds", handler.ExportFeeds)
		exports.GET("/posts", handler.ExportPosts)
		exports.GET("/markdown", handler.ExportMarkdown)
		exports.GET("/markdown.zip", handler.ExportMarkdownArchive)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "RSS Publish",
			"version":     version,
			"description": "RSS reader and publisher with public and private feeds",
			"endpoints": map[string]string{
				"public_feed":  "/api/rss/your-feed",
				"private_feed": "/api/rss/private-feed?token=<token>",
				"feed_urls":    "/api/feed-urls",
				"health":       "/health",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
