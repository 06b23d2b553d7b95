package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-publish/app/model"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidFormat):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateFeed):
		return http.StatusConflict
	case errors.Is(err, model.ErrNoNewPosts),
		errors.Is(err, model.ErrNoValidPosts),
		errors.Is(err, model.ErrNoPostsToExport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError aborts the request with the status mapped from err. Internal
// failures are logged and reported without details.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		message = "internal server error"
	} else {
		slog.Debug("Request rejected", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
