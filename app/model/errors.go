package model

import "errors"

var (
	ErrFetchFailed     = errors.New("failed to fetch or parse the RSS feed")
	ErrDuplicateFeed   = errors.New("this feed is already in your subscriptions")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrNoNewPosts      = errors.New("no new posts to import (all posts already exist)")
	ErrNoValidPosts    = errors.New("no valid markdown posts found")
	ErrNoPostsToExport = errors.New("no posts to export")
	ErrUnauthorized    = errors.New("unauthorized: invalid or missing token")
	ErrNotFound        = errors.New("not found")
)
