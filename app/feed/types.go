package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Title       string
	Link        string
	Description string
}

type Item struct {
	Title          string
	Link           string
	Content        string
	ContentSnippet string
	PublishedAt    time.Time
}

// Subscription file types

type Subscription struct {
	Name    string // Derived from filename (without .yml extension)
	URL     string `yaml:"url"`
	Enabled *bool  `yaml:"enabled"`
}

// IsEnabled defaults to true when the file does not say otherwise.
func (s Subscription) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}
