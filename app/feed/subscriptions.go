package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SubscriptionCache holds the feeds declared as *.yml files in a directory.
type SubscriptionCache struct {
	feedsDir string
	cache    map[string]*Subscription
	mu       sync.RWMutex
}

func NewSubscriptionCache(feedsDir string) *SubscriptionCache {
	return &SubscriptionCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Subscription),
	}
}

// Run (re)loads every *.yml file. A missing directory is not an error.
func (sc *SubscriptionCache) Run() error {
	if sc.feedsDir == "" {
		return nil
	}
	if _, err := os.Stat(sc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	loaded := make(map[string]*Subscription, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		sub, err := sc.parseSubscription(file)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
		sub.Name = name

		if err := ValidateURL(sub.URL); err != nil {
			return fmt.Errorf("invalid subscription %s: %w", file, err)
		}

		loaded[name] = sub
		slog.Debug("Subscription loaded", "feed", name, "url", sub.URL, "enabled", sub.IsEnabled())
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache = loaded

	return nil
}

// GetEnabledSubscriptions returns enabled subscriptions sorted by name.
func (sc *SubscriptionCache) GetEnabledSubscriptions() []Subscription {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	subs := make([]Subscription, 0, len(sc.cache))
	for _, sub := range sc.cache {
		if sub.IsEnabled() {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs
}

func (sc *SubscriptionCache) GetSubscriptionCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SubscriptionCache) parseSubscription(file string) (*Subscription, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sub Subscription
	if err := yaml.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	sub.URL = strings.TrimSpace(sub.URL)

	return &sub, nil
}
