package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSubscription(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionCacheLoad(t *testing.T) {
	tempDir := t.TempDir()

	writeSubscription(t, tempDir, "news.yml", `url: "https://news.example/feed.xml"`)
	writeSubscription(t, tempDir, "blog.yml", "url: https://blog.example/rss\nenabled: true\n")
	writeSubscription(t, tempDir, "paused.yml", "url: https://paused.example/rss\nenabled: false\n")
	writeSubscription(t, tempDir, "notes.txt", "url: https://ignored.example/rss\n")

	cache := NewSubscriptionCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	if cache.GetSubscriptionCount() != 3 {
		t.Errorf("Expected 3 subscriptions, got %d", cache.GetSubscriptionCount())
	}

	enabled := cache.GetEnabledSubscriptions()
	if len(enabled) != 2 {
		t.Fatalf("Expected 2 enabled subscriptions, got %d", len(enabled))
	}
	if enabled[0].Name != "blog" || enabled[0].URL != "https://blog.example/rss" {
		t.Errorf("Unexpected first subscription: %+v", enabled[0])
	}
	if enabled[1].Name != "news" || enabled[1].URL != "https://news.example/feed.xml" {
		t.Errorf("Unexpected second subscription: %+v", enabled[1])
	}
}

func TestSubscriptionCacheMissingDirectory(t *testing.T) {
	cache := NewSubscriptionCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if cache.GetSubscriptionCount() != 0 {
		t.Errorf("Expected 0 subscriptions, got %d", cache.GetSubscriptionCount())
	}
}

func TestSubscriptionCacheInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"missing url":  "enabled: true\n",
		"relative url": "url: feed.xml\n",
		"invalid yaml": "url: [unterminated\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeSubscription(t, tempDir, "bad.yml", content)

			if err := NewSubscriptionCache(tempDir).Run(); err == nil {
				t.Error("Expected error for invalid subscription file")
			}
		})
	}
}

func TestSubscriptionCacheReload(t *testing.T) {
	tempDir := t.TempDir()
	writeSubscription(t, tempDir, "a.yml", "url: https://a.example/rss\n")

	cache := NewSubscriptionCache(tempDir)
	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	os.Remove(filepath.Join(tempDir, "a.yml"))
	writeSubscription(t, tempDir, "b.yml", "url: https://b.example/rss\n")

	if err := cache.Run(); err != nil {
		t.Fatal(err)
	}

	subs := cache.GetEnabledSubscriptions()
	if len(subs) != 1 || subs[0].Name != "b" {
		t.Errorf("Expected only subscription 'b' after reload, got %+v", subs)
	}
}
