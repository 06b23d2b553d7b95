package cfg

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "BASE_URL", "REFRESH_INTERVAL", "FETCH_TIMEOUT", "DB_PATH")
	t.Setenv("TZ", "UTC")

	c, err := LoadArgs([]string{})
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "./data/rss-publish.db", c.DBPath)
	assert.Equal(t, 30*time.Second, c.GetFetchTimeout())
	assert.Equal(t, time.Duration(0), c.GetRefreshInterval())
	assert.Equal(t, "http://localhost:8080", c.PublicBaseUrl())
	assert.Same(t, c, Get())
}

func TestLoadArgsOverrides(t *testing.T) {
	t.Setenv("TZ", "UTC")
	t.Setenv("PORT", "9090")

	c, err := LoadArgs([]string{
		"--base-url", "https://feeds.example.com/",
		"--refresh-interval", "600",
		"--fetch-timeout", "5",
		"--db-path", "/tmp/test.db",
	})
	require.NoError(t, err)

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "https://feeds.example.com", c.BaseUrl)
	assert.Equal(t, "https://feeds.example.com", c.PublicBaseUrl())
	assert.Equal(t, 10*time.Minute, c.GetRefreshInterval())
	assert.Equal(t, 5*time.Second, c.GetFetchTimeout())
	assert.Equal(t, "/tmp/test.db", c.DBPath)
}

func TestLoadArgsRejectsNegativeValues(t *testing.T) {
	t.Setenv("TZ", "UTC")

	_, err := LoadArgs([]string{"--fetch-timeout", "-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch timeout must be non-negative")
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}
