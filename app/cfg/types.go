package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	FeedsDir        string
	Port            string
	BaseUrl         string
	RefreshInterval int
	FetchTimeout    int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

func (c *Cfg) GetFetchTimeout() time.Duration {
	if c.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

// GetRefreshInterval returns zero when periodic refresh is disabled.
func (c *Cfg) GetRefreshInterval() time.Duration {
	if c.RefreshInterval <= 0 {
		return 0
	}
	return time.Duration(c.RefreshInterval) * time.Second
}

// PublicBaseUrl is the externally visible root used in feed links.
func (c *Cfg) PublicBaseUrl() string {
	if c.BaseUrl != "" {
		return c.BaseUrl
	}
	return "http://localhost:" + c.Port
}
