package feed

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lysyi3m/rss-publish/app/model"
)

// maxFeedSize bounds the response body read from a remote feed.
const maxFeedSize = 20 << 20

type Fetcher struct {
	httpClient *http.Client
	parser     *Parser
	userAgent  string
	timeout    time.Duration
}

func NewFetcher(httpClient *http.Client, parser *Parser, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		parser:     parser,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch downloads and normalizes the feed at rawURL. Malformed URLs fail with
// model.ErrInvalidFormat; everything else that goes wrong fails with
// model.ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Metadata, []Item, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, nil, err
	}

	data, err := f.fetchFeed(ctx, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}

	metadata, items, err := f.parser.Run(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrFetchFailed, err)
	}
	metadata.Link = cmp.Or(metadata.Link, rawURL)

	return metadata, items, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: feed URL must be an absolute http(s) URL", model.ErrInvalidFormat)
	}
	return nil
}
