// Package scraper fetches news article pages and extracts their body text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// maxBodyBytes bounds how much of a page is read.
const maxBodyBytes = 8 << 20

// FetchOptions configures the behavior of a Fetch call.
type FetchOptions struct {
	UserAgent  string            `yaml:"user_agent" env:"SCRAPER_USER_AGENT"`
	Timeout    time.Duration     `yaml:"timeout" env:"SCRAPER_TIMEOUT"`
	RetryCount int               `yaml:"retry_count" env:"SCRAPER_RETRY_COUNT"`
	Headers    map[string]string `yaml:"headers"`
}

// DefaultFetchOptions returns sensible defaults for fetching.
func DefaultFetchOptions() *FetchOptions {
	return &FetchOptions{
		UserAgent:  "Mozilla/5.0 (compatible; NewsQuality/1.0; +https://github.com/RobinCoderZhao/newsquality)",
		Timeout:    9 * time.Second,
		RetryCount: 2,
	}
}

// FetchResult holds the result of fetching a URL.
type FetchResult struct {
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url"`
	StatusCode int           `json:"status_code"`
	RawHTML    string        `json:"raw_html"`
	Title      string        `json:"title"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Duration   time.Duration `json:"duration"`
}

// Fetcher defines the interface for fetching web content.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts *FetchOptions) (*FetchResult, error)
}

// HTTPFetcher implements Fetcher over net/http. Response bodies are
// transcoded to UTF-8 based on the Content-Type header and <meta> tags,
// which matters for EUC-KR news sites.
type HTTPFetcher struct {
	client *http.Client
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewHTTPFetcher creates a new HTTP-based fetcher. A nil client means
// http.DefaultClient's transport with a per-request timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{client: client, logger: slog.Default(), sleep: time.Sleep}
}

// Fetch retrieves url, retrying transport errors and 5xx responses.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts *FetchOptions) (*FetchResult, error) {
	if opts == nil {
		opts = DefaultFetchOptions()
	}
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			f.sleep(time.Duration(attempt) * time.Second)
		}
		result, retry, err := f.fetchOnce(ctx, url, opts)
		if err == nil {
			result.Duration = time.Since(start)
			return result, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		f.logger.Debug("fetch retry", "url", url, "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string, opts *FetchOptions) (*FetchResult, bool, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, fmt.Errorf("detect charset: %w", err)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	rawHTML := string(raw)
	return &FetchResult{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		RawHTML:    rawHTML,
		Title:      extractTitle(rawHTML),
		FetchedAt:  time.Now(),
	}, false, nil
}

// isGoogleNewsURL reports links that point at Google News itself rather
// than the publisher.
func isGoogleNewsURL(u string) bool {
	return strings.Contains(u, "news.google.com/rss/articles") || strings.Contains(u, "news.google.com/articles")
}
