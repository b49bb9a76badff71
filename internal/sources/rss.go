package sources

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/RobinCoderZhao/newsquality/pkg/scraper"
)

// minSummaryRunes is the shortest feed description kept as a summary;
// anything shorter is replaced by the title.
const minSummaryRunes = 10

// FeedConfig describes one configured feed.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Limit    int    `yaml:"limit"`
}

// RSSSource fetches articles from any RSS or Atom feed.
type RSSSource struct {
	cfg    FeedConfig
	parser *gofeed.Parser
	now    func() time.Time
}

// NewRSSSource creates a source for cfg. A nil client uses a 15s timeout.
func NewRSSSource(cfg FeedConfig, client *http.Client) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	fp := gofeed.NewParser()
	fp.Client = client
	fp.UserAgent = "Mozilla/5.0 (compatible; NewsQuality/1.0)"
	return &RSSSource{cfg: cfg, parser: fp, now: time.Now}
}

func (r *RSSSource) Name() string { return r.cfg.Name }

func (r *RSSSource) Fetch(ctx context.Context) ([]Article, error) {
	feed, err := r.parser.ParseURLWithContext(r.cfg.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", r.cfg.Name, err)
	}

	fetched := r.now()
	googleFeed := isGoogleNewsFeed(r.cfg.URL)
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if r.cfg.Limit > 0 && len(articles) >= r.cfg.Limit {
			break
		}
		articles = append(articles, r.convert(item, googleFeed, fetched))
	}
	return articles, nil
}

func (r *RSSSource) convert(item *gofeed.Item, googleFeed bool, fetched time.Time) Article {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)

	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	}

	summary := scraper.Normalize(scraper.ExtractText(item.Description))
	if utf8.RuneCountInString(summary) < minSummaryRunes {
		summary = title
	}

	var publisher string
	if googleFeed {
		title, publisher = splitPublisher(title)
	}

	var content string
	if item.Content != "" {
		content = scraper.Normalize(scraper.ExtractText(item.Content))
	}

	return Article{
		ID:          articleID(link, title, published),
		Title:       title,
		URL:         link,
		Feed:        r.cfg.Name,
		Publisher:   publisher,
		Category:    r.cfg.Category,
		Summary:     summary,
		Content:     content,
		PublishedAt: published,
		FetchedAt:   fetched,
	}
}

// splitPublisher separates the " - 언론사" suffix Google News appends to
// headlines.
func splitPublisher(title string) (string, string) {
	i := strings.LastIndex(title, " - ")
	if i <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
}

func isGoogleNewsFeed(feedURL string) bool {
	u, err := url.Parse(feedURL)
	return err == nil && u.Host == "news.google.com"
}

var categoryKeywords = map[string]string{
	"politics": "정치",
	"economy":  "경제",
	"society":  "사회",
	"culture":  "생활문화",
	"world":    "국제",
	"it":       "IT과학",
}

// GoogleNewsFeed returns the Korean Google News search feed for a
// category. Unknown categories search for general news.
func GoogleNewsFeed(category string) FeedConfig {
	category = strings.ToLower(strings.TrimSpace(category))
	keyword, ok := categoryKeywords[category]
	if !ok {
		keyword = "뉴스"
	}
	return FeedConfig{
		Name:     "google-news-" + cmp.Or(category, "all"),
		URL:      "https://news.google.com/rss/search?q=" + url.QueryEscape(keyword) + "&hl=ko&gl=KR&ceid=KR%3Ako",
		Category: category,
	}
}
