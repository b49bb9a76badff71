// Package sources collects candidate news articles from RSS and Atom feeds.
package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Article represents a single news article.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Feed        string    `json:"feed"`
	Publisher   string    `json:"publisher,omitempty"`
	Category    string    `json:"category,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Content     string    `json:"content,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// SourceName is the name used for cross-source counting: the publisher when
// known, otherwise the feed.
func (a Article) SourceName() string {
	if a.Publisher != "" {
		return a.Publisher
	}
	return a.Feed
}

// articleID derives a stable id from the link, or from title and
// publication time when the link is missing.
func articleID(link, title string, published time.Time) string {
	key := link
	if key == "" {
		key = title + "|" + published.UTC().Format(time.RFC3339)
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Source is the interface that all news data sources must implement.
type Source interface {
	// Name returns the human-readable name of the source.
	Name() string

	// Fetch retrieves articles from this source.
	Fetch(ctx context.Context) ([]Article, error)
}

// Registry holds all registered data sources.
type Registry struct {
	sources []Source
	logger  *slog.Logger
}

// NewRegistry creates a new source registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Len reports how many sources are registered.
func (r *Registry) Len() int { return len(r.sources) }

// FetchAll fetches every source concurrently. Failing sources are logged
// and skipped; results keep registration order and are de-duplicated by
// article id.
func (r *Registry) FetchAll(ctx context.Context) []Article {
	results := make([][]Article, len(r.sources))

	var wg sync.WaitGroup
	for i, s := range r.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			articles, err := s.Fetch(ctx)
			if err != nil {
				r.logger.Warn("source fetch failed", "source", s.Name(), "error", err)
				return
			}
			r.logger.Debug("source fetched", "source", s.Name(), "articles", len(articles))
			results[i] = articles
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	var all []Article
	for _, articles := range results {
		for _, a := range articles {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			all = append(all, a)
		}
	}
	return all
}
