package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MinContentRunes is the shortest body accepted from any extractor.
	MinContentRunes = 200
	// MaxContentRunes caps extracted bodies.
	MaxContentRunes = 20000

	genericMinRunes = 250
)

// ErrTooShort is returned when an extractor finds a body below its minimum
// length.
var ErrTooShort = errors.New("extracted content too short")

// Extractor pulls article text out of a parsed page.
type Extractor interface {
	Name() string
	Supports(url string) bool
	Extract(doc *goquery.Document) (string, error)
}

// NaverExtractor reads the body container of Naver news pages.
type NaverExtractor struct{}

func (NaverExtractor) Name() string { return "naver" }

func (NaverExtractor) Supports(url string) bool {
	return strings.Contains(url, "n.news.naver.com")
}

func (NaverExtractor) Extract(doc *goquery.Document) (string, error) {
	body := doc.Find("#dic_area").First()
	if body.Length() == 0 {
		return "", fmt.Errorf("naver: #dic_area not found")
	}
	text := Normalize(nodeText(body.Nodes[0]))
	if utf8.RuneCountInString(text) < MinContentRunes {
		return "", ErrTooShort
	}
	return capRunes(text, MaxContentRunes), nil
}

// GenericExtractor picks the densest content block of any page: the
// article, main, section or div whose text scores highest on length,
// sentence count and share of Hangul.
type GenericExtractor struct{}

func (GenericExtractor) Name() string { return "generic" }

func (GenericExtractor) Supports(string) bool { return true }

func (GenericExtractor) Extract(doc *goquery.Document) (string, error) {
	doc.Find("script, style, nav, footer, header, aside, iframe, form, noscript").Remove()

	var (
		best      string
		bestScore float64
	)
	doc.Find("article, main, section, div").Each(func(_ int, s *goquery.Selection) {
		text := Normalize(nodeText(s.Nodes[0]))
		if utf8.RuneCountInString(text) < genericMinRunes {
			return
		}
		if score := blockScore(text); score > bestScore {
			best, bestScore = text, score
		}
	})

	if best == "" {
		return "", ErrTooShort
	}
	return capRunes(best, MaxContentRunes), nil
}

var sentenceBreak = regexp.MustCompile(`[.!?…]|\n`)

func blockScore(text string) float64 {
	return float64(utf8.RuneCountInString(text)) +
		float64(sentenceCount(text))*80 +
		hangulRatio(text)*600
}

// sentenceCount counts the pieces between sentence marks, ignoring empty
// trailing pieces.
func sentenceCount(text string) int {
	parts := sentenceBreak.Split(text, -1)
	n := len(parts)
	for n > 0 && parts[n-1] == "" {
		n--
	}
	return n
}

func hangulRatio(text string) float64 {
	var ko, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0xAC00 && r <= 0xD7A3 {
			ko++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ko) / float64(total)
}

// ExtractResult describes the outcome of Registry.Extract.
type ExtractResult struct {
	OK        bool   `json:"ok"`
	URL       string `json:"url"`
	Extractor string `json:"extractor"`
	Content   string `json:"content,omitempty"`
	Title     string `json:"title,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Registry fetches a page once and runs the site-specific extractors that
// support its final URL, falling back to the generic extractor.
type Registry struct {
	fetcher    Fetcher
	opts       *FetchOptions
	extractors []Extractor
	fallback   Extractor
	logger     *slog.Logger
}

// NewRegistry creates a registry with the Naver extractor and the generic
// fallback.
func NewRegistry(fetcher Fetcher, opts *FetchOptions) *Registry {
	if opts == nil {
		opts = DefaultFetchOptions()
	}
	return &Registry{
		fetcher:    fetcher,
		opts:       opts,
		extractors: []Extractor{NaverExtractor{}},
		fallback:   GenericExtractor{},
		logger:     slog.Default(),
	}
}

// Register adds a site-specific extractor ahead of the fallback.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Extract fetches url and returns its article body. Failures are reported
// in the result rather than as an error so callers can keep going.
func (r *Registry) Extract(ctx context.Context, url string) ExtractResult {
	if strings.TrimSpace(url) == "" {
		return ExtractResult{Extractor: "none", Error: "NO_URL"}
	}

	page, err := r.fetcher.Fetch(ctx, url, r.opts)
	if err != nil {
		return ExtractResult{URL: url, Extractor: "none", Error: err.Error()}
	}
	final := page.FinalURL
	if final == "" {
		final = url
	}
	if isGoogleNewsURL(final) {
		r.logger.Debug("skip google news link", "url", final)
		return ExtractResult{URL: final, Extractor: "google-skip", Error: "GOOGLE_SKIP"}
	}

	for _, ex := range r.extractors {
		if !ex.Supports(final) {
			continue
		}
		content, err := r.run(ex, page.RawHTML)
		if err == nil {
			return ExtractResult{OK: true, URL: final, Extractor: ex.Name(), Content: content, Title: page.Title}
		}
		r.logger.Debug("extractor failed", "extractor", ex.Name(), "url", final, "error", err)
	}

	content, err := r.run(r.fallback, page.RawHTML)
	if err != nil {
		return ExtractResult{URL: final, Extractor: r.fallback.Name(), Error: err.Error()}
	}
	return ExtractResult{OK: true, URL: final, Extractor: r.fallback.Name(), Content: content, Title: page.Title}
}

func (r *Registry) run(ex Extractor, rawHTML string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	content, err := ex.Extract(doc)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(content) < MinContentRunes {
		return "", ErrTooShort
	}
	return content, nil
}
