// Package pipeline runs the end-to-end quality check: collect articles,
// fill in bodies and summaries, count corroborating sources, score, store
// and alert.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/sources"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/internal/summarizer"
	"github.com/RobinCoderZhao/newsquality/pkg/notify"
	"github.com/RobinCoderZhao/newsquality/pkg/scraper"
)

// Options tunes a pipeline run.
type Options struct {
	ClusterThreshold float64 `yaml:"cluster_threshold"`
	MaxArticles      int     `yaml:"max_articles"`
	Concurrency      int     `yaml:"concurrency"`
	// Summarize asks the LLM for a summary even when the feed supplied one.
	Summarize bool `yaml:"summarize"`
}

// ArticleSource yields the candidate articles for a run.
type ArticleSource interface {
	FetchAll(ctx context.Context) []sources.Article
}

// BodyExtractor fetches article bodies.
type BodyExtractor interface {
	Extract(ctx context.Context, url string) scraper.ExtractResult
}

// Summarizer writes article summaries.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (*summarizer.Summary, error)
}

// RunStore persists a finished run.
type RunStore interface {
	SaveRun(ctx context.Context, source string, recs []store.Record) (store.Run, error)
}

// Alerter delivers alerts.
type Alerter interface {
	SendAll(ctx context.Context, msg notify.Message) error
}

// Item is one scored article.
type Item struct {
	Article sources.Article `json:"article"`
	Scored  quality.Scored  `json:"-"`
	Output  quality.Output  `json:"result"`
}

// Run summarises one pipeline execution.
type Run struct {
	ID          string                `json:"id,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	Duration    time.Duration         `json:"duration"`
	Fetched     int                   `json:"fetched"`
	Items       []Item                `json:"items"`
	BadgeCounts map[quality.Badge]int `json:"badge_counts"`
	LLMCost     float64               `json:"llm_cost"`
}

// Pipeline wires the stages together. Only Source is required; a nil
// extractor, summarizer, store or alerter skips that stage.
type Pipeline struct {
	Source     ArticleSource
	Extractor  BodyExtractor
	Summarizer Summarizer
	Store      RunStore
	Alerter    Alerter
	Options    Options
	Logger     *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run executes one pass of the pipeline.
func (p *Pipeline) Run(ctx context.Context) (*Run, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("pipeline: no article source")
	}
	log := p.logger()
	run := &Run{StartedAt: time.Now(), BadgeCounts: make(map[quality.Badge]int)}

	articles := p.Source.FetchAll(ctx)
	run.Fetched = len(articles)
	if limit := p.Options.MaxArticles; limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	log.Info("articles collected", "fetched", run.Fetched, "kept", len(articles))

	p.fillBodies(ctx, articles)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := articles[:0]
	for _, a := range articles {
		if strings.TrimSpace(a.Content) == "" && strings.TrimSpace(a.Summary) == "" {
			log.Debug("skip article without text", "url", a.URL)
			continue
		}
		kept = append(kept, a)
	}
	articles = kept

	summaries, cost := p.summaries(ctx, articles)
	run.LLMCost = cost

	threshold := p.Options.ClusterThreshold
	if threshold <= 0 {
		threshold = DefaultClusterThreshold
	}
	cross := CrossSourceCounts(articles, threshold)

	recs := make([]store.Record, 0, len(articles))
	for i, a := range articles {
		item := quality.NewsItem{
			ID:               a.ID,
			Title:            a.Title,
			Summary:          summaries[i],
			Content:          a.Content,
			CrossSourceCount: cross[i],
		}
		scored := quality.Scored{Item: item, Result: quality.Evaluate(item)}
		run.Items = append(run.Items, Item{
			Article: a,
			Scored:  scored,
			Output:  scored.Output(quality.Options{}),
		})
		run.BadgeCounts[scored.Result.Badge]++
		recs = append(recs, store.NewRecord(scored, a.URL, a.SourceName()))
	}

	if p.Store != nil && len(recs) > 0 {
		saved, err := p.Store.SaveRun(ctx, "pipeline", recs)
		if err != nil {
			return nil, fmt.Errorf("store run: %w", err)
		}
		run.ID = saved.ID
	}

	run.Duration = time.Since(run.StartedAt)
	log.Info("pipeline run completed",
		"run_id", run.ID,
		"items", len(run.Items),
		"good", run.BadgeCounts[quality.BadgeGood],
		"warning", run.BadgeCounts[quality.BadgeWarning],
		"bad", run.BadgeCounts[quality.BadgeBad],
		"duration", run.Duration,
	)

	if err := p.alert(ctx, run); err != nil {
		log.Warn("alert delivery failed", "error", err)
	}
	return run, nil
}

// fillBodies fetches missing article bodies with bounded concurrency.
func (p *Pipeline) fillBodies(ctx context.Context, articles []sources.Article) {
	if p.Extractor == nil {
		return
	}
	workers := p.Options.Concurrency
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range articles {
		if articles[i].Content != "" || articles[i].URL == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			res := p.Extractor.Extract(ctx, articles[i].URL)
			if !res.OK {
				p.logger().Debug("body extraction failed", "url", articles[i].URL, "extractor", res.Extractor, "error", res.Error)
				return
			}
			articles[i].Content = res.Content
		}()
	}
	wg.Wait()
}

// summaries returns the summary to verify for each article: a generated
// one when the summarizer is enabled and succeeds, else the feed's own.
func (p *Pipeline) summaries(ctx context.Context, articles []sources.Article) ([]string, float64) {
	out := make([]string, len(articles))
	var cost float64
	for i, a := range articles {
		out[i] = a.Summary
		if p.Summarizer == nil || a.Content == "" {
			continue
		}
		if !p.Options.Summarize && a.Summary != "" && a.Summary != a.Title {
			continue
		}
		sum, err := p.Summarizer.Summarize(ctx, a.Title, a.Content)
		if err != nil {
			p.logger().Warn("summarize failed", "title", a.Title, "error", err)
			continue
		}
		out[i] = sum.Text
		cost += sum.Cost
	}
	return out, cost
}

func (p *Pipeline) alert(ctx context.Context, run *Run) error {
	if p.Alerter == nil || run.BadgeCounts[quality.BadgeBad] == 0 {
		return nil
	}
	var sb strings.Builder
	for _, it := range run.Items {
		if it.Scored.Result.Badge != quality.BadgeBad {
			continue
		}
		fmt.Fprintf(&sb, "%s %d %s", it.Scored.Result.Badge, it.Scored.Result.Score, it.Article.Title)
		if len(it.Scored.Result.Flags) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(it.Scored.Result.Flags, ", "))
		}
		if it.Article.URL != "" {
			sb.WriteString(" " + it.Article.URL)
		}
		sb.WriteString("\n")
	}
	return p.Alerter.SendAll(ctx, notify.Message{
		Title: fmt.Sprintf("뉴스 품질 경고: %d건", run.BadgeCounts[quality.BadgeBad]),
		Body:  strings.TrimSpace(sb.String()),
		Fields: map[string]any{
			"run_id":  run.ID,
			"items":   len(run.Items),
			"bad":     run.BadgeCounts[quality.BadgeBad],
			"warning": run.BadgeCounts[quality.BadgeWarning],
		},
	})
}
