package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/config"
	"github.com/RobinCoderZhao/newsquality/internal/pipeline"
	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/sources"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/internal/summarizer"
	"github.com/RobinCoderZhao/newsquality/pkg/llm"
	"github.com/RobinCoderZhao/newsquality/pkg/notify"
	"github.com/RobinCoderZhao/newsquality/pkg/scraper"
)

func pipelineCmd(a *app) *cobra.Command {
	var outputJSON bool
	var noStore bool

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the feed → scrape → summarize → score pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			var st *store.Store
			if !noStore {
				var err error
				st, err = store.Open(cmd.Context(), a.cfg.Store)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
			}

			p, err := buildPipeline(a.cfg, st, a.logger)
			if err != nil {
				return err
			}
			run, err := p.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("pipeline: %w", err)
			}
			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "print the run as JSON")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run")
	return cmd
}

// buildPipeline wires the configured stages. st may be nil. Without an
// LLM key the feed summaries are scored as they are.
func buildPipeline(cfg config.Config, st *store.Store, logger *slog.Logger) (*pipeline.Pipeline, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	registry := sources.NewRegistry(logger)
	for _, f := range cfg.FeedConfigs() {
		registry.Register(sources.NewRSSSource(f, client))
	}
	if registry.Len() == 0 {
		return nil, errors.New("no feeds configured")
	}

	p := &pipeline.Pipeline{
		Source:  registry,
		Options: cfg.Pipeline.Options,
		Logger:  logger,
	}
	if st != nil {
		p.Store = st
	}
	if cfg.Scraper.Enabled {
		fetch := cfg.Scraper.Fetch
		p.Extractor = scraper.NewRegistry(scraper.NewHTTPFetcher(nil), &fetch)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Info("no LLM API key, using feed summaries")
	case err != nil:
		return nil, fmt.Errorf("create LLM client: %w", err)
	default:
		p.Summarizer = summarizer.New(llmClient)
	}

	if cfg.Alert.URL != "" {
		d := notify.NewDispatcher(logger)
		d.Register(notify.NewWebhookNotifier(cfg.Alert))
		p.Alerter = d
	}
	return p, nil
}

func printRun(w io.Writer, run *pipeline.Run) {
	fmt.Fprintf(w, "run %s: fetched %d, scored %d (%s %d / %s %d / %s %d) in %s",
		orDash(run.ID), run.Fetched, len(run.Items),
		quality.BadgeGood, run.BadgeCounts[quality.BadgeGood],
		quality.BadgeWarning, run.BadgeCounts[quality.BadgeWarning],
		quality.BadgeBad, run.BadgeCounts[quality.BadgeBad],
		run.Duration.Round(time.Millisecond))
	if run.LLMCost > 0 {
		fmt.Fprintf(w, ", LLM $%.4f", run.LLMCost)
	}
	fmt.Fprintln(w)
	for _, it := range run.Items {
		fmt.Fprintf(w, "%s %3d  %s  [%s]\n", it.Output.Badge, it.Output.QualityScore, it.Article.Title, it.Article.SourceName())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
