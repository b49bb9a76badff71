// Package config holds the qualitycheck application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newsquality/internal/pipeline"
	"github.com/RobinCoderZhao/newsquality/internal/sources"
	appconfig "github.com/RobinCoderZhao/newsquality/pkg/config"
	"github.com/RobinCoderZhao/newsquality/pkg/llm"
	"github.com/RobinCoderZhao/newsquality/pkg/notify"
	"github.com/RobinCoderZhao/newsquality/pkg/scraper"
	"github.com/RobinCoderZhao/newsquality/pkg/storage"
)

// FileName is the config file looked up in the working and home directories.
const FileName = "qualitycheck.yaml"

// Config is the main configuration for qualitycheck.
type Config struct {
	LogLevel string               `yaml:"log_level" env:"QUALITY_LOG_LEVEL"`
	Store    storage.Config       `yaml:"store"`
	API      APIConfig            `yaml:"api"`
	LLM      llm.Config           `yaml:"llm"`
	Scraper  ScraperConfig        `yaml:"scraper"`
	Feeds    FeedsConfig          `yaml:"feeds"`
	Pipeline PipelineConfig       `yaml:"pipeline"`
	Alert    notify.WebhookConfig `yaml:"alert"`
	Report   ReportConfig         `yaml:"report"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr string `yaml:"addr" env:"QUALITY_API_ADDR"`
	// JWTSecret signs access tokens. Empty disables authentication.
	JWTSecret string `yaml:"jwt_secret" env:"QUALITY_JWT_SECRET"`
	// Clients maps client ids to bcrypt hashes of their secrets.
	Clients  map[string]string `yaml:"clients"`
	TokenTTL time.Duration     `yaml:"token_ttl" env:"QUALITY_TOKEN_TTL"`
	// MaxBodyBytes bounds check request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ScraperConfig configures article body extraction.
type ScraperConfig struct {
	Enabled bool                 `yaml:"enabled" env:"QUALITY_SCRAPER_ENABLED"`
	Fetch   scraper.FetchOptions `yaml:"fetch"`
}

// FeedsConfig lists the article sources.
type FeedsConfig struct {
	// Categories adds a Google News feed per category.
	Categories []string             `yaml:"categories" env:"QUALITY_FEED_CATEGORIES"`
	Custom     []sources.FeedConfig `yaml:"custom"`
	// Limit caps items per feed when the feed has no own limit.
	Limit int `yaml:"limit"`
}

// PipelineConfig tunes the pipeline and its schedule.
type PipelineConfig struct {
	pipeline.Options `yaml:",inline"`
	Interval         time.Duration `yaml:"interval" env:"QUALITY_PIPELINE_INTERVAL"`
}

// ReportConfig configures rendered reports.
type ReportConfig struct {
	// FontPath points at a TrueType font with Hangul glyphs for PNG output.
	FontPath string `yaml:"font_path" env:"QUALITY_REPORT_FONT"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Store:    storage.Config{DSN: "qualitycheck.db", WAL: true},
		API: APIConfig{
			Addr:         ":8080",
			TokenTTL:     24 * time.Hour,
			MaxBodyBytes: 10 << 20,
		},
		LLM: llm.DefaultConfig(),
		Scraper: ScraperConfig{
			Enabled: true,
			Fetch:   *scraper.DefaultFetchOptions(),
		},
		Feeds: FeedsConfig{
			Categories: []string{"politics", "economy", "society"},
			Limit:      20,
		},
		Pipeline: PipelineConfig{
			Options: pipeline.Options{
				ClusterThreshold: pipeline.DefaultClusterThreshold,
				MaxArticles:      100,
				Concurrency:      4,
			},
			Interval: time.Hour,
		},
	}
}

// Load reads configuration from path, or when path is empty from
// ./qualitycheck.yaml and then ~/.qualitycheck.yaml. A .env file in the
// working directory is loaded first so YAML values can reference it.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := appconfig.LoadDotEnv(); err != nil {
		return cfg, err
	}

	if path == "" {
		path = findConfigFile()
	}
	var err error
	if path != "" {
		err = appconfig.Load(path, &cfg)
	} else {
		err = appconfig.ApplyEnv(&cfg)
	}
	if err != nil {
		return cfg, err
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "."+FileName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// FeedConfigs expands the configured categories and custom feeds.
func (c Config) FeedConfigs() []sources.FeedConfig {
	var feeds []sources.FeedConfig
	for _, cat := range c.Feeds.Categories {
		f := sources.GoogleNewsFeed(cat)
		f.Limit = c.Feeds.Limit
		feeds = append(feeds, f)
	}
	for _, f := range c.Feeds.Custom {
		if f.Limit == 0 {
			f.Limit = c.Feeds.Limit
		}
		if f.Name == "" {
			f.Name = f.URL
		}
		feeds = append(feeds, f)
	}
	return feeds
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
