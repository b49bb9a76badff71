package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, 0.5, cfg.Pipeline.ClusterThreshold)
	assert.Equal(t, time.Hour, cfg.Pipeline.Interval)
	assert.True(t, cfg.Scraper.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
store:
  dsn: /tmp/q.db
api:
  addr: ":9000"
  jwt_secret: ${TEST_JWT}
  clients:
    java-backend: "$2a$10$abc"
pipeline:
  cluster_threshold: 0.6
  interval: 30m
feeds:
  categories: [it]
  custom:
    - url: https://example.com/rss
llm:
  model: gpt-4.1-mini
`), 0o644))
	t.Setenv("TEST_JWT", "s3cret")
	t.Setenv("QUALITY_API_ADDR", ":7000")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/q.db", cfg.Store.DSN)
	assert.Equal(t, ":7000", cfg.API.Addr, "env beats file")
	assert.Equal(t, "s3cret", cfg.API.JWTSecret)
	assert.Equal(t, "$2a$10$abc", cfg.API.Clients["java-backend"])
	assert.Equal(t, 0.6, cfg.Pipeline.ClusterThreshold)
	assert.Equal(t, 100, cfg.Pipeline.MaxArticles, "defaults survive partial files")
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.Interval)
	assert.Equal(t, "gpt-4.1-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-fallback", cfg.LLM.APIKey)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	feeds := cfg.FeedConfigs()
	require.Len(t, feeds, 2)
	assert.Equal(t, "google-news-it", feeds[0].Name)
	assert.Equal(t, 20, feeds[0].Limit)
	assert.Equal(t, "https://example.com/rss", feeds[1].Name)
	assert.Equal(t, 20, feeds[1].Limit)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	require.NoError(t, os.WriteFile(FileName, []byte("log_level: warn\n"), 0o644))
	require.NoError(t, os.WriteFile(".env", []byte("QUALITY_STORE_DSN=from-dotenv.db\n"), 0o644))
	t.Setenv("QUALITY_STORE_DSN", "")
	os.Unsetenv("QUALITY_STORE_DSN")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "from-dotenv.db", cfg.Store.DSN)
}

func TestSlogLevel_Invalid(t *testing.T) {
	_, err := Config{LogLevel: "loud"}.SlogLevel()
	assert.Error(t, err)
}
