package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobinCoderZhao/newsquality/internal/config"
	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
)

func testApp(t *testing.T) *app {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Store.DSN = filepath.Join(t.TempDir(), "cli.db")
	return &app{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRunBatch_FailsOpen(t *testing.T) {
	var out bytes.Buffer
	runBatch(context.Background(), testApp(t), strings.NewReader("{oops"), &out, batchOptions{})
	assert.Equal(t, "[]", strings.TrimSpace(out.String()))
}

func TestRunBatch_Persists(t *testing.T) {
	a := testApp(t)
	var out bytes.Buffer
	in := `{"id": 3, "title": "속보"}` + "\n" + `{"id": 4, "title": "정부 예산", "ai_summary": "정부가 예산을 발표했다.", "content": "정부가 예산을 발표했다."}`
	runBatch(context.Background(), a, strings.NewReader(in), &out, batchOptions{persist: true})
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out.String()), "["))

	st, err := store.Open(context.Background(), a.cfg.Store)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.LatestRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "cli", run.Source)
	assert.Equal(t, 2, run.Items)
}

func TestCheckCmd_File(t *testing.T) {
	a := testApp(t)
	cmd := checkCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--file", filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "[]", strings.TrimSpace(out.String()))
}

func TestParseBadge(t *testing.T) {
	tests := []struct {
		in   string
		want quality.Badge
	}{
		{"", ""},
		{"good", quality.BadgeGood},
		{"WARN", quality.BadgeWarning},
		{"❌", quality.BadgeBad},
		{" bad ", quality.BadgeBad},
	}
	for _, tt := range tests {
		got, err := parseBadge(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseBadge("meh")
	assert.Error(t, err)
}

func TestHashSecretCmd(t *testing.T) {
	cmd := hashSecretCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("pw\n"))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "$2a$"))
}
