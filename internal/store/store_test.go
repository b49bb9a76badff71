package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), storage.Config{DSN: filepath.Join(t.TempDir(), "quality.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func scoredItem(t *testing.T, raw string) quality.Scored {
	t.Helper()
	scored, err := quality.RunBatch([]byte(raw))
	require.NoError(t, err)
	require.Len(t, scored, 1)
	return scored[0]
}

func TestNewsIDString(t *testing.T) {
	assert.Equal(t, "", NewsIDString(nil))
	assert.Equal(t, "abc", NewsIDString("abc"))
	assert.Equal(t, "42", NewsIDString(json.Number("42")))
	assert.Equal(t, "1.5", NewsIDString(1.5))
	assert.Equal(t, "true", NewsIDString(true))
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	run, err := s.StartRun(ctx, "cli")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	good := scoredItem(t, `{"id": 7, "title": "정부 예산", "ai_summary": "정부가 예산을 발표했다. 외계인이 도시를 침공했다.", "content": "정부가 예산을 발표했다."}`)
	bad := scoredItem(t, `{"id": "x", "title": "속보"}`)

	recs := []Record{NewRecord(good, "https://example.com/a", "rss"), NewRecord(bad, "", "")}
	require.NoError(t, s.SaveResults(ctx, run.ID, recs))
	assert.NotZero(t, recs[0].ID)
	assert.Equal(t, run.ID, recs[1].RunID)

	require.NoError(t, s.FinishRun(ctx, run.ID, map[quality.Badge]int{
		good.Result.Badge: 1,
		bad.Result.Badge:  1,
	}))

	latest, err = s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, 2, latest.Items)
	assert.False(t, latest.FinishedAt.IsZero())

	got, err := s.RunResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "7", got[0].NewsID)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.Equal(t, good.Result.Flags, got[0].Flags)
	require.Len(t, got[0].Evidence, 2)
	assert.Equal(t, quality.VerdictOK, got[0].Evidence[0].Verdict)
	assert.Equal(t, quality.VerdictFail, got[0].Evidence[1].Verdict)
	assert.Equal(t, 1, got[0].Evidence[1].SentenceIndex)
	assert.Equal(t, "x", got[1].NewsID)
	// A title-only item is checked against its title: one unsupported row.
	require.Len(t, got[1].Evidence, 1)
	assert.Equal(t, "속보", got[1].Evidence[0].SummarySentence)
	assert.Equal(t, quality.VerdictFail, got[1].Evidence[0].Verdict)
}

func TestStore_ListResultsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.StartRun(ctx, "a")
	require.NoError(t, err)
	second, err := s.StartRun(ctx, "b")
	require.NoError(t, err)

	bad := scoredItem(t, `{"title": "속보"}`)
	require.Equal(t, quality.BadgeBad, bad.Result.Badge)

	require.NoError(t, s.SaveResults(ctx, first.ID, []Record{NewRecord(bad, "", ""), NewRecord(bad, "", "")}))
	require.NoError(t, s.SaveResults(ctx, second.ID, []Record{NewRecord(bad, "", "")}))

	all, err := s.ListResults(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[1].ID, "newest first")
	assert.Empty(t, all[0].Evidence)

	byRun, err := s.ListResults(ctx, Filter{RunID: first.ID})
	require.NoError(t, err)
	assert.Len(t, byRun, 2)

	limited, err := s.ListResults(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	good, err := s.ListResults(ctx, Filter{Badge: quality.BadgeGood})
	require.NoError(t, err)
	assert.Empty(t, good)
}

func TestStore_FinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.FinishRun(context.Background(), "missing", nil))
}

func TestStore_LatestRunOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	older, err := s.StartRun(ctx, "old")
	require.NoError(t, err)
	s.now = func() time.Time { return base.Add(time.Hour) }
	newer, err := s.StartRun(ctx, "new")
	require.NoError(t, err)
	require.NotEqual(t, older.ID, newer.ID)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)
	assert.Equal(t, base.Add(time.Hour), latest.StartedAt)
}

func TestStore_SaveRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	bad := scoredItem(t, `{"id": 1, "title": "속보"}`)
	run, err := s.SaveRun(ctx, "api", []Record{NewRecord(bad, "", ""), NewRecord(bad, "", "")})
	require.NoError(t, err)
	assert.Equal(t, 2, run.Items)
	assert.Equal(t, 2, run.Bad)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "api", latest.Source)
	assert.Equal(t, 2, latest.Bad)
}
