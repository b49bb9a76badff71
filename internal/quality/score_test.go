package quality

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// budgetContent is 280 runes of one repeated sentence, long enough to avoid
// the short-content penalty.
var budgetContent = strings.Repeat("정부가 예산을 발표했다. ", 20)

func TestEvaluate_SensationalTitle(t *testing.T) {
	res := Evaluate(NewsItem{
		Title:            "[단독] 충격적인 사실",
		Content:          budgetContent,
		CrossSourceCount: 2,
	})
	assert.True(t, res.HasFlag(FlagSensationalTitle))
}

func TestEvaluate_CrossSourceBonusIsCapped(t *testing.T) {
	item := NewsItem{
		Title:   "속보 정부 예산 발표",
		Summary: "정부가 예산을 발표했다.",
		Content: "정부가 예산을 발표했다.",
	}

	// 100 - 10 (sensational) - 10 (short content) + bonus
	for cross, want := range map[int]int{1: 80, 2: 85, 4: 95, 10: 95} {
		item.CrossSourceCount = cross
		res := Evaluate(item)
		assert.Equal(t, want, res.Score, "cross=%d", cross)
		assert.Equal(t, BadgeGood, res.Badge)
	}

	item.CrossSourceCount = 10
	assert.Equal(t, []string{FlagSensationalTitle}, Evaluate(item).Flags)
	item.CrossSourceCount = 1
	assert.Equal(t, []string{FlagSensationalTitle, FlagLowCrossSource}, Evaluate(item).Flags)
}

func TestEvaluate_TitleFallback(t *testing.T) {
	for _, summary := range []string{"", "   \n"} {
		res := Evaluate(NewsItem{
			Title:            "정부 예산 발표",
			Summary:          summary,
			Content:          "정부가 예산을 발표했다. 날씨는 맑다.",
			CrossSourceCount: 1,
		})
		require.Len(t, res.Evidence, 1)
		row := res.Evidence[0]
		assert.Equal(t, "정부 예산 발표", row.SummarySentence)
		assert.Equal(t, "정부가 예산을 발표했다.", row.EvidenceText)
		assert.Equal(t, VerdictOK, row.Verdict)
		assert.Equal(t, "OK=1/1", res.EvidenceSummary())
	}
}

func TestEvaluate_TitleFallbackRelaxesFailBoundary(t *testing.T) {
	// One shared token out of eight on each side: cosine 0.125.
	title := "alpha beta gamma delta epsilon zeta eta theta"
	content := "alpha one two three four five six seven."

	res := Evaluate(NewsItem{Title: title, Content: content, CrossSourceCount: 1})
	require.Len(t, res.Evidence, 1)
	assert.InDelta(t, 0.125, res.Evidence[0].Score, 1e-9)
	assert.Equal(t, VerdictWeak, res.Evidence[0].Verdict)
	assert.Equal(t, 1.0, res.WeakRatio)

	res = Evaluate(NewsItem{Title: title, Summary: title, Content: content, CrossSourceCount: 1})
	require.Len(t, res.Evidence, 1)
	assert.Equal(t, VerdictFail, res.Evidence[0].Verdict)
	assert.True(t, res.HasFlag(FlagContradictionOrGap))
}

func TestEvaluate_HugeCrossSourceCount(t *testing.T) {
	item := NewsItem{
		Title:   "정부 예산",
		Summary: "정부가 예산을 발표했다.",
		Content: "정부가 예산을 발표했다.",
	}
	for _, cross := range []int{10, maxCrossSources, math.MaxInt} {
		item.CrossSourceCount = cross
		res := Evaluate(item)
		// 100 - 10 (short content) + 15, clamped
		assert.Equal(t, 100, res.Score, "cross=%d", cross)
		assert.Empty(t, res.Flags, "cross=%d", cross)
		assert.Equal(t, BadgeGood, res.Badge)
	}

	scored, err := RunBatch([]byte(`[
		{"title": "정부 예산", "ai_summary": "정부가 예산을 발표했다.", "content": "정부가 예산을 발표했다.", "cross_source_count": 2305843009213693953},
		{"title": "정부 예산", "ai_summary": "정부가 예산을 발표했다.", "content": "정부가 예산을 발표했다.", "cross_source_count": 1e10}
	]`))
	require.NoError(t, err)
	require.Len(t, scored, 2)
	for i, sc := range scored {
		assert.Equal(t, 100, sc.Result.Score, "item %d", i)
		assert.Equal(t, []string{}, sc.Result.Flags, "item %d", i)
		assert.Equal(t, BadgeGood, sc.Result.Badge, "item %d", i)
	}
}

func TestEvaluate_ContradictionVetoesGoodBadge(t *testing.T) {
	res := Evaluate(NewsItem{
		Title:            "정부 예산",
		Summary:          "정부가 예산을 발표했다. 외계인이 도시를 침공했다.",
		Content:          budgetContent,
		CrossSourceCount: 4,
	})
	require.Len(t, res.Evidence, 2)
	assert.Equal(t, VerdictOK, res.Evidence[0].Verdict)
	assert.Equal(t, VerdictFail, res.Evidence[1].Verdict)
	assert.Equal(t, 90, res.Score)
	assert.Equal(t, []string{FlagContradictionOrGap}, res.Flags)
	assert.Equal(t, BadgeWarning, res.Badge)
	assert.Equal(t, "OK=1/2", res.EvidenceSummary())
}

func TestEvaluate_TitleBodyMismatch(t *testing.T) {
	res := Evaluate(NewsItem{
		Title:            "주식 시장 급등",
		Content:          strings.Repeat("오늘 날씨는 맑고 따뜻하다. ", 10),
		CrossSourceCount: 1,
	})
	assert.Equal(t, []string{
		FlagTitleBodyMismatch,
		FlagLowEvidence,
		FlagContradictionOrGap,
		FlagLowCrossSource,
	}, res.Flags)
	// 100 - 50 (fail) - 8 (low evidence) - 20 (mismatch) - 10 (short content)
	assert.Equal(t, 12, res.Score)
	assert.Equal(t, BadgeBad, res.Badge)
}

func TestEvaluate_EmptyItem(t *testing.T) {
	res := Evaluate(NewsItem{CrossSourceCount: 1})
	assert.Empty(t, res.Evidence)
	assert.Equal(t, "OK=0/0", res.EvidenceSummary())
	assert.Equal(t, []string{FlagLowEvidence, FlagContradictionOrGap, FlagLowCrossSource}, res.Flags)
	assert.Equal(t, 32, res.Score)
	assert.Equal(t, BadgeBad, res.Badge)
}

func TestEvaluate_CleanItem(t *testing.T) {
	res := Evaluate(NewsItem{
		Title:            "정부 예산",
		Summary:          "정부가 예산을 발표했다.",
		Content:          budgetContent,
		CrossSourceCount: 3,
	})
	assert.Empty(t, res.Flags)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, BadgeGood, res.Badge)
}

func TestEvaluate_InvariantsAndDeterminism(t *testing.T) {
	items := []NewsItem{
		{},
		{Title: "결국 폭로", Summary: "아무 관련 없는 요약.", Content: budgetContent, CrossSourceCount: 1},
		{Title: "정부 예산", Summary: "정부가 예산을 발표했다. 예산 규모는 크다. 외계인 침공.", Content: budgetContent, CrossSourceCount: 7},
		{Title: strings.Repeat("긴 제목 ", 100), Content: strings.Repeat("가", 2000), CrossSourceCount: 2},
	}
	for i, item := range items {
		first := Evaluate(item)
		second := Evaluate(item)
		assert.Equal(t, first, second, "item %d", i)

		assert.GreaterOrEqual(t, first.Score, 0)
		assert.LessOrEqual(t, first.Score, 100)
		assert.Contains(t, []Badge{BadgeGood, BadgeWarning, BadgeBad}, first.Badge)
		assert.InDelta(t, 1.0, first.OKRatio+first.WeakRatio+first.FailRatio, 1e-9)
		for _, row := range first.Evidence {
			assert.GreaterOrEqual(t, row.Score, 0.0)
			assert.LessOrEqual(t, row.Score, 1.0)
		}
	}
}
