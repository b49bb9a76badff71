// Package report renders stored quality runs for people: a Markdown digest
// for chat and terminals, and a PNG table for sharing.
package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/notify"
)

// Digest is one run and its results.
type Digest struct {
	Run     store.Run
	Records []store.Record
}

// Counts returns the number of records per badge.
func (d Digest) Counts() map[quality.Badge]int {
	counts := make(map[quality.Badge]int, 3)
	for _, r := range d.Records {
		counts[r.Badge]++
	}
	return counts
}

// Sorted returns the records worst first. Ties keep their stored order.
func (d Digest) Sorted() []store.Record {
	recs := slices.Clone(d.Records)
	slices.SortStableFunc(recs, func(a, b store.Record) int {
		return cmp.Compare(a.Score, b.Score)
	})
	return recs
}

// FormatMarkdown converts a Digest into a Markdown table.
func FormatMarkdown(d Digest) string {
	var sb strings.Builder
	counts := d.Counts()

	fmt.Fprintf(&sb, "# 📰 뉴스 품질 리포트 · %s\n\n", stamp(d.Run))
	fmt.Fprintf(&sb, "run `%s` · %s · %d건 (%s %d / %s %d / %s %d)\n\n",
		d.Run.ID, cmp.Or(d.Run.Source, "-"), len(d.Records),
		quality.BadgeGood, counts[quality.BadgeGood],
		quality.BadgeWarning, counts[quality.BadgeWarning],
		quality.BadgeBad, counts[quality.BadgeBad])

	if len(d.Records) == 0 {
		sb.WriteString("_결과 없음_\n")
		return sb.String()
	}

	sb.WriteString("| # | 제목 | 점수 | 배지 | 플래그 | 근거 |\n")
	sb.WriteString("|---|---|---:|:---:|---|---|\n")
	for i, r := range d.Sorted() {
		title := cell(cmp.Or(r.Title, r.NewsID, "(제목 없음)"))
		if r.URL != "" {
			title = fmt.Sprintf("[%s](%s)", title, r.URL)
		}
		flags := "-"
		if len(r.Flags) > 0 {
			flags = "`" + strings.Join(r.Flags, "` `") + "`"
		}
		fmt.Fprintf(&sb, "| %d | %s | %d | %s | %s | %s |\n",
			i+1, title, r.Score, r.Badge, flags, r.EvidenceSummary)
	}

	sb.WriteString("\n---\n*newsquality 자동 생성*\n")
	return sb.String()
}

// Message wraps the digest for notify dispatch.
func Message(d Digest) notify.Message {
	counts := d.Counts()
	return notify.Message{
		Title: fmt.Sprintf("뉴스 품질 리포트 %s", stamp(d.Run)),
		Body:  FormatMarkdown(d),
		Fields: map[string]any{
			"run_id":  d.Run.ID,
			"items":   len(d.Records),
			"good":    counts[quality.BadgeGood],
			"warning": counts[quality.BadgeWarning],
			"bad":     counts[quality.BadgeBad],
		},
	}
}

func stamp(run store.Run) string {
	t := run.FinishedAt
	if t.IsZero() {
		t = run.StartedAt
	}
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

// cell keeps a value inside one Markdown table cell.
func cell(s string) string {
	s = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ").Replace(s)
	return strings.TrimSpace(s)
}
