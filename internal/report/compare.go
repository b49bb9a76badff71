package report

import (
	"fmt"
	"strings"

	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/differ"
)

// Compare diffs two digests item by item. An item whose badge, score or
// flags changed shows up as one removal and one addition.
func Compare(prev, cur Digest) differ.Result {
	return differ.Lines(resultLines(prev.Records), resultLines(cur.Records))
}

// FormatComparison renders Compare as a fenced diff block.
func FormatComparison(prev, cur Digest) string {
	res := Compare(prev, cur)
	var sb strings.Builder
	fmt.Fprintf(&sb, "## 변경 사항 (%s → %s)\n\n", prev.Run.ID, cur.Run.ID)
	if !res.HasChanges() {
		sb.WriteString("_변경 없음_\n")
		return sb.String()
	}
	sb.WriteString("```diff\n")
	sb.WriteString(res.Unified(prev.Run.ID, cur.Run.ID))
	sb.WriteString("```\n")
	fmt.Fprintf(&sb, "\n%s\n", res.Summary())
	return sb.String()
}

func resultLines(recs []store.Record) []string {
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		id := r.NewsID
		if id == "" {
			id = r.Title
		}
		lines = append(lines, fmt.Sprintf("%s %s %d %s", id, r.Badge, r.Score, strings.Join(r.Flags, ",")))
	}
	return lines
}
