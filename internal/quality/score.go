package quality

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Risk flags, listed in evaluation order.
const (
	FlagTitleBodyMismatch  = "TITLE_BODY_MISMATCH"
	FlagSensationalTitle   = "SENSATIONAL_TITLE"
	FlagLowEvidence        = "LOW_EVIDENCE"
	FlagContradictionOrGap = "EVIDENCE_CONTRADICTION_OR_GAP"
	FlagLowCrossSource     = "LOW_CROSS_SOURCE"
)

// Badge is the user-facing quality marker.
type Badge string

const (
	BadgeGood    Badge = "✅"
	BadgeWarning Badge = "⚠️"
	BadgeBad     Badge = "❌"
)

var sensationalWords = []string{
	"충격", "경악", "단독", "속보", "대반전", "논란",
	"발칵", "파장", "결국", "폭로", "초유", "전격",
}

const (
	mismatchJaccard     = 0.05
	mismatchMinContent  = 100
	shortContentRunes   = 200
	lowEvidenceRatio    = 0.4
	contradictionRatio  = 0.5
	crossSourceBonusCap = 15
	goodBadgeScore      = 75
	warningBadgeScore   = 40
)

// NewsItem is the scorer input. Summary may be empty, in which case the
// title is checked against the content instead.
type NewsItem struct {
	ID               any
	Title            string
	Summary          string
	Content          string
	CrossSourceCount int
}

// Result is the outcome of scoring one item.
type Result struct {
	Score    int
	Flags    []string
	Badge    Badge
	Evidence []EvidenceRow

	OKRatio   float64
	WeakRatio float64
	FailRatio float64
}

// EvidenceSummary renders the compact "OK=<n>/<total>" trace.
func (r Result) EvidenceSummary() string {
	ok := 0
	for _, e := range r.Evidence {
		if e.Verdict == VerdictOK {
			ok++
		}
	}
	return fmt.Sprintf("OK=%d/%d", ok, len(r.Evidence))
}

// HasFlag reports whether flag was raised.
func (r Result) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Evaluate scores item. It is deterministic and never fails: degenerate
// text degrades to zero similarity.
func Evaluate(item NewsItem) Result {
	target := item.Summary
	titleFallback := strings.TrimSpace(target) == ""
	if titleFallback {
		target = item.Title
	}

	targetSents := SplitSentences(target)
	content := indexContent(SplitSentences(item.Content))

	rows := make([]EvidenceRow, 0, len(targetSents))
	okCount, weakCount := 0, 0
	for i, s := range targetSents {
		text, sim := bestEvidence(s, content)
		v := VerdictFor(sim, titleFallback)
		switch v {
		case VerdictOK:
			okCount++
		case VerdictWeak:
			weakCount++
		}
		rows = append(rows, EvidenceRow{
			SentenceIndex:   i,
			SummarySentence: s,
			EvidenceText:    text,
			Score:           sim,
			Verdict:         v,
		})
	}

	total := len(targetSents)
	if total < 1 {
		total = 1
	}
	okRatio := float64(okCount) / float64(total)
	weakRatio := float64(weakCount) / float64(total)
	failRatio := 1.0 - okRatio - weakRatio

	contentLen := utf8.RuneCountInString(item.Content)
	flags := make([]string, 0, 5)

	titleBody := Jaccard(Set(Tokenize(item.Title)), Set(Tokenize(item.Content)))
	if titleBody < mismatchJaccard && contentLen > mismatchMinContent {
		flags = append(flags, FlagTitleBodyMismatch)
	}
	if isSensational(item.Title) {
		flags = append(flags, FlagSensationalTitle)
	}
	if okRatio < lowEvidenceRatio {
		flags = append(flags, FlagLowEvidence)
	}
	if failRatio >= contradictionRatio {
		flags = append(flags, FlagContradictionOrGap)
	}
	if item.CrossSourceCount <= 1 {
		flags = append(flags, FlagLowCrossSource)
	}

	res := Result{
		Flags:     flags,
		Evidence:  rows,
		OKRatio:   okRatio,
		WeakRatio: weakRatio,
		FailRatio: failRatio,
	}
	res.Score = score(res, item.CrossSourceCount, contentLen)
	res.Badge = badgeFor(res.Score, res.HasFlag(FlagContradictionOrGap))
	return res
}

func isSensational(title string) bool {
	for _, w := range sensationalWords {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

func score(r Result, crossSources, contentLen int) int {
	s := 100
	s -= int(50 * r.FailRatio)
	s -= int(20 * max(0, lowEvidenceRatio-r.OKRatio))
	crossSources = max(-maxCrossSources, min(crossSources, maxCrossSources))
	s += min(crossSourceBonusCap, (crossSources-1)*5)

	if r.HasFlag(FlagTitleBodyMismatch) {
		s -= 20
	}
	if r.HasFlag(FlagSensationalTitle) {
		s -= 10
	}
	if contentLen < shortContentRunes {
		s -= 10
	}
	return max(0, min(100, s))
}

// badgeFor lets the contradiction flag veto the good badge regardless of
// the numeric score.
func badgeFor(score int, contradiction bool) Badge {
	switch {
	case score >= goodBadgeScore && !contradiction:
		return BadgeGood
	case score >= warningBadgeScore:
		return BadgeWarning
	default:
		return BadgeBad
	}
}
