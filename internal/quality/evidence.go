package quality

// Verdict classifies how well a summary sentence is backed by the content.
type Verdict string

const (
	VerdictOK   Verdict = "OK"
	VerdictWeak Verdict = "WEAK"
	VerdictFail Verdict = "FAIL"
)

const (
	okThreshold        = 0.30
	weakThreshold      = 0.15
	titleWeakThreshold = 0.10
)

// EvidenceRow pairs one summary sentence with its best supporting content
// sentence.
type EvidenceRow struct {
	SentenceIndex   int     `json:"sent_idx"`
	SummarySentence string  `json:"summary_sent"`
	EvidenceText    string  `json:"evidence_text"`
	Score           float64 `json:"score"`
	Verdict         Verdict `json:"verdict"`
}

type contentSentence struct {
	text   string
	counts map[string]int
}

// indexContent tokenizes content sentences once; sentences without tokens
// can never be evidence and are dropped.
func indexContent(sentences []string) []contentSentence {
	out := make([]contentSentence, 0, len(sentences))
	for _, s := range sentences {
		tokens := Tokenize(s)
		if len(tokens) == 0 {
			continue
		}
		out = append(out, contentSentence{text: s, counts: Counts(tokens)})
	}
	return out
}

// BestEvidence returns the content sentence most similar to sentence. Only a
// strictly greater score replaces the current best, so the first sentence
// wins ties. A sentence without tokens has no evidence.
func BestEvidence(sentence string, content []string) (string, float64) {
	return bestEvidence(sentence, indexContent(content))
}

func bestEvidence(sentence string, content []contentSentence) (string, float64) {
	tokens := Tokenize(sentence)
	if len(tokens) == 0 {
		return "", 0
	}
	counts := Counts(tokens)

	bestText := ""
	bestScore := 0.0
	for _, c := range content {
		if sim := Cosine(counts, c.counts); sim > bestScore {
			bestScore = sim
			bestText = c.text
		}
	}
	return bestText, bestScore
}

// VerdictFor maps a similarity score onto a verdict. titleFallback relaxes
// the FAIL boundary because titles are terser than summaries.
func VerdictFor(sim float64, titleFallback bool) Verdict {
	switch {
	case sim >= okThreshold:
		return VerdictOK
	case sim >= weakThreshold:
		return VerdictWeak
	case titleFallback && sim >= titleWeakThreshold:
		return VerdictWeak
	default:
		return VerdictFail
	}
}
