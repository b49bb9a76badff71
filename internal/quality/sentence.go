package quality

import (
	"strings"
	"unicode"
)

const (
	maxSentenceRunes = 600
	chunkRunes       = 300
)

// sentenceEnd holds the marks after which whitespace ends a sentence. The
// Korean endings 다. 요. 죠. end in '.' and need no separate rule.
var sentenceEnd = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '？': true, '！': true,
}

// SplitSentences splits text into trimmed, non-empty sentences. Whitespace
// after a sentence-final mark and any line break end a sentence. Sentences
// over 600 runes are cut into 300-rune windows so evidence matching stays
// bounded on pathological input.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var parts []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); {
		r := runes[i]
		if !unicode.IsSpace(r) {
			i++
			continue
		}
		afterMark := i > 0 && sentenceEnd[runes[i-1]]
		if !afterMark && r != '\n' && r != '\r' {
			i++
			continue
		}
		parts = append(parts, string(runes[start:i]))
		j := i + 1
		if afterMark {
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
		} else {
			for j < len(runes) && (runes[j] == '\n' || runes[j] == '\r') {
				j++
			}
		}
		start = j
		i = j
	}
	parts = append(parts, string(runes[start:]))

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, chop(p)...)
	}
	return out
}

func chop(sentence string) []string {
	runes := []rune(sentence)
	if len(runes) <= maxSentenceRunes {
		return []string{sentence}
	}
	var chunks []string
	for i := 0; i < len(runes); i += chunkRunes {
		end := i + chunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		if c := strings.TrimSpace(string(runes[i:end])); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}
