// Package quality scores AI-generated news summaries against their source
// article using lexical evidence matching.
//
// The scorer is deliberately heuristic: Korean particles are stripped with a
// fixed suffix list instead of a morphological analyzer, sentences are split
// with punctuation rules, and similarity is cosine over token counts.
package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	tokenRe = regexp.MustCompile(`[0-9A-Za-z가-힣]+`)

	// josaRe removes one trailing particle. Alternation order matters only for
	// readability; leftmost-start matching already prefers the longest suffix.
	josaRe = regexp.MustCompile(`(은|는|이|가|을|를|에|에서|로|으로|도|만|까지|의)$`)
)

// Tokenize returns the lowercase alphanumeric tokens of text with a trailing
// josa removed from every token longer than one character.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	raw := tokenRe.FindAllString(text, -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(t)
		if utf8.RuneCountInString(t) > 1 {
			t = josaRe.ReplaceAllString(t, "")
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Counts builds the token multiset used by Cosine.
func Counts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// Set builds the token set used by Jaccard.
func Set(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
